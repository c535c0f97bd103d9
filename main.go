// Command sampkit manages SA-MP and open.mp project dependencies.
package main

import (
	"log"
	"os"

	"github.com/nightconcept/sampkit/internal/cli/app"
)

func main() {
	if err := app.New().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
