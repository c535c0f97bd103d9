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
