// Package logging builds the structured logger shared by every command.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

const Prefix = "sampkit"

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// Levels lists the accepted level names, lowest first.
func Levels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatLogfmt}
}

// New returns a logger writing to w. Empty level and format default to
// "warn" and "text".
func New(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	formatter, err := parseFormat(format)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:     lvl,
		Formatter: formatter,
		Prefix:    Prefix,
	}), nil
}

func parseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		return log.DebugLevel, nil
	case LevelInfo:
		return log.InfoLevel, nil
	case "", LevelWarn, "warning":
		return log.WarnLevel, nil
	case LevelError:
		return log.ErrorLevel, nil
	}
	return 0, fmt.Errorf("%q (must be one of: %v): %w", level, Levels(), ErrInvalidLevel)
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("%q (must be one of: %v): %w", format, Formats(), ErrInvalidFormat)
}
