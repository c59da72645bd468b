// Package logging builds the application logger.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a [log.Logger] writing to w with timestamps at the named
// level. A nil w writes to stderr; an empty level means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	lvl := log.InfoLevel
	if level != "" {
		var err error
		lvl, err = log.ParseLevel(level)
		if err != nil {
			return nil, err
		}
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	}), nil
}
