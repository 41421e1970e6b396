package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds the tool's logger. Output goes to w (stderr in production) in
// console form; an unknown level falls back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}
