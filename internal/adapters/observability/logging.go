package observability

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger tagged with the component name.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env, component string) zerolog.Logger {
	l := zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("component", component).Logger()
	}
	return l
}

// WithRun returns a child logger carrying a fresh run id, plus the id.
func WithRun(l zerolog.Logger) (zerolog.Logger, string) {
	id := uuid.NewString()
	return l.With().Str("run_id", id).Logger(), id
}
