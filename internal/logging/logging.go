// Package logging builds the zerolog logger shared by the CLI and stores it in
// the context for library code.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bgricker/phrasereport/internal/aggregator"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// New returns a timestamped JSON logger writing to out at the given level.
// Every line carries the run id.
func New(out io.Writer, level, runID string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("run_id", runID).Logger(), nil
}

// NewRunID returns a fresh identifier for one CLI invocation.
func NewRunID() string {
	return uuid.NewString()
}

// ParseLevel accepts debug, info, warn or error; empty selects DefaultLevel.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return ParseLevel(DefaultLevel)
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unsupported log level %q", level)
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// RecordListener logs every phrase record at debug level.
func RecordListener(ctx context.Context) aggregator.Listener {
	logger := zerolog.Ctx(ctx)
	return aggregator.ListenerFunc(func(title string, rec aggregator.PhraseExecutionRecord) {
		ev := logger.Debug().
			Str("test_case", title).
			Int("index", rec.Index).
			Str("phrase", rec.Body).
			Str("outcome", rec.Outcome.String())
		if rec.Reason != "" {
			ev = ev.Str("reason", rec.Reason).Bool("fault", rec.Fault)
		}
		ev.Msg("phrase recorded")
	})
}
