package commands

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// Logger writes client log lines through zerolog.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a console logger on w. Debug lines are only written when
// verbose is set.
func NewLogger(w io.Writer, verbose bool) *Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return &Logger{
		logger: zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
			Level(level).
			With().
			Timestamp().
			Logger(),
	}
}

// Debug implements suitecrm.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

// Info implements suitecrm.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

// Warn implements suitecrm.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

// Error implements suitecrm.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

var _ suitecrm.Logger = (*Logger)(nil)
