package logger

import "go.uber.org/zap"

// LoggerConfig controls logger construction.
type LoggerConfig struct {
	// Debug switches to the human-readable development config with
	// debug-level output.
	Debug bool
}

// NewLogger builds the process logger. Callers pass the result into
// library constructors; packages never create their own loggers.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
