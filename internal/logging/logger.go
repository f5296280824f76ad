package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// #region config

// Config holds logger configuration.
type Config struct {
	Level  string    `mapstructure:"level" yaml:"level"`   // debug | info | warn | error (default: info)
	Format string    `mapstructure:"format" yaml:"format"` // console | json (default: json)
	Output io.Writer `mapstructure:"-" yaml:"-"`           // default: stderr
}

// DefaultConfig returns JSON logs at info level on stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// #endregion config

// #region new

// New builds a zerolog logger. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("app", "feeling").
		Logger()
}

// Component tags logger with a component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// #endregion new
