// Package logging configures structured JSON logging for service binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig bounds on-disk log growth when a file sink is used.
type RotationConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func parseLevel(env string) slog.Level {
	switch strings.ToLower(env) {
	case "production", "prod":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Setup installs a JSON slog handler as the process default and returns the
// service-scoped logger.
func Setup(service, env string) *slog.Logger {
	return setup(service, env, os.Stdout)
}

// SetupWithRotation behaves like Setup but tees output into a size-rotated
// file alongside stdout.
func SetupWithRotation(service, env string, rotation RotationConfig) *slog.Logger {
	if rotation.Filename == "" {
		return Setup(service, env)
	}
	sink := &lumberjack.Logger{
		Filename:   rotation.Filename,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}
	return setup(service, env, io.MultiWriter(os.Stdout, sink))
}

func setup(service, env string, out io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(env)})
	logger := slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", env),
	)
	slog.SetDefault(logger)
	return logger
}
