// Package logger builds the process-wide zerolog instance: console output
// for interactive use, a rotated file under the configured log directory
// for the service deployment.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "reelvault.log"

// Config holds logger configuration, populated from the logging section
// of the application config.
type Config struct {
	Level      string
	Format     string // "console" or "json"
	Path       string // directory for log files; empty disables file output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger is a zerolog.Logger that also owns the log file rotator.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// New builds the logger from cfg. Binaries launched through "go run" get
// debug level regardless of configuration, so local development never
// needs a config change to see ingest detail.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)
	if runByGoRun() && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	output := consoleWriter(cfg.Format)
	rotator := fileRotator(cfg)
	if rotator != nil {
		output = io.MultiWriter(output, rotator)
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: zl, rotator: rotator}
}

// Close flushes and closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

func consoleWriter(format string) io.Writer {
	if format == "json" {
		return os.Stdout
	}
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

// fileRotator returns nil when no log directory is configured or it
// cannot be created; the logger then writes to the console only.
func fileRotator(cfg Config) *lumberjack.Logger {
	if cfg.Path == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Path, logFileName),
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runByGoRun reports whether the binary came out of the go build cache,
// which is where "go run" places its temporary executables.
func runByGoRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	return strings.Contains(exe, "go-build")
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
