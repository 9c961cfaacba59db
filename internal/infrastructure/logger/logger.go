package logger

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pharmdist/salesflow/internal/domain/shared"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// CompletedMarker prefixes the success line of a run in the run log
	CompletedMarker = "_COMPLETED_:"
	// ErrorMarker prefixes the failure line of a run in the run log
	ErrorMarker = "_ERROR_:"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	File       string // run log file tee'd with Output, empty disables it
	TimeFormat string
}

// DefaultConfig returns a default configuration suitable for interactive runs
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// New creates a zap logger writing to Output and, when File is set, to the run log.
// The run log always uses the plain " - " separated layout so operators can read it.
func New(cfg *Config) (*zap.Logger, error) {
	level := levelOf(cfg.Level)

	out, _, err := zap.Open(sinkPath(cfg.Output))
	if err != nil {
		return nil, err
	}
	cores := []zapcore.Core{zapcore.NewCore(encoder(cfg.Format, cfg.TimeFormat), out, level)}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		runLog, _, err := zap.Open(cfg.File)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder(runLogFormat, cfg.TimeFormat), runLog, level))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

const runLogFormat = "runlog"

// levelOf parses a level name; unknown names fall back to info
func levelOf(name string) zapcore.Level {
	if strings.EqualFold(name, "warning") {
		return zapcore.WarnLevel
	}
	level, err := zapcore.ParseLevel(strings.ToLower(name))
	if err != nil || name == "" {
		return zapcore.InfoLevel
	}
	return level
}

func sinkPath(output string) string {
	if output == "" {
		return "stdout"
	}
	return output
}

func encoder(format, timeFormat string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeFormat),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch format {
	case "json":
		ec.EncodeLevel = zapcore.LowercaseLevelEncoder
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		return zapcore.NewJSONEncoder(ec)
	case runLogFormat:
		ec.ConsoleSeparator = " - "
		return zapcore.NewConsoleEncoder(ec)
	default:
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
}

// Completed logs the success line of a run
func Completed(log *zap.Logger, msg string, fields ...zap.Field) {
	log.Info(CompletedMarker+" "+msg, fields...)
}

// Expected logs a user-fixable failure. The rendered error already tells the
// operator what to do, so no stack trace is attached.
func Expected(log *zap.Logger, err error) {
	log.WithOptions(zap.AddStacktrace(zapcore.FatalLevel)).
		Error(ErrorMarker + " " + err.Error())
}

// Unexpected logs a failure the operator cannot fix, with stack trace
func Unexpected(log *zap.Logger, err error) {
	log.Error(ErrorMarker+" unexpected error", zap.Error(err))
}

// Outcome routes err to Expected or Unexpected and returns it unchanged
func Outcome(log *zap.Logger, err error) error {
	if err == nil {
		return nil
	}
	if shared.IsExpected(err) {
		Expected(log, err)
	} else {
		Unexpected(log, err)
	}
	return err
}

// Sync flushes any buffered log entries
func Sync(logger *zap.Logger) error {
	return logger.Sync()
}
