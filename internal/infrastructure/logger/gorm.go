package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultMaxStatement bounds the logged SQL text. Fact batches render one
// VALUES tuple per row and would otherwise flood the run log.
const DefaultMaxStatement = 2048

// SQLLogger routes GORM output to zap. Statements issued under a pipeline
// context are logged through the run logger, so they carry run_id and stage.
type SQLLogger struct {
	base         *zap.Logger
	level        gormlogger.LogLevel
	slow         time.Duration
	maxStatement int
}

// SQLOption configures an SQLLogger
type SQLOption func(*SQLLogger)

// WithLevel sets the GORM verbosity
func WithLevel(level gormlogger.LogLevel) SQLOption {
	return func(l *SQLLogger) { l.level = level }
}

// WithSlowQuery warns about statements slower than d; 0 disables the warning
func WithSlowQuery(d time.Duration) SQLOption {
	return func(l *SQLLogger) { l.slow = d }
}

// WithMaxStatement truncates logged SQL to n bytes; 0 logs it whole
func WithMaxStatement(n int) SQLOption {
	return func(l *SQLLogger) { l.maxStatement = n }
}

// NewSQLLogger creates a GORM logger that reports errors and slow statements
func NewSQLLogger(base *zap.Logger, opts ...SQLOption) *SQLLogger {
	l := &SQLLogger{
		base:         base,
		level:        gormlogger.Warn,
		slow:         200 * time.Millisecond,
		maxStatement: DefaultMaxStatement,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode returns a copy at the given level
func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.from(ctx).Sugar().Infof(msg, data...)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.from(ctx).Sugar().Warnf(msg, data...)
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.from(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement. Missing records are lookups, not failures.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slow > 0 && elapsed > l.slow
	switch {
	case err != nil && l.level >= gormlogger.Error:
	case slow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	stmt, rows := fc()
	fields := []zap.Field{
		zap.String("op", statementKind(stmt)),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
		zap.String("sql", l.truncate(stmt)),
	}
	log := l.from(ctx)
	switch {
	case err != nil:
		log.Error("Warehouse statement failed", append(fields, zap.Error(err))...)
	case slow:
		log.Warn("Slow warehouse statement", append(fields, zap.Duration("threshold", l.slow))...)
	default:
		log.Debug("Warehouse statement", fields...)
	}
}

func (l *SQLLogger) from(ctx context.Context) *zap.Logger {
	if _, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return L(ctx).Named("sql")
	}
	return l.base
}

func (l *SQLLogger) truncate(stmt string) string {
	if l.maxStatement <= 0 || len(stmt) <= l.maxStatement {
		return stmt
	}
	cut := l.maxStatement
	// keep the cut on a rune boundary
	for cut > 0 && stmt[cut]&0xC0 == 0x80 {
		cut--
	}
	return stmt[:cut] + "..."
}

// statementKind is the leading SQL keyword in lower case, e.g. "insert"
func statementKind(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
