package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func newObservedGormLogger(cfg gormlogger.Config) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), cfg), recorded
}

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Config{LogLevel: gormlogger.Info})

	quiet, ok := gl.LogMode(gormlogger.Silent).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Silent, quiet.cfg.LogLevel)
	assert.Equal(t, gormlogger.Info, gl.cfg.LogLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	ctx := context.Background()

	gl, recorded := newObservedGormLogger(gormlogger.Config{LogLevel: gormlogger.Warn})
	gl.Info(ctx, "migrated %d tables", 4)
	gl.Warn(ctx, "deprecated %s", "option")
	gl.Error(ctx, "lost %s", "connection")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "deprecated option", entries[0].Message)
	assert.Equal(t, "lost connection", entries[1].Message)
	assert.Equal(t, "gorm", entries[0].LoggerName)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithField(context.Background(), FieldRequestID, "req-9")

	tests := []struct {
		name      string
		cfg       gormlogger.Config
		begin     time.Time
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{
			name:      "error",
			cfg:       gormlogger.Config{LogLevel: gormlogger.Error},
			begin:     time.Now(),
			err:       errors.New("duplicate key"),
			wantMsg:   "SQL error",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "not found kept",
			cfg:       gormlogger.Config{LogLevel: gormlogger.Error},
			begin:     time.Now(),
			err:       gormlogger.ErrRecordNotFound,
			wantMsg:   "SQL error",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "slow",
			cfg:       gormlogger.Config{LogLevel: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond},
			begin:     time.Now().Add(-time.Second),
			wantMsg:   "Slow SQL",
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "statement",
			cfg:       gormlogger.Config{LogLevel: gormlogger.Info, SlowThreshold: time.Hour},
			begin:     time.Now(),
			wantMsg:   "SQL",
			wantLevel: zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGormLogger(tt.cfg)
			gl.Trace(ctx, tt.begin, statement("SELECT * FROM sync_jobs", 2), tt.err)

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, "SELECT * FROM sync_jobs", fields["sql"])
			assert.EqualValues(t, 2, fields["rows"])
			assert.Equal(t, "req-9", fields[FieldRequestID])
		})
	}
}

func TestGormLogger_TraceSuppressed(t *testing.T) {
	tests := []struct {
		name  string
		cfg   gormlogger.Config
		begin time.Time
		err   error
	}{
		{"silent", gormlogger.Config{LogLevel: gormlogger.Silent}, time.Now(), errors.New("boom")},
		{"not found ignored", gormlogger.Config{LogLevel: gormlogger.Info, IgnoreRecordNotFoundError: true}, time.Now(), gormlogger.ErrRecordNotFound},
		{"slow below warn", gormlogger.Config{LogLevel: gormlogger.Error, SlowThreshold: time.Millisecond}, time.Now().Add(-time.Second), nil},
		{"statement below info", gormlogger.Config{LogLevel: gormlogger.Warn}, time.Now(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGormLogger(tt.cfg)
			called := false
			gl.Trace(context.Background(), tt.begin, func() (string, int64) {
				called = true
				return "SELECT 1", 1
			}, tt.err)

			assert.Zero(t, recorded.Len())
			assert.False(t, called, "the statement is only rendered when logged")
		})
	}
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}
