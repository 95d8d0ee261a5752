package migration

import (
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ migrate.Logger = migrateLogger{}

func TestMigrateLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := migrateLogger{zap.New(core)}

	assert.True(t, l.Verbose())
	l.Printf("Start buffering %d/u %s\n", 1, "init_schema")

	entries := recorded.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "Start buffering 1/u init_schema", entries[0].Message)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	}

	quiet, _ := observer.New(zapcore.InfoLevel)
	assert.False(t, migrateLogger{zap.New(quiet)}.Verbose())
}
