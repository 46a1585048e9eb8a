package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDebugfToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	t.Setenv(DebugLogPathEnv, path)

	DebugfToFile("Config", "ignored while disabled")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	SetDebugEnabled(true)
	t.Cleanup(func() { SetDebugEnabled(false) })
	require.True(t, IsDebugEnabled())

	DebugfToFile("Loader", "loaded %d user types", 3)
	SetDebugEnabled(false)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "loaded 3 user types")
	assert.Contains(t, string(data), "Loader")
	assert.NotContains(t, string(data), "ignored while disabled")
}

func TestDebugLogPathDefault(t *testing.T) {
	t.Setenv(DebugLogPathEnv, "")
	assert.Equal(t, "cqlschema_debug.log", filepath.Base(DebugLogPath()))
}

func TestNew(t *testing.T) {
	quiet := New(false)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.WarnLevel))

	verbose := New(true)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
