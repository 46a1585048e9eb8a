package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugLogPathEnv overrides where the debug trace file is written.
const DebugLogPathEnv = "CQLSCHEMA_DEBUG_LOG_PATH"

var (
	debugEnabled bool
	debugMutex   sync.RWMutex
	fileLogger   = zap.NewNop()
)

// New returns the logger handed to describers and the catalog loader.
// It writes human readable lines to stderr: warnings and above normally,
// everything when debug is set.
func New(debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = !debug
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// SetDebugEnabled enables or disables the debug trace file
func SetDebugEnabled(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugEnabled = enabled
	_ = fileLogger.Sync()
	fileLogger = zap.NewNop()
	if enabled {
		if l, err := newFileLogger(DebugLogPath()); err == nil {
			fileLogger = l
		}
	}
}

// IsDebugEnabled returns whether the debug trace file is enabled
func IsDebugEnabled() bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()
	return debugEnabled
}

// DebugLogPath returns the trace file location.
func DebugLogPath() string {
	if p := os.Getenv(DebugLogPathEnv); p != "" {
		return p
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, "cqlschema_debug.log")
}

func newFileLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.Sampling = nil
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// DebugfToFile logs formatted debug messages to the trace file
func DebugfToFile(context string, format string, args ...interface{}) {
	debugMutex.RLock()
	defer debugMutex.RUnlock()
	if !debugEnabled {
		return
	}
	fileLogger.Debug(fmt.Sprintf(format, args...), zap.String("context", context))
}
