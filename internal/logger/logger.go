package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op until Init is called so
// packages can log unconditionally.
var Log = zap.NewNop()

// Init installs a production logger at info level.
func Init() {
	InitWithLevel(false)
}

// InitWithLevel installs a production logger, switching to debug level when
// debug is set. If the logger cannot be built the no-op logger is kept.
func InitWithLevel(debug bool) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	built, err := config.Build()
	if err != nil {
		return
	}
	Log = built
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
