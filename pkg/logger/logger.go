package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	instance *zap.Logger
	mu       sync.RWMutex
	once     sync.Once
)

// Options tunes the logger built by InitWithOptions
type Options struct {
	Environment string
	Level       string
	Service     string
}

// InitWithOptions initializes the logger once. Later calls are ignored.
func InitWithOptions(opts Options) {
	once.Do(func() {
		var config zap.Config

		switch opts.Environment {
		case "production":
			config = zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		case "development":
			config = zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		default:
			config = zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}

		if opts.Level != "" {
			if lvl, err := zapcore.ParseLevel(opts.Level); err == nil {
				config.Level = zap.NewAtomicLevelAt(lvl)
			}
		}

		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}

		l, err := config.Build()
		if err != nil {
			panic(err)
		}
		if opts.Service != "" {
			l = l.With(zap.String("service", opts.Service))
		}
		SetLogger(l)
	})
}

// SetLogger replaces the process logger, mainly for tests
func SetLogger(l *zap.Logger) {
	mu.Lock()
	instance = l
	mu.Unlock()
}

// GetLogger returns the logger instance
func GetLogger() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l == nil {
		// Default to development if not initialized
		InitWithOptions(Options{Environment: "development"})
		mu.RLock()
		l = instance
		mu.RUnlock()
	}
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if instance != nil {
		_ = instance.Sync()
	}
}

// Close closes the logger
func Close() {
	Sync()
}

// Custom field constructors
func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Float64(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

func Any(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}
