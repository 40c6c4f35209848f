package common

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions controls where the rotating JSON log lives and how verbose it is.
type LogOptions struct {
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func defaultLogOptions() LogOptions {
	return LogOptions{
		Dir:        "logs",
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
}

var (
	logger *zap.Logger
	once   sync.Once
	mu     sync.RWMutex
)

func getLogger() *zap.Logger {
	InitLogger(defaultLogOptions())
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func GetLogger() *zap.Logger {
	return getLogger().Named("default")
}

func GetLoggerWith(name string, fields ...zap.Field) *zap.Logger {
	return getLogger().Named(name).With(fields...)
}

// InitLogger builds the process logger once. Later calls are no-ops, so the
// server calls it with configured options before anything asks for a logger.
func InitLogger(opts LogOptions) {
	once.Do(func() {
		if opts.Dir == "" {
			opts.Dir = defaultLogOptions().Dir
		}
		if !filepath.IsAbs(opts.Dir) {
			dir, err := os.Getwd()
			if err != nil {
				log.Fatalf("Error getting current directory: %v", err)
			}
			opts.Dir = filepath.Join(dir, opts.Dir)
		}

		if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
			log.Fatalf("Error find/create logs directory: %v", err)
		}

		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "app.log"),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}

		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(logFile),
			level,
		)

		var built *zap.Logger
		if IsProduction() {
			built = zap.New(fileCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		} else {
			consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
			consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)

			combinedCore := zapcore.NewTee(fileCore, consoleCore)
			built = zap.New(combinedCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		}

		mu.Lock()
		logger = built
		mu.Unlock()
	})
}

func SyncLogger() {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		_ = logger.Sync()
	}
}

// SetTestCaptureLogger routes every logger into w as JSON lines. A plain
// *bytes.Buffer is wrapped so concurrent writers do not interleave.
func SetTestCaptureLogger(w io.Writer, level zapcore.Level) {
	_ = getLogger()

	if buf, ok := w.(*bytes.Buffer); ok {
		w = &lockedBuffer{buf: buf}
	}
	writer := zapcore.AddSync(w)
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	core := zapcore.NewCore(encoder, writer, level)

	mu.Lock()
	logger = zap.New(core)
	mu.Unlock()
}

func SetTestLoggerNop() {
	_ = getLogger()

	mu.Lock()
	logger = zap.NewNop()
	mu.Unlock()
}

// lockedBuffer lets background goroutines (poller, bus dispatchers) log into a
// test buffer without racing the test reading it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// LockedBuffer is a capture target that tests can read while background
// goroutines are still logging.
type LockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
