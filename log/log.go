// Package log provides a leveled, globally initialized logger used across
// the module. Output can be "stdout", "stderr" or a file path. An optional
// io.Writer receives a copy of every warning and error line.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

// logTestWriterName is a reserved output name that routes log lines to
// logTestWriter, used by tests and benchmarks.
const logTestWriterName = "logtest"

var (
	log         *zap.SugaredLogger
	level       string
	errorWriter io.Writer
	errorMu     sync.Mutex

	logTestWriter io.Writer
)

func init() {
	// Always initialize so logging before Init never panics. $LOG_LEVEL
	// allows raising verbosity globally, also for tests.
	lvl := LogLevelError
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		lvl = s
	}
	Init(lvl, "stderr", nil)
}

// Init initializes the global logger with the given level and output.
// If errorOutput is not nil, warning and error messages are copied to it.
func Init(logLevel, output string, errorOutput io.Writer) {
	var w zapcore.WriteSyncer
	switch output {
	case "stdout":
		w = zapcore.AddSync(os.Stdout)
	case "stderr":
		w = zapcore.AddSync(os.Stderr)
	case logTestWriterName:
		w = zapcore.AddSync(zapcore.AddSync(writerFunc(func(p []byte) (int, error) {
			if logTestWriter == nil {
				return len(p), nil
			}
			return logTestWriter.Write(p)
		})))
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		w = zapcore.AddSync(f)
	}
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalColorLevelEncoder,
		EncodeTime: func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
			encoder.AppendString(ts.Local().Format(time.RFC3339))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), w, levelFromString(logLevel))
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	log = logger.Sugar()
	level = logLevel
	errorWriter = errorOutput
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// Logger returns the underlying zap sugared logger.
func Logger() *zap.SugaredLogger { return log }

// Level returns the level the logger was initialized with.
func Level() string { return level }

func levelFromString(logLevel string) zapcore.Level {
	switch logLevel {
	case LogLevelDebug:
		return zap.DebugLevel
	case LogLevelInfo:
		return zap.InfoLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	case LogLevelFatal:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func copyError(msg string) {
	if errorWriter == nil {
		return
	}
	errorMu.Lock()
	defer errorMu.Unlock()
	// Ignore the write error, we are logging errors anyway.
	fmt.Fprintf(errorWriter, "[%s] %s\n", time.Now().Format(time.RFC3339), msg)
}

// Debug sends a debug level log message.
func Debug(args ...any) { log.Debug(args...) }

// Info sends an info level log message.
func Info(args ...any) { log.Info(args...) }

// Warn sends a warn level log message.
func Warn(args ...any) {
	log.Warn(args...)
	copyError(fmt.Sprint(args...))
}

// Error sends an error level log message.
func Error(args ...any) {
	log.Error(args...)
	copyError(fmt.Sprint(args...))
}

// Fatal sends a fatal level log message and exits.
func Fatal(args ...any) {
	log.Fatal(args...)
	// Fatal always exits the program; help static analyzers see that.
	panic("unreachable")
}

// Debugf sends a formatted debug level log message.
func Debugf(template string, args ...any) { log.Debugf(template, args...) }

// Infof sends a formatted info level log message.
func Infof(template string, args ...any) { log.Infof(template, args...) }

// Warnf sends a formatted warn level log message.
func Warnf(template string, args ...any) {
	log.Warnf(template, args...)
	copyError(fmt.Sprintf(template, args...))
}

// Errorf sends a formatted error level log message.
func Errorf(template string, args ...any) {
	log.Errorf(template, args...)
	copyError(fmt.Sprintf(template, args...))
}

// Fatalf sends a formatted fatal level log message and exits.
func Fatalf(template string, args ...any) {
	log.Fatalf(template, args...)
	panic("unreachable")
}

// Debugw sends a key-value formatted debug level log message.
func Debugw(msg string, keysAndValues ...any) { log.Debugw(msg, keysAndValues...) }

// Infow sends a key-value formatted info level log message.
func Infow(msg string, keysAndValues ...any) { log.Infow(msg, keysAndValues...) }

// Warnw sends a key-value formatted warn level log message.
func Warnw(msg string, keysAndValues ...any) {
	log.Warnw(msg, keysAndValues...)
	copyError(msg)
}

// Errorw sends an error with an attached message at error level.
func Errorw(err error, msg string) {
	log.Errorw(msg, "error", err)
	copyError(fmt.Sprintf("%s: %v", msg, err))
}
