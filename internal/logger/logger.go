package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = logrus.New()
	once   sync.Once
)

type ctxKey struct{}

const RequestIDKey = "request_id"

type Fields = logrus.Fields

type Options struct {
	Level string
	// File enables a rotating log file next to stderr output.
	File   string
	AppEnv string
}

// Init configures the package logger. Only the first call has any effect.
func Init(opts Options) *logrus.Logger {
	once.Do(func() {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        opts.AppEnv == "production",
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if opts.File != "" && opts.AppEnv != "test" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}
		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})
	return logger
}

// SetOutput redirects log output; tests use it to silence or capture logs.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Debug(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Debug(msg)
}

func Info(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Info(msg)
}

func Warn(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Warn(msg)
}

func Error(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Error(msg)
}

func Fatal(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Fatal(msg)
}

func orEmpty(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}

// WithRequestID stores a request id on ctx for FromContext.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns an entry tagged with the request id carried by ctx.
func FromContext(ctx context.Context) *logrus.Entry {
	requestID := "unknown"
	if ctx != nil {
		if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
			requestID = id
		}
	}
	return logger.WithField(RequestIDKey, requestID)
}
