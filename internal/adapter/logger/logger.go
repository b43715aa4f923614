package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/metadata"
)

type LoggerAdapter struct {
	log *logrus.Logger
}

// NewLoggerAdapter logs JSON at info level in production and coloured text at debug level elsewhere.
func NewLoggerAdapter(env string) *LoggerAdapter {
	return newLoggerAdapter(env, os.Stdout)
}

func newLoggerAdapter(env string, out io.Writer) *LoggerAdapter {
	log := logrus.New()
	log.SetOutput(out)

	if env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	return &LoggerAdapter{log: log}
}

func (l *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.log.WithFields(logrus.Fields(fields)).Error(msg)
}

func (l *LoggerAdapter) DebugGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withRequest(ctx, fields).Debug(msg)
}

func (l *LoggerAdapter) InfoGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withRequest(ctx, fields).Info(msg)
}

func (l *LoggerAdapter) WarnGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withRequest(ctx, fields).Warn(msg)
}

func (l *LoggerAdapter) ErrorGRPC(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withRequest(ctx, fields).Error(msg)
}

// withRequest adds the caller's x-request-id metadata, when present.
func (l *LoggerAdapter) withRequest(ctx context.Context, fields map[string]interface{}) *logrus.Entry {
	entry := l.log.WithFields(logrus.Fields(fields)).WithField("transport", "grpc")
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 {
			entry = entry.WithField("request_id", ids[0])
		}
	}
	return entry
}
