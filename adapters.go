package redisconn

import (
	"go.uber.org/zap"
)

// zapLogger adapts a zap.Logger to the Logger interface
type zapLogger struct {
	log *zap.Logger
}

// NewZapLogger wraps a zap logger so it can drive the connector's
// structured logging
//
// Example:
//
//	z, _ := zap.NewProduction()
//	connector, err := redisconn.NewConnector(connOpts, behaviorOpts,
//	    redisconn.WithLogger(redisconn.NewZapLogger(z)))
func NewZapLogger(log *zap.Logger) Logger {
	return &zapLogger{log: log}
}

func (z *zapLogger) Debug(msg string, fields ...Field) {
	z.log.Debug(msg, convertZapFields(fields)...)
}

func (z *zapLogger) Info(msg string, fields ...Field) {
	z.log.Info(msg, convertZapFields(fields)...)
}

func (z *zapLogger) Error(msg string, fields ...Field) {
	z.log.Error(msg, convertZapFields(fields)...)
}

func convertZapFields(fields []Field) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		result = append(result, zap.Any(field.Key, field.Value))
	}
	return result
}
