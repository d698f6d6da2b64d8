package data

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-kratos/kratos/v2/log"
)

// kratosLoggerAdapter adapts the Kratos logger to Watermill's LoggerAdapter.
type kratosLoggerAdapter struct {
	logger *log.Helper
	fields watermill.LogFields
}

// NewWatermillLogger creates a Watermill logger that writes through logger.
func NewWatermillLogger(logger log.Logger) watermill.LoggerAdapter {
	return &kratosLoggerAdapter{
		logger: log.NewHelper(log.With(logger, "module", "watermill")),
		fields: make(watermill.LogFields),
	}
}

func (l *kratosLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.log(log.LevelError, msg, fields, err)
}

func (l *kratosLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.log(log.LevelInfo, msg, fields, nil)
}

func (l *kratosLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.log(log.LevelDebug, msg, fields, nil)
}

// Trace is folded into debug; kratos has no finer level.
func (l *kratosLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.log(log.LevelDebug, msg, fields, nil)
}

func (l *kratosLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &kratosLoggerAdapter{
		logger: l.logger,
		fields: l.fields.Add(fields),
	}
}

func (l *kratosLoggerAdapter) log(level log.Level, msg string, fields watermill.LogFields, err error) {
	keyvals := make([]interface{}, 0, (len(l.fields)+len(fields))*2+4)
	keyvals = append(keyvals, "msg", msg)
	for k, v := range l.fields {
		keyvals = append(keyvals, k, v)
	}
	for k, v := range fields {
		keyvals = append(keyvals, k, v)
	}
	if err != nil {
		keyvals = append(keyvals, "error", err)
	}
	l.logger.Log(level, keyvals...)
}
