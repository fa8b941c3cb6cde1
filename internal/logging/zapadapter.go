package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger returns a *zap.Logger whose entries are written through
// logger. It is what hands the service logger to components that speak
// zap, such as the search engines.
func NewZapLogger(logger *Logger) *zap.Logger {
	return zap.New(&zapCore{logger: logger})
}

// zapCore adapts Logger to zapcore.Core.
type zapCore struct {
	logger *Logger
}

func levelOf(zl zapcore.Level) Level {
	switch {
	case zl <= zapcore.DebugLevel:
		return DebugLevel
	case zl == zapcore.InfoLevel:
		return InfoLevel
	case zl == zapcore.WarnLevel:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (c *zapCore) Enabled(zl zapcore.Level) bool {
	return c.logger.Enabled(levelOf(zl))
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &zapCore{logger: c.logger.WithFields(enc.Fields)}
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	c.logger.log(levelOf(ent.Level), ent.Message, enc.Fields)
	return nil
}

func (c *zapCore) Sync() error { return nil }
