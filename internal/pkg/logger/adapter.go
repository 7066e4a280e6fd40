package logger

import (
	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
)

// zapAdapter implements port.Logger on top of a sugared zap logger.
// Args are alternating key/value pairs, as with slog.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps zl so it can be passed to services expecting port.Logger.
func NewZapAdapter(zl *zap.Logger) port.Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &zapAdapter{sugar: zl.Sugar()}
}

func (a *zapAdapter) Info(msg string, args ...any) {
	a.sugar.Infow(msg, args...)
}

func (a *zapAdapter) Debug(msg string, args ...any) {
	a.sugar.Debugw(msg, args...)
}

func (a *zapAdapter) Warn(msg string, args ...any) {
	a.sugar.Warnw(msg, args...)
}

func (a *zapAdapter) Error(msg string, args ...any) {
	a.sugar.Errorw(msg, args...)
}
