package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext returns a context carrying log. The top of a unit of work (a
// demo run, a request, a test) attaches its scoped logger here so the
// client layers below log with the same fields.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger carried by ctx, or the global logger when
// none was attached.
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return log
	}
	return GetLogger()
}

// FromEcho returns the request-scoped logger set by the middleware, or the
// global logger.
func FromEcho(c echo.Context) *zap.Logger {
	if log, ok := c.Get("logger").(*zap.Logger); ok {
		return log
	}
	return GetLogger()
}
