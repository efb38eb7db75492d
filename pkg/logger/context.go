package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the correlation id assigned by the
// request-id middleware.
const RequestIDHeader = "X-Request-ID"

// FromContext returns the request-scoped logger the request-id middleware put
// in the echo context. Without the middleware mounted it falls back to the
// global logger tagged with whatever request id the client sent, so catalog
// operations stay correlatable either way.
func FromContext(c echo.Context) *zap.Logger {
	if log, ok := c.Get("logger").(*zap.Logger); ok {
		return log
	}

	requestID, ok := c.Get("request_id").(string)
	if !ok || requestID == "" {
		requestID = c.Request().Header.Get(RequestIDHeader)
	}
	if requestID == "" {
		requestID = "untracked"
	}
	return GetLogger().With(zap.String("request_id", requestID))
}
