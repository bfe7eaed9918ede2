package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/stallkit/stall/web"
)

// AccessLogger logs one structured line per dispatched request.
type AccessLogger struct {
	Logger *zap.Logger
}

// NewAccessLogger creates the access-log middleware.
func NewAccessLogger(logger *zap.Logger) *AccessLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessLogger{Logger: logger}
}

// Handle implements web.Middleware.
func (l *AccessLogger) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	start := time.Now()

	resp, err := next()

	fields := []zap.Field{
		zap.String("method", req.Method()),
		zap.String("path", req.Path()),
		zap.String("remote", req.RealIP()),
		zap.Duration("latency", time.Since(start)),
	}
	if id := RequestIDFrom(req); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	switch {
	case err != nil:
		l.Logger.Error("request failed", append(fields, zap.Error(err))...)
	case resp != nil && resp.Status >= 500:
		l.Logger.Error("request", append(fields, zap.Int("status", resp.Status))...)
	case resp != nil:
		l.Logger.Info("request", append(fields, zap.Int("status", resp.Status))...)
	default:
		l.Logger.Info("request", fields...)
	}

	return resp, err
}
