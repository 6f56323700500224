package logger

import (
	"context"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger, or a no-op logger outside a request.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Nop()
}

// Middleware logs one entry per request after it completes and makes a
// request scoped logger available through FromContext.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		reqLog := l.With("request_id", chiMiddleware.GetReqID(r.Context()))

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			if status >= http.StatusInternalServerError {
				reqLog.Warn("request completed", fields...)
				return
			}
			reqLog.Info("request completed", fields...)
		}()

		next.ServeHTTP(ww, r.WithContext(WithContext(r.Context(), reqLog)))
	})
}
