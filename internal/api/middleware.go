package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/neexbeast/vacation-planner/internal/observability"
	"github.com/neexbeast/vacation-planner/internal/session"
	"github.com/neexbeast/vacation-planner/internal/vacation"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// RequestLog logs one line per request and records HTTP metrics under the
// matched chi route pattern.
func RequestLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			dur := time.Since(start)
			route := routePattern(r)
			observability.ObserveHTTP(route, r.Method, sw.Status(), dur)
			log.Info("http request",
				"route", route,
				"method", r.Method,
				"status", sw.Status(),
				"duration_ms", dur.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// routePattern keeps metric label cardinality bounded: unmatched paths share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type callerKey struct{}

// Identity resolves the session cookie to a caller and stores it on the
// request context. Lookup failures are logged and the request proceeds anonymously.
func Identity(resolver CallerResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := resolver.Caller(r.Context(), cookie.Value)
			if err != nil {
				log.Warn("session lookup failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if caller != nil {
				r = r.WithContext(context.WithValue(r.Context(), callerKey{}, caller))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CallerFrom returns the caller stored by Identity, or nil.
func CallerFrom(ctx context.Context) *vacation.Caller {
	caller, _ := ctx.Value(callerKey{}).(*vacation.Caller)
	return caller
}
