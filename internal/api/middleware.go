package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/metrics"
)

// authenticate verifies the bearer token and stores its subject as the
// request's user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := identity.ExtractBearer(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := identity.ParseToken(s.secret, token)
		if err != nil {
			logger.Debug("Rejected token", "err", err, "request_id", middleware.GetReqID(r.Context()))
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithUserID(r.Context(), userID)))
	})
}

// observeRequests records request latency by route pattern so that habit IDs
// do not explode label cardinality.
func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}
