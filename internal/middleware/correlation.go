package middleware

import (
	"net/http"

	"github.com/mbuchner/liefertermin/internal/integration"
	"github.com/go-chi/chi/v5/middleware"
)

// CorrelationHeader is honored on inbound requests and echoed on
// responses so callers can join their own logs with the audit trail.
const CorrelationHeader = "X-Correlation-Id"

// Correlation establishes the request's correlation id: an inbound header
// wins, otherwise the chi request id is promoted. The id is fixed for the
// lifetime of the request.
func Correlation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(CorrelationHeader)
			if id == "" {
				id = middleware.GetReqID(r.Context())
			}

			ctx := integration.WithCorrelationID(r.Context(), id)
			w.Header().Set(CorrelationHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
