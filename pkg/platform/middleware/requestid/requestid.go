// Package requestid assigns a correlation ID to every request so log lines
// and audit events from one sync call can be tied together.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"syncgate/pkg/requestcontext"
)

const headerName = "X-Request-Id"

// RequestID propagates an incoming X-Request-Id or generates a new one, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerName, id)

		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
