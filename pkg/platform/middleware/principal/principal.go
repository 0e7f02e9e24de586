// Package principal derives a caller principal from trusted gateway headers.
// Real authentication happens upstream; this middleware only materializes the
// already-verified identity for permission-gated transitions.
package principal

import (
	"net/http"
	"strings"

	strutil "syncgate/pkg/platform/strings"
	"syncgate/pkg/requestcontext"
)

const (
	headerUserID      = "X-User-Id"
	headerPermissions = "X-User-Permissions"
	headerAdmin       = "X-User-Admin"
)

// FromHeaders attaches a requestcontext.Principal when identity headers are
// present. Requests without them stay anonymous; permission-gated
// transitions will then deny with a missing-user reason.
func FromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		p := &requestcontext.Principal{
			ID:    userID,
			Admin: r.Header.Get(headerAdmin) == "true",
		}
		if raw := r.Header.Get(headerPermissions); raw != "" {
			p.Permissions = strutil.DedupeAndTrim(strings.Split(raw, ","))
		}

		ctx := requestcontext.WithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
