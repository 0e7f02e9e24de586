// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services only read, so service
// packages never depend on net/http.
package requestcontext

import (
	"context"
	"slices"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	principalKey   struct{}
)

// Principal is the caller identity attached to a request. It deliberately
// carries only what transition permission checks need: a named-permission
// lookup and an admin flag.
type Principal struct {
	ID          string
	Permissions []string
	Admin       bool
}

// HasPermission reports whether the principal holds the named permission.
func (p *Principal) HasPermission(name string) bool {
	return slices.Contains(p.Permissions, name)
}

// IsAdmin reports whether the principal is flagged as an administrator.
func (p *Principal) IsAdmin() bool {
	return p.Admin
}

// RequestID retrieves the correlation ID for the current request, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request time if one was injected, else time.Now().
// Tests inject a fixed time with WithTime to keep assertions deterministic.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// GetPrincipal retrieves the caller principal, or nil when unauthenticated.
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal injects a caller principal into the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}
