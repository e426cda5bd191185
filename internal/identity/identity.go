// Package identity resolves the principal that owns a request. Provisioning
// and verification of identities happen upstream; this service only reads
// the principal the gateway forwards.
package identity

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
)

// Anonymous is the principal used when no identity is present.
const Anonymous = "anonymous"

// Header carries the principal forwarded by the gateway.
const Header = "X-Principal"

type ctxKey struct{}

// WithPrincipal stores principal on ctx.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, ctxKey{}, principal)
}

// Principal returns the principal stored on ctx or Anonymous.
func Principal(ctx context.Context) string {
	if p, ok := ctx.Value(ctxKey{}).(string); ok && p != "" {
		return p
	}
	return Anonymous
}

// Middleware copies the principal header onto the request context.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := strings.TrimSpace(c.Request().Header.Get(Header))
			if principal == "" {
				principal = Anonymous
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithPrincipal(req.Context(), principal)))
			return next(c)
		}
	}
}
