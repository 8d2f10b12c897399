package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/masomo/dashboard/core/identity"
	"github.com/masomo/dashboard/core/policy"
)

// capabilityMiddleware lets the request through when the stored role of the
// token's user holds c. The role in the token itself is not trusted.
func capabilityMiddleware(svc *identity.Service, c policy.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if policy.Can(usr.Role, c) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
