package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware gates a route group to the given role allow-list. An empty
// allow-list only requires authentication.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Principal().HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// infoRefreshExempt lists routes still reachable while the post-rollover
// information update is pending.
var infoRefreshExempt = map[string]struct{}{
	"/v1/users/token-refresh": {},
	"/v1/users/me":            {},
	"/v1/owner/info":          {},
	"/v1/academic/current":    {},
}

// requireCurrentInfo blocks callers flagged at login for the mandatory
// owner information update until they submit it.
func requireCurrentInfo(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !claims.MustUpdateInfo {
			return next(ctx)
		}
		if _, ok := infoRefreshExempt[ctx.Path()]; ok {
			return next(ctx)
		}
		return errInfoUpdateRequired
	}
}
