package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/model"
)

// RequireRole enforces that the authenticated principal carries the given
// role. Role is a closed variant, so the check is an exhaustive match rather
// than a string comparison; a missing or mismatched role yields 401, the
// same signal as a missing credential. It assumes JWTAuth ran earlier in the
// chain.
func RequireRole(required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(model.Role)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			switch role {
			case model.RoleOrganizer, model.RoleAttendee:
				if role != required {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
			default:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}
