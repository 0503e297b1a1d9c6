package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/tokens"
)

// accessTokenFrom pulls the access credential from the Authorization header
// or the session cookie, header first.
func accessTokenFrom(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and stores the
// caller's user ID on the context.
func RequireAuth(issuer *tokens.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := accessTokenFrom(c)
			if tokenStr == "" {
				return apperror.New(apperror.Unauthenticated, "authentication required")
			}

			userID, err := issuer.VerifyAccess(tokenStr)
			if err != nil {
				return apperror.New(apperror.Unauthenticated, "invalid or expired access token")
			}

			c.Set("userID", userID)
			return next(c)
		}
	}
}

// OptionalAuth resolves the caller's identity when a valid token is present
// and proceeds anonymously otherwise. Used by reads whose output varies with
// the viewer, like the channel profile's isSubscribed flag.
func OptionalAuth(issuer *tokens.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenStr := accessTokenFrom(c); tokenStr != "" {
				if userID, err := issuer.VerifyAccess(tokenStr); err == nil {
					c.Set("userID", userID)
				}
			}
			return next(c)
		}
	}
}
