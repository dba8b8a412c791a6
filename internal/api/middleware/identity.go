package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by Identity.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// HeaderUserID carries the caller id when no JWT secret is configured.
const HeaderUserID = "X-User-ID"

// Identity resolves the caller into a user handle and stores it in the echo
// context. With a secret it verifies an HS256 bearer token and uses its "sub"
// claim; without one it trusts the X-User-ID header set by an upstream gateway.
// No tokens are issued here.
func Identity(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if jwtSecret == "" {
				userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
				if userID == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderUserID+" header")
				}
				c.Set(ContextUserID, userID)
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}

			c.Set(ContextUserID, sub)
			if email, ok := claims["email"].(string); ok {
				c.Set(ContextUserEmail, email)
			}

			return next(c)
		}
	}
}
