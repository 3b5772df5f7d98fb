// Package middleware holds the echo middleware guarding user routes.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/internal/service"
	"github.com/Skotchmaster/videotube/internal/transport"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

const (
	userKey   = "auth.user"
	UserIDKey = "user_id"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// RequireAuth admits the request only with a valid access token, read from
// the accessToken cookie or an Authorization: Bearer header.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "require_auth")

			token := accessToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
			}

			user, err := a.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, service.ErrInternal) {
					return err
				}
				l.Info("auth_rejected", "status", 401, "error", err)
				c.SetCookie(transport.DeleteCookie(transport.AccessCookie, "/"))
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
			}

			c.Set(userKey, user)
			c.Set(UserIDKey, user.ID.String())
			return next(c)
		}
	}
}

// CurrentUser returns the user admitted by RequireAuth.
func CurrentUser(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(userKey).(*models.User)
	return u, ok && u != nil
}

func accessToken(c echo.Context) string {
	if cookie, err := c.Cookie(transport.AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}
