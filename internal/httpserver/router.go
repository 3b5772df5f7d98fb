package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videotube/internal/middleware"
)

type Deps struct {
	Users *UsersHTTP
	Auth  middleware.Authenticator
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	users := e.Group("/api/v1/users")

	users.POST("/register", d.Users.Register)
	users.POST("/login", d.Users.Login)
	users.POST("/refresh-token", d.Users.Refresh)
	users.GET("/search", d.Users.Search)

	// Guarded per route: a Use on a prefix group would also answer unknown paths with 401.
	auth := middleware.RequireAuth(d.Auth)

	users.POST("/logout", d.Users.Logout, auth)
	users.POST("/change-password", d.Users.ChangePassword, auth)
	users.GET("/current-user", d.Users.CurrentUser, auth)
	users.PATCH("/update-account", d.Users.UpdateAccount, auth)
	users.PATCH("/avatar", d.Users.UpdateAvatar, auth)
	users.PATCH("/cover-image", d.Users.UpdateCoverImage, auth)
	users.GET("/c/:username", d.Users.ChannelProfile, auth)
}
