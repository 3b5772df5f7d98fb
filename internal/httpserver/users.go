package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videotube/internal/media"
	"github.com/Skotchmaster/videotube/internal/middleware"
	"github.com/Skotchmaster/videotube/internal/models"
	"github.com/Skotchmaster/videotube/internal/service"
	"github.com/Skotchmaster/videotube/internal/transport"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

type UsersHTTP struct {
	Sessions *service.SessionService
	Profiles *service.ProfileService
}

func (h *UsersHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_register")

	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		l.Warn("register_error", "status", 400, "reason", "cannot read avatar", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid avatar file")
	}
	defer closeAvatar()

	cover, closeCover, err := formFile(c, "coverImage")
	if err != nil {
		l.Warn("register_error", "status", 400, "reason", "cannot read cover image", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cover image file")
	}
	defer closeCover()

	user, err := h.Sessions.Register(ctx, service.RegisterInput{
		FullName:   c.FormValue("fullName"),
		Username:   c.FormValue("username"),
		Email:      c.FormValue("email"),
		Password:   c.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, transport.NewResponse(http.StatusCreated,
		transport.NewUserResponse(user), "user registered successfully"))
}

func (h *UsersHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	setAuthCookies(c, res.TokenPair)
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, transport.SessionResponse{
		User:         transport.NewUserResponse(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, "user logged in successfully"))
}

func (h *UsersHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var presented string
	if cookie, err := c.Cookie(transport.RefreshCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	res, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		return httpError(err)
	}

	setAuthCookies(c, res.TokenPair)
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, transport.TokensResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, "access token refreshed"))
}

func (h *UsersHTTP) Logout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.Sessions.Logout(c.Request().Context(), user); err != nil {
		return httpError(err)
	}

	c.SetCookie(transport.DeleteCookie(transport.AccessCookie, "/"))
	c.SetCookie(transport.DeleteCookie(transport.RefreshCookie, "/"))
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, echo.Map{}, "user logged out"))
}

func (h *UsersHTTP) ChangePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Sessions.ChangePassword(c.Request().Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, echo.Map{}, "password changed successfully"))
}

func (h *UsersHTTP) CurrentUser(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	fresh, err := h.Sessions.CurrentUser(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK,
		transport.NewUserResponse(fresh), "current user fetched successfully"))
}

func (h *UsersHTTP) UpdateAccount(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Profiles.UpdateAccountDetails(c.Request().Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK,
		transport.NewUserResponse(updated), "account details updated successfully"))
}

func (h *UsersHTTP) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.Profiles.UpdateAvatar, "avatar updated successfully")
}

func (h *UsersHTTP) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.Profiles.UpdateCoverImage, "cover image updated successfully")
}

type imageUpdater func(ctx context.Context, userID uuid.UUID, file *media.File) (*models.User, error)

func (h *UsersHTTP) updateImage(c echo.Context, field string, update imageUpdater, okMsg string) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	file, closeFile, err := formFile(c, field)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid "+field+" file")
	}
	defer closeFile()

	updated, err := update(c.Request().Context(), user.ID, file)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, transport.NewUserResponse(updated), okMsg))
}

func (h *UsersHTTP) ChannelProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.Profiles.GetChannelProfile(c.Request().Context(), user.ID, c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, profile, "user channel fetched successfully"))
}

func (h *UsersHTTP) Search(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Profiles.SearchChannels(c.Request().Context(), c.QueryParam("q"), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, transport.NewResponse(http.StatusOK, res, "channels fetched successfully"))
}

func currentUser(c echo.Context) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
	}
	return user, nil
}

func setAuthCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(transport.CreateCookie(transport.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(transport.CreateCookie(transport.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
}

// formFile returns a nil file when the field is absent.
func formFile(c echo.Context, field string) (*media.File, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Reader:      f,
	}, func() { _ = f.Close() }, nil
}
