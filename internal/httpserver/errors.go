package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/videotube/internal/service"
	"github.com/Skotchmaster/videotube/internal/transport"
	"github.com/Skotchmaster/videotube/pkg/logging"
)

const msgInternal = "internal server error"

func StatusFor(kind error) int {
	switch {
	case errors.Is(kind, service.ErrValidation), errors.Is(kind, service.ErrUpload):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// httpError turns a service failure into the echo error the handler returns.
func httpError(err error) *echo.HTTPError {
	var se *service.Error
	if errors.As(err, &se) {
		return echo.NewHTTPError(StatusFor(se.Kind), se.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal).SetInternal(err)
}

// ErrorHandler renders every error in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := http.StatusInternalServerError, msgInternal
	var se *service.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &se):
		status, msg = StatusFor(se.Kind), se.Error()
	case errors.As(err, &he):
		status = he.Code
		if m, ok := he.Message.(string); ok && status < 500 {
			msg = m
		} else if status < 500 {
			msg = http.StatusText(status)
		}
	}

	if status >= 500 {
		logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, transport.NewResponse(status, nil, msg))
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", err)
	}
}
