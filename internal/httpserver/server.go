package httpserver

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/videotube/pkg/middleware/logging"
)

type Options struct {
	BodyLimit    string
	AllowOrigins []string
}

// Common is the middleware stack every route runs behind.
func Common(base *slog.Logger, opts Options) []echo.MiddlewareFunc {
	mws := []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(base, "/health"),
		ecM.Secure(),
	}
	if opts.BodyLimit != "" {
		mws = append(mws, ecM.BodyLimit(opts.BodyLimit))
	}
	if len(opts.AllowOrigins) > 0 {
		mws = append(mws, ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:     opts.AllowOrigins,
			AllowCredentials: true,
		}))
	}
	return mws
}

func New(base *slog.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Pre(ecM.RemoveTrailingSlash())
	e.Use(Common(base, opts)...)
	return e
}
