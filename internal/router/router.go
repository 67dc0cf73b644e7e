package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"minitasks/docs"
	"minitasks/internal/config"
	"minitasks/internal/errors"
	"minitasks/internal/handler"
	"minitasks/internal/middleware"
	"minitasks/internal/service"
)

// Deps are the collaborators routes are wired to.
type Deps struct {
	AuthService service.AuthService
	AuthHandler *handler.AuthHandler
	TaskHandler *handler.TaskHandler
	Limiter     middleware.Counter
	Log         *slog.Logger
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, deps Deps) {
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler(deps.Log)
	// Client IPs key the rate limiter; forwarding headers count only from trusted proxies.
	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(middleware.Metrics())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	limit := middleware.RateLimit(deps.Limiter, "auth", cfg.AuthRateLimit, cfg.AuthRateWindow, deps.Log)
	public := e.Group("/auth", limit)
	public.POST("/register", deps.AuthHandler.Register)
	public.POST("/login", deps.AuthHandler.Login)

	// Secured routes (require a bearer token)
	requireAuth := middleware.RequireAuth(deps.AuthService)
	e.GET("/auth/me", deps.AuthHandler.Me, requireAuth)

	tasks := e.Group("/tasks", requireAuth)
	tasks.GET("", deps.TaskHandler.List)
	tasks.POST("", deps.TaskHandler.Create)
	tasks.GET("/:id", deps.TaskHandler.Get)
	tasks.PUT("/:id", deps.TaskHandler.Update)
	tasks.DELETE("/:id", deps.TaskHandler.Delete)
}

// errorHandler renders every error as errors.ErrorResponse and logs internal
// causes against the request id.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = errors.ToEchoError(err)
		}
		httpErr := errors.FromEcho(he)

		if httpErr.StatusCode >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"path", c.Path(),
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(httpErr.StatusCode)
		} else {
			err = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if err != nil {
			log.ErrorContext(c.Request().Context(), "write error response", "error", err)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
