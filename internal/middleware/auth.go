package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"minitasks/internal/auth"
	apperrors "minitasks/internal/errors"
	"minitasks/internal/service"
)

// IdentityKey is the echo context key holding the caller's *auth.Identity.
const IdentityKey = "identity"

// RequireAuth rejects requests without a valid bearer token. The raw
// Authorization header is handed to AuthService.Authenticate unchanged so the
// prefix check and verification live in one place.
func RequireAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  IdentityKey,
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, header string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), header)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				return apperrors.ToEchoError(appErr)
			}
			// Header missing entirely.
			return apperrors.ToEchoError(apperrors.ErrTokenRequired)
		},
	})
}

// IdentityFrom returns the identity stored by RequireAuth, or nil.
func IdentityFrom(c echo.Context) *auth.Identity {
	identity, _ := c.Get(IdentityKey).(*auth.Identity)
	return identity
}
