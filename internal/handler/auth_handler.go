package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"minitasks/internal/errors"
	"minitasks/internal/middleware"
	"minitasks/internal/model"
	"minitasks/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"max=255"`
	Password string `json:"password" validate:"max=72"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Registration data"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, toAuthResponse(session))
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, toAuthResponse(session))
}

// Me godoc
// @Summary Current user
// @Description Re-reads the authenticated user; 404 if the account no longer exists.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authService.WhoAmI(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, user.View())
}

func toAuthResponse(s *service.Session) AuthResponse {
	return AuthResponse{Token: s.Token, User: s.User.View()}
}
