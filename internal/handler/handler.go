package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "minitasks/internal/errors"
)

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.ToEchoError(apperrors.InvalidArgument("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ToEchoError(apperrors.InvalidArgument(validationMessage(err)))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return strings.ToLower(fe.Field()) + " is required"
	case "max":
		return strings.ToLower(fe.Field()) + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return strings.ToLower(fe.Field()) + " must be one of: " + fe.Param()
	default:
		return strings.ToLower(fe.Field()) + " is invalid"
	}
}
