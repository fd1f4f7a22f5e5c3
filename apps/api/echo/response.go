package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type (
	// Response is the envelope of every successful API response.
	Response struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Data    interface{} `json:"data,omitempty"`
	}

	// ErrorResponse is the envelope of every failed API response.
	ErrorResponse struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Errors  interface{} `json:"errors,omitempty"`
	}
)

func success(ctx echo.Context, message string, data ...interface{}) error {
	return successWithCode(ctx, http.StatusOK, message, data...)
}

func created(ctx echo.Context, message string, data interface{}) error {
	return successWithCode(ctx, http.StatusCreated, message, data)
}

func successWithCode(ctx echo.Context, code int, message string, data ...interface{}) error {
	res := Response{Success: true, Message: message}
	if len(data) > 0 {
		res.Data = data[0]
	}
	return ctx.JSON(code, res)
}

// pathID returns the `name` path param. Anything but a UUID cannot match a record.
func pathID(ctx echo.Context, name string) (string, error) {
	id := ctx.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", errHttpNotFound
	}
	return id, nil
}
