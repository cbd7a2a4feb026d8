// Package serviceutils holds the JSON envelope shared by every HTTP handler.
package serviceutils

import (
	"github.com/labstack/echo/v4"
)

// Response is the envelope of every API answer.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ResponseSuccess writes a successful envelope carrying data.
func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ResponseError writes a failed envelope. The error text goes under the
// "_" key so clients always find it in the same place.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := Response{Success: false, Message: message}
	if err != nil {
		resp.Errors = map[string]string{"_": err.Error()}
	}
	return c.JSON(status, resp)
}

// ResponseFieldErrors writes a failed envelope with one message per field.
func ResponseFieldErrors(c echo.Context, status int, message string, fields map[string]string) error {
	return c.JSON(status, Response{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}

// ResponseErrorWithData writes a failed envelope that still carries data,
// e.g. a record that was changed in memory but not persisted.
func ResponseErrorWithData(c echo.Context, status int, message string, data interface{}, err error) error {
	resp := Response{Success: false, Message: message, Data: data}
	if err != nil {
		resp.Errors = map[string]string{"_": err.Error()}
	}
	return c.JSON(status, resp)
}
