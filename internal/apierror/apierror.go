package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Code identifies the error class carried on the wire
type Code string

const (
	CodeBadRequest    Code = "bad_request"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeUnprocessable Code = "unprocessable_entity"
	CodeInternal      Code = "internal_server_error"
)

// internalMessage is returned for every internal error. The underlying cause
// is logged server side, never sent to the client.
const internalMessage = "An internal server error occurred. Please contact support if the problem persists."

// APIError is an error the HTTP layer renders as a structured envelope
type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to its HTTP status code
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// New creates an APIError with the given code and message
func New(code Code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// BadRequest creates a bad_request error
func BadRequest(message string) *APIError {
	return New(CodeBadRequest, message)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *APIError {
	return New(CodeUnauthorized, message)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *APIError {
	return New(CodeForbidden, message)
}

// NotFound creates a not_found error
func NotFound(message string) *APIError {
	return New(CodeNotFound, message)
}

// Conflict creates a conflict error
func Conflict(message string) *APIError {
	return New(CodeConflict, message)
}

// Unprocessable creates an unprocessable_entity error
func Unprocessable(message string) *APIError {
	return New(CodeUnprocessable, message)
}

// Internal creates an internal_server_error with the generic client-facing
// message
func Internal() *APIError {
	return New(CodeInternal, internalMessage)
}

// envelope is the wire shape for error responses
type envelope struct {
	Error *APIError `json:"error"`
}

// Respond writes the error as a structured envelope on the echo context.
// Errors that are not APIErrors are rendered as the generic internal error.
func Respond(c echo.Context, err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = Internal()
	}
	return c.JSON(apiErr.HTTPStatus(), envelope{Error: apiErr})
}

// IsCode reports whether the error is an APIError with the given code
func IsCode(err error, code Code) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
