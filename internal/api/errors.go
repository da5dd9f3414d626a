package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ApiError is the JSON body of every failed HTTP request.
type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// statusError builds an error whose message is the lower-cased status text.
func statusError(code int, err error) *ApiError {
	return &ApiError{
		StatusCode: code,
		Message:    strings.ToLower(http.StatusText(code)),
		Err:        err,
	}
}

func NewBadRequestError() *ApiError {
	return statusError(http.StatusBadRequest, nil)
}

// NewValidationError is a bad request whose message tells the caller what to fix.
func NewValidationError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    err.Error(),
		Err:        err,
	}
}

func NewForbiddenError() *ApiError {
	return statusError(http.StatusForbidden, nil)
}

func NewNotFoundError() *ApiError {
	return statusError(http.StatusNotFound, nil)
}

func NewInternalServerError(err error) *ApiError {
	return statusError(http.StatusInternalServerError, err)
}
