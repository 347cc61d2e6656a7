package errs

import (
	"errors"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
