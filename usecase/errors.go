package usecase

import "errors"

// ErrInvalidInput marks request validation failures raised by use cases
var ErrInvalidInput = errors.New("invalid input")
