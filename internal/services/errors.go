package services

import "errors"

// ErrValidation indicates the caller supplied malformed input to a
// write. Nothing is persisted when it is returned.
var ErrValidation = errors.New("invalid input")
