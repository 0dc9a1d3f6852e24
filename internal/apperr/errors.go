package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidImage       = errors.New("invalid image")
	ErrInvalidAnnotations = errors.New("invalid annotations")
)
