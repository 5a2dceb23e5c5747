package domain

import "errors"

var (
	ErrInvalidKey            = errors.New("invalid key")
	ErrInvalidValue          = errors.New("invalid value")
	ErrInvalidMandate        = errors.New("invalid mandate")
	ErrEmptyPatch            = errors.New("empty mandate patch")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrGenerationUnsupported = errors.New("operation not supported by schema generation")
)
