package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultSkip  = 0
	DefaultLimit = 50
	MaxLimit     = 100
)

var (
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedProcessRequest = "failed to process request"
	MessageInternalServerError  = "internal server error"

	// Error kinds. Feature errors wrap exactly one of these so the HTTP
	// layer can map them to a status code.
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")

	ErrParseUUID = fmt.Errorf("%w: failed to parse UUID", ErrValidation)
)

type (
	Pagination struct {
		Skip  int `json:"skip" query:"skip" validate:"gte=0"`
		Limit int `json:"limit" query:"limit" validate:"gte=1,lte=100"`
	}

	// ValidationError carries per-field failures, keyed by JSON path.
	ValidationError struct {
		Fields map[string]string `json:"fields"`
	}
)

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
