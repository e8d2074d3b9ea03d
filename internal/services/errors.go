package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"authapi/internal/repositories"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")

	ErrDuplicateName    = repositories.ErrDuplicateName
	ErrStoreUnavailable = repositories.ErrStoreUnavailable
)

// ValidationError lists the fields that broke their constraints, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
