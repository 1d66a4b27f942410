package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUnknownVariant      = errors.New("unknown product variant")
	ErrAuthorityImmutable  = errors.New("the central authority cannot be modified here")
)

// VariantError names the product and the rejected variant.
type VariantError struct {
	Product string
	Variant string
	Allowed []string
}

func (e *VariantError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("product %s has no variants, got %q", e.Product, e.Variant)
	}
	return fmt.Sprintf("product %s has no variant %q (allowed: %v)", e.Product, e.Variant, e.Allowed)
}

func (e *VariantError) Unwrap() error { return ErrUnknownVariant }

// IsNotFound returns true for catalog lookup misses.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrParticipantNotFound)
}
