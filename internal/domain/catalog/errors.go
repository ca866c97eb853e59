package catalog

import (
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// Sentinel errors for variant matrix generation and validation.
// The typed errors below unwrap to these, so callers can match with errors.Is
// and read the code with errors.As(*shared.DomainError).
var (
	ErrInvalidAttribute     = shared.NewDomainError("INVALID_ATTRIBUTE", "Attribute name cannot be empty")
	ErrDuplicateAttribute   = shared.NewDomainError("DUPLICATE_ATTRIBUTE", "Attribute names must be unique within a variant matrix")
	ErrEmptyOption          = shared.NewDomainError("EMPTY_OPTION", "Attribute option value cannot be empty")
	ErrDuplicateOption      = shared.NewDomainError("DUPLICATE_OPTION", "Attribute option values must be unique within an attribute")
	ErrTooManyCombinations  = shared.NewDomainError("TOO_MANY_COMBINATIONS", "Attribute selection produces too many variants")
	ErrDuplicateCombination = shared.NewDomainError("DUPLICATE_COMBINATION", "Two variants represent the same option combination")
	ErrDuplicateSKU         = shared.NewDomainError("DUPLICATE_SKU", "Two variants share the same SKU")
)

// DuplicateAttributeError is returned when two attributes share a name
type DuplicateAttributeError struct {
	Name string
}

func (e *DuplicateAttributeError) Error() string {
	return fmt.Sprintf("attribute %q is selected more than once", e.Name)
}

func (e *DuplicateAttributeError) Unwrap() error { return ErrDuplicateAttribute }

// EmptyOptionError is returned when an attribute lists a blank option value
type EmptyOptionError struct {
	Attribute string
}

func (e *EmptyOptionError) Error() string {
	return fmt.Sprintf("attribute %q has an empty option value", e.Attribute)
}

func (e *EmptyOptionError) Unwrap() error { return ErrEmptyOption }

// DuplicateOptionError is returned when two option values of one attribute
// would derive the same SKU segment
type DuplicateOptionError struct {
	Attribute string
	Value     string
}

func (e *DuplicateOptionError) Error() string {
	return fmt.Sprintf("attribute %q lists option %q more than once", e.Attribute, e.Value)
}

func (e *DuplicateOptionError) Unwrap() error { return ErrDuplicateOption }

// TooManyCombinationsError is returned when the cartesian product exceeds the
// builder's configured ceiling
type TooManyCombinationsError struct {
	Limit int
}

func (e *TooManyCombinationsError) Error() string {
	return fmt.Sprintf("attribute selection produces more than %d variants", e.Limit)
}

func (e *TooManyCombinationsError) Unwrap() error { return ErrTooManyCombinations }

// DuplicateCombinationError is returned when a variant list contains the same
// option combination twice
type DuplicateCombinationError struct {
	Combination map[string]string
}

func (e *DuplicateCombinationError) Error() string {
	return fmt.Sprintf("option combination %v appears on more than one variant", e.Combination)
}

func (e *DuplicateCombinationError) Unwrap() error { return ErrDuplicateCombination }

// DuplicateSKUError is returned when a variant list reuses a SKU
type DuplicateSKUError struct {
	SKU string
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("SKU %q is used by more than one variant", e.SKU)
}

func (e *DuplicateSKUError) Unwrap() error { return ErrDuplicateSKU }

// SKUCollisionError is returned when two generated combinations derive the
// same SKU, as with options "a b" + "c" and "a" + "b c". Attributes names the
// dimensions whose values differ between the two combinations.
type SKUCollisionError struct {
	SKU        string
	Attributes []string
	First      map[string]string
	Second     map[string]string
}

func newSKUCollisionError(dims []Attribute, sku string, first, second map[string]string) *SKUCollisionError {
	var names []string
	for _, d := range dims {
		if first[d.Name] != second[d.Name] {
			names = append(names, d.Name)
		}
	}
	return &SKUCollisionError{SKU: sku, Attributes: names, First: first, Second: second}
}

func (e *SKUCollisionError) Error() string {
	return fmt.Sprintf("options of attributes %s derive SKU %q for both %v and %v",
		quoteAll(e.Attributes), e.SKU, e.First, e.Second)
}

func (e *SKUCollisionError) Unwrap() error { return ErrDuplicateSKU }

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
