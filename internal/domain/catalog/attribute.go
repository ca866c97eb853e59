package catalog

import (
	"strings"
)

// AttributeOption is one selectable value of an attribute, e.g. "Red" or "Large"
type AttributeOption struct {
	Value string `json:"value"`
}

// Attribute is a named dimension of product differentiation (e.g. Color)
// with an ordered list of option values. Name is the join key used in
// Variant.Attributes.
type Attribute struct {
	Name    string            `json:"name"`
	Options []AttributeOption `json:"options"`
}

// NewAttribute creates an attribute from a name and option values, validating
// that the name is set and option values are non-empty and unambiguous
func NewAttribute(name string, values ...string) (Attribute, error) {
	attr := Attribute{Name: name, Options: make([]AttributeOption, 0, len(values))}
	for _, v := range values {
		attr.Options = append(attr.Options, AttributeOption{Value: v})
	}
	if err := attr.Validate(); err != nil {
		return Attribute{}, err
	}
	return attr, nil
}

// MustAttribute is like NewAttribute but panics on invalid input.
// Intended for tests and fixed catalogs.
func MustAttribute(name string, values ...string) Attribute {
	attr, err := NewAttribute(name, values...)
	if err != nil {
		panic(err)
	}
	return attr
}

// Values returns the option values in listed order
func (a Attribute) Values() []string {
	values := make([]string, len(a.Options))
	for i, o := range a.Options {
		values[i] = o.Value
	}
	return values
}

// HasOptions reports whether the attribute contributes a dimension to the matrix
func (a Attribute) HasOptions() bool {
	return len(a.Options) > 0
}

// Validate checks the attribute on its own. Two options are duplicates when
// they derive the same SKU segment, so "Dark Red" and "dark  red" collide.
func (a Attribute) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidAttribute
	}
	seen := make(map[string]struct{}, len(a.Options))
	for _, o := range a.Options {
		if strings.TrimSpace(o.Value) == "" {
			return &EmptyOptionError{Attribute: a.Name}
		}
		slug := Slugify(o.Value)
		if _, dup := seen[slug]; dup {
			return &DuplicateOptionError{Attribute: a.Name, Value: o.Value}
		}
		seen[slug] = struct{}{}
	}
	return nil
}

// ValidateAttributes checks every attribute and that no two share a name
func ValidateAttributes(attributes []Attribute) error {
	names := make(map[string]struct{}, len(attributes))
	for _, a := range attributes {
		if _, dup := names[a.Name]; dup {
			return &DuplicateAttributeError{Name: a.Name}
		}
		names[a.Name] = struct{}{}
	}
	for _, a := range attributes {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}
