package catalog

import (
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// DefaultMaxCombinations is the combination ceiling used when none is configured
const DefaultMaxCombinations = 1000

// BaseProduct is the product identity a variant matrix is derived from
type BaseProduct struct {
	Name  string
	SKU   string
	Price valueobject.Money
}

// VariantMatrixBuilder expands attribute selections into variant records.
// It holds configuration only and is safe for concurrent use.
type VariantMatrixBuilder struct {
	maxCombinations int
}

// BuilderOption configures a VariantMatrixBuilder
type BuilderOption func(*VariantMatrixBuilder)

// WithMaxCombinations caps the number of variants one generation may produce.
// Zero or a negative value disables the cap.
func WithMaxCombinations(limit int) BuilderOption {
	return func(b *VariantMatrixBuilder) {
		b.maxCombinations = limit
	}
}

// NewVariantMatrixBuilder creates a builder
func NewVariantMatrixBuilder(opts ...BuilderOption) *VariantMatrixBuilder {
	b := &VariantMatrixBuilder{maxCombinations: DefaultMaxCombinations}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Generate computes the cartesian product of the attributes' options, in the
// order attributes and options are supplied, and returns one variant per
// combination.
//
// Existing variants are matched by option combination, never by position:
// a match keeps its ID, prices, stock, image and active flag, while SKU and
// name are re-derived. Existing combinations that can no longer be produced
// are dropped. Attributes without options contribute no dimension; with no
// dimension at all the result is empty, meaning a simple product. Two
// combinations whose slugged values join into the same SKU fail with a
// SKUCollisionError.
//
// Inputs are not modified.
func (b *VariantMatrixBuilder) Generate(base BaseProduct, attributes []Attribute, existing []Variant) ([]Variant, error) {
	if err := ValidateAttributes(attributes); err != nil {
		return nil, err
	}

	dims := make([]Attribute, 0, len(attributes))
	for _, a := range attributes {
		if a.HasOptions() {
			dims = append(dims, a)
		}
	}
	if len(dims) == 0 {
		return []Variant{}, nil
	}

	total, err := b.countCombinations(dims)
	if err != nil {
		return nil, err
	}

	previous := make(map[string]Variant, len(existing))
	for _, v := range existing {
		if !v.IsGenerated() {
			continue
		}
		key := v.CombinationKey()
		if _, seen := previous[key]; !seen {
			previous[key] = v
		}
	}

	out := make([]Variant, 0, total)
	bySKU := make(map[string]int, total)
	cursor := make([]int, len(dims))
	for {
		v := buildVariant(base, dims, cursor, previous)
		if first, taken := bySKU[v.SKU]; taken {
			return nil, newSKUCollisionError(dims, v.SKU, out[first].Attributes, v.Attributes)
		}
		bySKU[v.SKU] = len(out)
		out = append(out, v)

		// Advance like an odometer; the last attribute varies fastest.
		i := len(cursor) - 1
		for ; i >= 0; i-- {
			cursor[i]++
			if cursor[i] < len(dims[i].Options) {
				break
			}
			cursor[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return out, nil
}

func (b *VariantMatrixBuilder) countCombinations(dims []Attribute) (int, error) {
	total := 1
	for _, d := range dims {
		n := len(d.Options)
		if b.maxCombinations > 0 && total > b.maxCombinations/n {
			return 0, &TooManyCombinationsError{Limit: b.maxCombinations}
		}
		total *= n
	}
	return total, nil
}

func buildVariant(base BaseProduct, dims []Attribute, cursor []int, previous map[string]Variant) Variant {
	attrs := make(map[string]string, len(dims))
	values := make([]string, len(dims))
	for i, d := range dims {
		value := d.Options[cursor[i]].Value
		attrs[d.Name] = value
		values[i] = value
	}

	var v Variant
	if prev, ok := previous[combinationKey(attrs)]; ok {
		v = prev.Clone()
		v.IsDefault = false
	} else {
		v = Variant{
			Price:    base.Price,
			IsActive: true,
		}
	}
	v.Attributes = attrs
	v.SKU = DeriveSKU(base.SKU, values)
	v.Name = DeriveVariantName(values)
	return v
}
