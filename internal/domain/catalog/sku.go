package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SKUSeparator joins the base SKU and option segments
const SKUSeparator = "-"

// Slugify lower-cases a value and replaces internal whitespace runs with a
// hyphen, matching the storefront's URL slug convention
func Slugify(value string) string {
	lower := cases.Lower(language.Und).String(strings.TrimSpace(value))
	return strings.Join(strings.Fields(lower), SKUSeparator)
}

// DeriveSKU builds a variant SKU from the base SKU and option values in
// attribute order: "TEE" + ["Navy Blue", "XL"] -> "TEE-navy-blue-xl"
func DeriveSKU(baseSKU string, values []string) string {
	var b strings.Builder
	b.WriteString(baseSKU)
	for _, v := range values {
		b.WriteString(SKUSeparator)
		b.WriteString(Slugify(v))
	}
	return b.String()
}

// DeriveVariantName joins option values for display: "Red - Small"
func DeriveVariantName(values []string) string {
	return strings.Join(values, " - ")
}
