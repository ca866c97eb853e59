package catalog

// VariantDiff classifies the rows of a regenerated variant list against the
// list it replaces
type VariantDiff struct {
	Added    []Variant // rows that did not exist before
	Retained []Variant // rows carried over, in their new form
	Removed  []Variant // previous rows no longer present
}

// HasChanges reports whether any row was added or removed
func (d VariantDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// DiffVariants compares a previous variant list with a new one. Generated
// variants are matched by option combination; manual and default variants,
// which have no combination, are matched by ID.
func DiffVariants(previous, next []Variant) VariantDiff {
	prev := make(map[string]struct{}, len(previous))
	for _, v := range previous {
		if key, ok := identityKey(v); ok {
			prev[key] = struct{}{}
		}
	}
	seen := make(map[string]struct{}, len(next))

	var diff VariantDiff
	for _, v := range next {
		key, ok := identityKey(v)
		if ok {
			seen[key] = struct{}{}
		}
		if _, existed := prev[key]; ok && existed {
			diff.Retained = append(diff.Retained, v)
		} else {
			diff.Added = append(diff.Added, v)
		}
	}
	for _, v := range previous {
		key, ok := identityKey(v)
		if _, kept := seen[key]; ok && kept {
			continue
		}
		diff.Removed = append(diff.Removed, v)
	}
	return diff
}

func identityKey(v Variant) (string, bool) {
	if v.IsGenerated() {
		return "combination:" + v.CombinationKey(), true
	}
	if v.HasID() {
		return "id:" + v.ID.String(), true
	}
	return "", false
}
