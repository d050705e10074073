package cpf

// Rewrite moves the stored value at Index to its canonical form.
type Rewrite struct {
	Index int
	From  string
	To    string
}

// PlanCanonical decides which stored values are rewritten to canonical form.
// stored is ordered by priority: when two digits-only values share a number,
// the first one wins. A value whose canonical form is already held by another
// entry, or claimed by an earlier rewrite, is reported in conflicts and left
// as is. Empty, canonical and non 11-digit values are ignored.
func PlanCanonical(stored []string) (rewrites []Rewrite, conflicts []string) {
	owner := make(map[string]int, len(stored))
	for i, v := range stored {
		if v != "" {
			if _, ok := owner[v]; !ok {
				owner[v] = i
			}
		}
	}
	for i, v := range stored {
		digits := Normalize(v)
		if len(digits) != Length {
			continue
		}
		canonical := Format(digits)
		if canonical == v {
			continue
		}
		if j, taken := owner[canonical]; taken && j != i {
			conflicts = append(conflicts, v)
			continue
		}
		owner[canonical] = i
		rewrites = append(rewrites, Rewrite{Index: i, From: v, To: canonical})
	}
	return rewrites, conflicts
}
