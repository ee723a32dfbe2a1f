// Package textmatch provides the text canonicalization and string-similarity
// scoring used by the record matcher. The scoring is deliberately coarse; the
// matcher's thresholds are calibrated against it.
package textmatch

import "strings"

// Normalize lowercases, trims, and collapses runs of whitespace to a single
// space. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity returns a bounded score in [0,1] for two strings:
//
//	1.0 — both normalize to the same non-empty string
//	0.0 — either normalizes to empty
//	0.9 — one normalized string contains the other as a substring
//	else — word-overlap ratio |A ∩ B| / max(|A|, |B|)
//
// The containment shortcut is coarse but intentional: downstream thresholds
// depend on substring matches scoring just below exact matches.
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)

	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}

	wa := wordSet(na)
	wb := wordSet(nb)
	if len(wa) == 0 || len(wb) == 0 {
		return 0.0
	}

	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}

	max := len(wa)
	if len(wb) > max {
		max = len(wb)
	}
	return float64(shared) / float64(max)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
