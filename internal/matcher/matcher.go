// Package matcher searches a resolved reference set for the best candidate
// per line item and classifies the outcome.
package matcher

import (
	"veridoc/internal/domain"
	"veridoc/internal/textmatch"
)

// candidate tracks the best reference record seen so far. Priority is
// lexicographic: higher name score wins, ties broken by higher address score.
type candidate struct {
	record    *domain.ReferenceRecord
	nameScore float64
	addrScore float64
}

func (c *candidate) beats(other *candidate) bool {
	if other == nil {
		return true
	}
	if c.nameScore != other.nameScore {
		return c.nameScore > other.nameScore
	}
	return c.addrScore > other.addrScore
}

// Match scores one line item against the full reference set and classifies
// the best candidate under the given policy. O(len(refs)) per call; refs is
// read-only and safe to share across items.
func Match(item domain.LineItem, refs []domain.ReferenceRecord, policy domain.PolicyParams) domain.MatchResult {
	result := domain.MatchResult{
		MismatchReason: domain.MismatchName,
		FieldResults:   []domain.FieldResult{},
		SignaturePresent: domain.SignaturePresence{
			Present:  item.SignaturePresent.Value,
			RawValue: item.SignaturePresent.Raw,
		},
	}

	var best *candidate
	for i := range refs {
		ref := &refs[i]
		name := ref.NormalizedName
		if name == "" {
			name = ref.Name
		}
		nameScore := textmatch.Similarity(item.Name, name)
		if nameScore < policy.Partial {
			continue
		}
		addrScore := (textmatch.Similarity(item.Address, ref.Address) +
			textmatch.Similarity(item.City, ref.City) +
			textmatch.Similarity(item.Zip, ref.Zip)) / 3.0

		c := &candidate{record: ref, nameScore: nameScore, addrScore: addrScore}
		if c.beats(best) {
			best = c
		}
	}

	if best == nil {
		return result
	}

	// Per-field comparison always runs against the best candidate, whatever
	// the overall classification turns out to be.
	result.FieldResults = fieldResults(item, best.record, policy.Field)

	switch {
	case best.nameScore >= policy.FoundName && best.addrScore >= policy.FoundAddress:
		result.Found = true
		result.MatchScore = (best.nameScore + best.addrScore) / 2.0
		result.MismatchReason = domain.MismatchNone
		result.BestMatch = best.record
	case best.nameScore >= policy.Partial:
		result.PartialMatch = true
		result.MatchScore = best.nameScore
		if best.addrScore >= policy.AddressReason {
			result.MismatchReason = domain.MismatchAddress
		} else {
			result.MismatchReason = domain.MismatchName
		}
		result.BestMatch = best.record
	default:
		// Candidate survived the cutoff but cleared neither threshold. With
		// the cutoff equal to the partial threshold this cannot happen; the
		// branch exists so petition and standard policies share one code path.
	}

	return result
}

// fieldResults compares each field against the best candidate using the fixed
// per-field threshold, independent of the overall classification.
func fieldResults(item domain.LineItem, ref *domain.ReferenceRecord, threshold float64) []domain.FieldResult {
	pairs := []struct {
		field     string
		extracted string
		reference string
	}{
		{"name", item.Name, ref.Name},
		{"address", item.Address, ref.Address},
		{"city", item.City, ref.City},
		{"zip", item.Zip, ref.Zip},
	}

	results := make([]domain.FieldResult, 0, len(pairs))
	for _, p := range pairs {
		score := textmatch.Similarity(p.extracted, p.reference)
		results = append(results, domain.FieldResult{
			Field:          p.field,
			ExtractedValue: p.extracted,
			ReferenceValue: p.reference,
			Matches:        score >= threshold,
			Score:          score,
		})
	}
	return results
}
