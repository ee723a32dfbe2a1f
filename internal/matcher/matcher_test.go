package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"veridoc/internal/domain"
	"veridoc/internal/matcher"
)

func refRecord(name, address, city, zip string) domain.ReferenceRecord {
	return domain.ReferenceRecord{
		Name:    name,
		Address: address,
		City:    city,
		Zip:     zip,
		Scope:   domain.ScopeProject,
	}
}

func TestMatch_FullMatch(t *testing.T) {
	refs := []domain.ReferenceRecord{
		refRecord("John Smith", "1 Main St", "Springfield", "12345"),
	}
	item := domain.LineItem{Name: "john smith", Address: "1 Main St", City: "Springfield", Zip: "12345"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	assert.True(t, result.Found)
	assert.False(t, result.PartialMatch)
	assert.Equal(t, 1.0, result.MatchScore)
	assert.Equal(t, domain.MismatchNone, result.MismatchReason)
	assert.NotNil(t, result.BestMatch)
	assert.Equal(t, "John Smith", result.BestMatch.Name)
}

func TestMatch_PartialMatch_AddressMismatch(t *testing.T) {
	// Name identical, address completely different, city and zip identical.
	// Address score (0 + 1 + 1) / 3 sits below the found threshold but above
	// the address-reason split.
	refs := []domain.ReferenceRecord{
		refRecord("John Smith", "1 Main St", "Springfield", "12345"),
	}
	item := domain.LineItem{Name: "John Smith", Address: "9 Elm Rd", City: "Springfield", Zip: "12345"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	assert.False(t, result.Found)
	assert.True(t, result.PartialMatch)
	assert.Equal(t, 1.0, result.MatchScore)
	assert.Equal(t, domain.MismatchAddress, result.MismatchReason)
	assert.NotNil(t, result.BestMatch)
}

func TestMatch_PartialMatch_NameMismatchReason(t *testing.T) {
	// Name identical but every address field is absent on the item, so the
	// address score is 0 and the mismatch is attributed to the name side.
	refs := []domain.ReferenceRecord{
		refRecord("John Smith", "1 Main St", "Springfield", "12345"),
	}
	item := domain.LineItem{Name: "John Smith"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	assert.False(t, result.Found)
	assert.True(t, result.PartialMatch)
	assert.Equal(t, domain.MismatchName, result.MismatchReason)
}

func TestMatch_PolicyThresholds(t *testing.T) {
	// Name score is 2/3: below the standard cutoff, above the petition one.
	refs := []domain.ReferenceRecord{
		refRecord("John Quincy Monroe", "1 Main St", "Springfield", "12345"),
	}
	item := domain.LineItem{Name: "John Quincy Adams"}

	std := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))
	assert.False(t, std.Found)
	assert.False(t, std.PartialMatch)
	assert.Nil(t, std.BestMatch)
	assert.Equal(t, domain.MismatchName, std.MismatchReason)
	assert.Empty(t, std.FieldResults)

	pet := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyPetition))
	assert.False(t, pet.Found)
	assert.True(t, pet.PartialMatch)
	assert.InDelta(t, 2.0/3.0, pet.MatchScore, 1e-9)
	assert.NotNil(t, pet.BestMatch)
}

func TestMatch_BestCandidateTieBreaking(t *testing.T) {
	// Both records match the name exactly; the one with the better address
	// wins regardless of ordering.
	refs := []domain.ReferenceRecord{
		refRecord("John Smith", "9 Elm Rd", "Shelbyville", "99999"),
		refRecord("John Smith", "1 Main St", "Springfield", "12345"),
	}
	item := domain.LineItem{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	assert.True(t, result.Found)
	assert.Equal(t, "1 Main St", result.BestMatch.Address)
}

func TestMatch_HigherNameScoreWins(t *testing.T) {
	refs := []domain.ReferenceRecord{
		refRecord("John Smith Jr", "1 Main St", "Springfield", "12345"),
		refRecord("John Smith", "9 Elm Rd", "Shelbyville", "99999"),
	}
	item := domain.LineItem{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	// Exact name (1.0) beats containment (0.9) even though the containment
	// record has the better address.
	assert.Equal(t, "9 Elm Rd", result.BestMatch.Address)
}

func TestMatch_NoReferenceRecords(t *testing.T) {
	item := domain.LineItem{Name: "John Smith"}

	result := matcher.Match(item, nil, domain.PolicyFor(domain.PolicyStandard))

	assert.False(t, result.Found)
	assert.False(t, result.PartialMatch)
	assert.Nil(t, result.BestMatch)
	assert.Equal(t, domain.MismatchName, result.MismatchReason)
	assert.NotNil(t, result.FieldResults)
	assert.Empty(t, result.FieldResults)
}

func TestMatch_FieldResults(t *testing.T) {
	refs := []domain.ReferenceRecord{
		refRecord("John Smith", "1 Main St", "Springfield", "12345"),
	}
	item := domain.LineItem{Name: "John Smith", Address: "2 Main Ave", City: "Springfield", Zip: "12345"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	assert.Len(t, result.FieldResults, 4)

	byField := map[string]domain.FieldResult{}
	for _, fr := range result.FieldResults {
		byField[fr.Field] = fr
	}

	assert.True(t, byField["name"].Matches)
	assert.Equal(t, 1.0, byField["name"].Score)
	assert.True(t, byField["city"].Matches)
	assert.True(t, byField["zip"].Matches)
	// One shared word of three keeps the address under the per-field threshold.
	assert.False(t, byField["address"].Matches)
	assert.InDelta(t, 1.0/3.0, byField["address"].Score, 1e-9)
}

func TestMatch_NormalizedNamePreferred(t *testing.T) {
	refs := []domain.ReferenceRecord{
		{Name: "SMITH, JOHN", NormalizedName: "john smith", Scope: domain.ScopeProject},
	}
	item := domain.LineItem{Name: "John Smith"}

	result := matcher.Match(item, refs, domain.PolicyFor(domain.PolicyStandard))

	assert.True(t, result.PartialMatch)
	assert.Equal(t, 1.0, result.MatchScore)
}

func TestMatch_SignaturePresencePropagated(t *testing.T) {
	item := domain.LineItem{Name: "John Smith"}
	item.SignaturePresent.Raw = "yes"
	item.SignaturePresent.Value = true

	result := matcher.Match(item, nil, domain.PolicyFor(domain.PolicyStandard))

	assert.True(t, result.SignaturePresent.Present)
	assert.Equal(t, "yes", result.SignaturePresent.RawValue)
}
