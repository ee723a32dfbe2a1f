package domain

// MatchPolicy selects the matching thresholds and registry resolution order
// for a project. It is stored on the project as an explicit enum rather than
// inferred from the project name.
type MatchPolicy string

const (
	// PolicyPetition prefers the indexed registry and accepts partial matches
	// at a lower name threshold.
	PolicyPetition MatchPolicy = "petition"
	// PolicyStandard prefers a configured registry file and uses the same
	// threshold for partial and full matches.
	PolicyStandard MatchPolicy = "standard"
)

// PolicyParams is the resolved threshold set and resolution order for a policy.
type PolicyParams struct {
	// FoundName and FoundAddress must both be cleared for a full match.
	FoundName    float64
	FoundAddress float64
	// Partial is the minimum name score for a record to be considered a
	// candidate at all; between Partial and FoundName the item is a partial match.
	Partial float64
	// AddressReason splits partial matches into address vs name mismatches.
	AddressReason float64
	// Field is the per-field match threshold, independent of classification.
	Field float64
	// PreferIndexed controls registry resolution order: indexed tiers before
	// the configured file when true.
	PreferIndexed bool
}

// PolicyFor maps a MatchPolicy to its parameters. Unknown values fall back to
// the standard policy.
func PolicyFor(p MatchPolicy) PolicyParams {
	params := PolicyParams{
		FoundName:     0.7,
		FoundAddress:  0.7,
		Partial:       0.7,
		AddressReason: 0.4,
		Field:         0.9,
		PreferIndexed: false,
	}
	if p == PolicyPetition {
		params.Partial = 0.6
		params.PreferIndexed = true
	}
	return params
}

// ReferenceScope identifies the tier a reference dataset was resolved from.
type ReferenceScope string

const (
	ScopeProject  ReferenceScope = "project"
	ScopeCustomer ReferenceScope = "customer"
	ScopeGlobal   ReferenceScope = "global"
	ScopeFile     ReferenceScope = "file"
)

// MismatchReason explains why a line item was not a full match.
type MismatchReason string

const (
	MismatchNone    MismatchReason = "none"
	MismatchName    MismatchReason = "name_mismatch"
	MismatchAddress MismatchReason = "address_mismatch"
)

// SignatureAuthStatus is the outcome of signature authentication for one item.
type SignatureAuthStatus string

const (
	SignatureAuthenticated   SignatureAuthStatus = "authenticated"
	SignatureReviewNeeded    SignatureAuthStatus = "review_needed"
	SignatureSuspicious      SignatureAuthStatus = "suspicious"
	SignatureNoReference     SignatureAuthStatus = "no_reference"
	SignatureNoCapturedImage SignatureAuthStatus = "no_signature_image"
	SignatureError           SignatureAuthStatus = "error"
	SignatureAIError         SignatureAuthStatus = "ai_error"
	SignatureParseError      SignatureAuthStatus = "parse_error"
	SignatureNoAPIKey        SignatureAuthStatus = "no_api_key"
)

// RegistryFileFormat is the format of a project's configured registry file.
type RegistryFileFormat string

const (
	RegistryFormatCSV  RegistryFileFormat = "csv"
	RegistryFormatXLSX RegistryFileFormat = "xlsx"
)
