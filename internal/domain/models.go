package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project represents a capture project owned by a customer. The match policy
// and the optional registry file source are configured per project.
type Project struct {
	ID               uuid.UUID          `db:"id" json:"id"`
	CustomerID       uuid.UUID          `db:"customer_id" json:"customer_id"`
	Name             string             `db:"name" json:"name"`
	MatchPolicy      MatchPolicy        `db:"match_policy" json:"match_policy"`
	RegistryEnabled  bool               `db:"registry_enabled" json:"registry_enabled"`
	RegistryBucket   string             `db:"registry_bucket" json:"registry_bucket"`
	RegistryKey      string             `db:"registry_key" json:"registry_key"`
	RegistryFormat   RegistryFileFormat `db:"registry_format" json:"registry_format"`
	RegistryDelim    string             `db:"registry_delim" json:"registry_delim"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// Document represents one scanned document within a project. ExtractedData
// holds the line items produced by the upstream extraction pipeline;
// ValidationState holds the result of the most recent validation run.
type Document struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ProjectID       uuid.UUID       `db:"project_id" json:"project_id"`
	Name            string          `db:"name" json:"name"`
	ExtractedData   json.RawMessage `db:"extracted_data" json:"extracted_data"`
	ValidationState json.RawMessage `db:"validation_state" json:"validation_state"`
	NeedsReview     bool            `db:"needs_review" json:"needs_review"`
	ValidatedAt     *time.Time      `db:"validated_at" json:"validated_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// BoolishValue accepts a boolean-ish JSON value (bool, string, or number) and
// preserves the raw form alongside the interpreted boolean. Upstream
// extraction emits signature-presence markers in all three shapes.
type BoolishValue struct {
	Raw   string
	Value bool
}

var falseWords = map[string]bool{
	"": true, "false": true, "no": true, "n": true,
	"0": true, "none": true, "null": true, "absent": true,
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BoolishValue) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if len(raw) >= 2 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	b.Raw = raw
	b.Value = !falseWords[strings.ToLower(strings.TrimSpace(raw))]
	return nil
}

// MarshalJSON implements json.Marshaler, emitting the raw form as a string.
func (b BoolishValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Raw)
}

// LineItem is one extracted row awaiting validation. Immutable input.
type LineItem struct {
	Name              string       `json:"name"`
	Address           string       `json:"address"`
	City              string       `json:"city"`
	Zip               string       `json:"zip"`
	SignaturePresent  BoolishValue `json:"signaturePresent"`
	SignatureImageURL string       `json:"signatureImageUrl,omitempty"`
}

// ReferenceRecord is one authoritative registry record. Records loaded from
// the indexed store carry project/customer ownership; file-derived records
// carry ScopeFile. Never mutated by the validation engine.
type ReferenceRecord struct {
	ID                    uuid.UUID      `db:"id" json:"-"`
	ProjectID             *uuid.UUID     `db:"project_id" json:"-"`
	CustomerID            *uuid.UUID     `db:"customer_id" json:"-"`
	Name                  string         `db:"name" json:"name"`
	NormalizedName        string         `db:"normalized_name" json:"normalizedName"`
	Address               string         `db:"address" json:"address"`
	City                  string         `db:"city" json:"city"`
	Zip                   string         `db:"zip" json:"zip"`
	SignatureReferenceURL string         `db:"signature_ref_url" json:"signatureReferenceUrl,omitempty"`
	Scope                 ReferenceScope `db:"scope" json:"scope"`
}

// ReferenceSource describes where the reference dataset for a run came from.
type ReferenceSource struct {
	Scope       ReferenceScope `json:"scope"`
	RecordCount int            `json:"recordCount"`
}

// FieldResult is the per-field comparison against the best candidate.
type FieldResult struct {
	Field          string  `json:"field"`
	ExtractedValue string  `json:"extractedValue"`
	ReferenceValue string  `json:"referenceValue"`
	Matches        bool    `json:"matches"`
	Score          float64 `json:"score"`
}

// SignaturePresence reports the interpreted and raw signature marker.
type SignaturePresence struct {
	Present  bool   `json:"present"`
	RawValue string `json:"rawValue"`
}

// SignatureAuthResult is the outcome of authenticating one matched signature.
type SignatureAuthResult struct {
	SimilarityScore float64             `json:"similarityScore"`
	Status          SignatureAuthStatus `json:"status"`
	Analysis        string              `json:"analysis,omitempty"`
}

// MatchResult is the per-line-item outcome of a validation run. Created once
// per run and never mutated afterward. SignatureReferenceViewURL is a
// short-lived presigned link to the matched record's reference signature;
// it expires with the presign TTL and is refreshed on the next run.
type MatchResult struct {
	Found                     bool                 `json:"found"`
	PartialMatch              bool                 `json:"partialMatch"`
	MatchScore                float64              `json:"matchScore"`
	BestMatch                 *ReferenceRecord     `json:"bestMatch,omitempty"`
	SignatureReferenceViewURL string               `json:"signatureReferenceViewUrl,omitempty"`
	MismatchReason            MismatchReason       `json:"mismatchReason"`
	FieldResults              []FieldResult        `json:"fieldResults"`
	SignatureAuthentication   *SignatureAuthResult `json:"signatureAuthentication,omitempty"`
	SignaturePresent          SignaturePresence    `json:"signaturePresent"`
}

// ValidationSummary aggregates all line items of one run.
// Invariant: ValidCount + InvalidCount == TotalItems.
type ValidationSummary struct {
	TotalItems         int           `json:"totalItems"`
	ValidCount         int           `json:"validCount"`
	InvalidCount       int           `json:"invalidCount"`
	PartialMatchCount  int           `json:"partialMatchCount"`
	AuthenticatedCount int           `json:"authenticatedCount"`
	SuspiciousCount    int           `json:"suspiciousCount"`
	Results            []MatchResult `json:"results"`
}

// LookupValidation is the persisted validation state for a document.
// Subsequent runs overwrite it (last-run-wins).
type LookupValidation struct {
	Validated   bool      `json:"validated"`
	ValidatedAt time.Time `json:"validatedAt"`
	ValidationSummary
}

// ValidationState is the shape stored in the document's validation_state column.
type ValidationState struct {
	LookupValidation LookupValidation `json:"lookupValidation"`
}
