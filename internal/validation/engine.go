// Package validation orchestrates a full record-linkage validation run:
// resolve the reference registry, match every line item, optionally
// authenticate signatures, aggregate, and persist the outcome.
package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"veridoc/internal/domain"
	"veridoc/internal/matcher"
	"veridoc/internal/port"
	"veridoc/internal/registry"
	"veridoc/internal/signature"
)

// Run reasons for inconclusive outcomes.
const (
	ReasonNoLineItems = "No line items found"
	ReasonNoRegistry  = "No registry configured for this project"
)

// RunInput is the invocation contract for one validation run.
type RunInput struct {
	DocumentID             uuid.UUID
	ProjectID              uuid.UUID
	LineItems              []domain.LineItem
	AuthenticateSignatures bool
}

// Report is the response contract for one validation run.
type Report struct {
	Validated bool                     `json:"validated"`
	Reason    string                   `json:"reason,omitempty"`
	Source    *domain.ReferenceSource  `json:"source,omitempty"`
	domain.ValidationSummary
}

// Engine runs validations. It holds no per-run state: every call re-resolves
// the reference data, and re-running a document overwrites its prior state.
type Engine struct {
	projectRepo   port.ProjectRepository
	docRepo       port.DocumentRepository
	resolver      *registry.Resolver
	authenticator *signature.Authenticator
	storage       port.ObjectStorage
}

// NewEngine creates a validation engine. The authenticator may be nil when
// signature authentication is not configured; storage may be nil when
// reference signatures should not be exposed as viewable links.
func NewEngine(
	projectRepo port.ProjectRepository,
	docRepo port.DocumentRepository,
	resolver *registry.Resolver,
	authenticator *signature.Authenticator,
	storage port.ObjectStorage,
) *Engine {
	return &Engine{
		projectRepo:   projectRepo,
		docRepo:       docRepo,
		resolver:      resolver,
		authenticator: authenticator,
		storage:       storage,
	}
}

// Run executes one validation run. Configuration problems (missing project or
// document, no resolvable registry, no line items) come back as an
// inconclusive Report with a reason, never as an error; only unexpected
// repository failures return a non-nil error.
func (e *Engine) Run(ctx context.Context, input RunInput) (*Report, error) {
	project, err := e.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrProjectNotFound) {
			return &Report{Validated: false, Reason: "Project not found"}, nil
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	doc, err := e.docRepo.GetByID(ctx, input.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDocumentNotFound) {
			return &Report{Validated: false, Reason: "Document not found"}, nil
		}
		return nil, fmt.Errorf("loading document: %w", err)
	}

	items := input.LineItems
	if len(items) == 0 {
		items, err = extractedLineItems(doc)
		if err != nil {
			return &Report{Validated: false, Reason: err.Error()}, nil
		}
	}
	if len(items) == 0 {
		return &Report{Validated: false, Reason: ReasonNoLineItems}, nil
	}

	policy := domain.PolicyFor(project.MatchPolicy)

	// Fetch once, reuse for the whole run, discard after.
	refs, source, err := e.resolver.Resolve(ctx, project, policy)
	if err != nil {
		if errors.Is(err, domain.ErrNoReferenceData) {
			return &Report{Validated: false, Reason: ReasonNoRegistry}, nil
		}
		log.Printf("validation.Engine: resolving registry for project %s: %v", project.ID, err)
		return &Report{Validated: false, Reason: fmt.Sprintf("Registry could not be loaded: %v", err)}, nil
	}

	log.Printf("validation.Engine: validating document %s — %d line items against %d %s-scope records",
		doc.ID, len(items), source.RecordCount, source.Scope)

	results := make([]domain.MatchResult, len(items))
	for i, item := range items {
		results[i] = matcher.Match(item, refs, policy)
	}

	if input.AuthenticateSignatures && e.authenticator != nil {
		e.authenticator.AuthenticateAll(ctx, items, results)
	}

	if e.storage != nil {
		e.attachSignatureViewURLs(ctx, results)
	}

	summary := aggregate(results)
	report := &Report{
		Validated:         true,
		Source:            source,
		ValidationSummary: summary,
	}

	if err := e.persist(ctx, doc, report); err != nil {
		return nil, err
	}

	log.Printf("validation.Engine: document %s validated — valid=%d invalid=%d partial=%d review=%v",
		doc.ID, summary.ValidCount, summary.InvalidCount, summary.PartialMatchCount, doc.NeedsReview)

	return report, nil
}

// attachSignatureViewURLs turns s3:// reference-signature URIs on matched
// records into presigned links so reviewers can see the signature on file
// without bucket access. A failed presign loses the link, not the result.
func (e *Engine) attachSignatureViewURLs(ctx context.Context, results []domain.MatchResult) {
	for i := range results {
		ref := results[i].BestMatch
		if ref == nil || !strings.HasPrefix(ref.SignatureReferenceURL, "s3://") {
			continue
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(ref.SignatureReferenceURL, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			continue
		}
		url, err := e.storage.PresignGet(ctx, bucket, key)
		if err != nil {
			log.Printf("validation.Engine: presigning %s: %v", ref.SignatureReferenceURL, err)
			continue
		}
		results[i].SignatureReferenceViewURL = url
	}
}

// aggregate tallies per-item outcomes. Partial matches count as invalid but
// are flagged distinctly, preserving ValidCount+InvalidCount == TotalItems.
func aggregate(results []domain.MatchResult) domain.ValidationSummary {
	summary := domain.ValidationSummary{
		TotalItems: len(results),
		Results:    results,
	}
	for i := range results {
		r := &results[i]
		if r.Found {
			summary.ValidCount++
		} else {
			summary.InvalidCount++
			if r.PartialMatch {
				summary.PartialMatchCount++
			}
		}
		if auth := r.SignatureAuthentication; auth != nil {
			switch auth.Status {
			case domain.SignatureAuthenticated:
				summary.AuthenticatedCount++
			case domain.SignatureSuspicious:
				summary.SuspiciousCount++
			}
		}
	}
	return summary
}

// persist overwrites the document's validation state (last-run-wins) and sets
// the review flag.
func (e *Engine) persist(ctx context.Context, doc *domain.Document, report *Report) error {
	now := time.Now().UTC()
	state := domain.ValidationState{
		LookupValidation: domain.LookupValidation{
			Validated:         report.Validated,
			ValidatedAt:       now,
			ValidationSummary: report.ValidationSummary,
		},
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling validation state: %w", err)
	}

	doc.ValidationState = stateJSON
	doc.NeedsReview = report.InvalidCount > 0 || report.SuspiciousCount > 0
	doc.ValidatedAt = &now

	if err := e.docRepo.UpdateValidationState(ctx, doc); err != nil {
		return fmt.Errorf("persisting validation state: %w", err)
	}
	return nil
}

// extractedLineItems loads the line items the extraction pipeline stored on
// the document.
func extractedLineItems(doc *domain.Document) ([]domain.LineItem, error) {
	if len(doc.ExtractedData) == 0 {
		return nil, nil
	}
	var items []domain.LineItem
	if err := json.Unmarshal(doc.ExtractedData, &items); err != nil {
		return nil, domain.ErrInvalidExtractedData
	}
	return items, nil
}
