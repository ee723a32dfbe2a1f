package validation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"veridoc/internal/domain"
	"veridoc/internal/port"
	"veridoc/internal/registry"
	"veridoc/internal/signature"
	"veridoc/internal/validation"
	"veridoc/mocks"
)

type engineFixture struct {
	projectRepo *mocks.MockProjectRepo
	docRepo     *mocks.MockDocumentRepo
	refStore    *mocks.MockReferenceStore
	storage     *mocks.MockObjectStorage
	comparer    *mocks.MockSignatureComparer
	fetcher     *mocks.MockImageFetcher
	engine      *validation.Engine
	project     *domain.Project
	doc         *domain.Document
}

func newEngineFixture(policy domain.MatchPolicy) *engineFixture {
	f := &engineFixture{
		projectRepo: new(mocks.MockProjectRepo),
		docRepo:     new(mocks.MockDocumentRepo),
		refStore:    new(mocks.MockReferenceStore),
		storage:     new(mocks.MockObjectStorage),
		comparer:    new(mocks.MockSignatureComparer),
		fetcher:     new(mocks.MockImageFetcher),
	}
	f.project = &domain.Project{ID: uuid.New(), CustomerID: uuid.New(), Name: "precinct 7", MatchPolicy: policy}
	f.doc = &domain.Document{ID: uuid.New(), ProjectID: f.project.ID, Name: "batch-001.pdf"}

	resolver := registry.NewResolver(f.refStore, f.storage)
	authenticator := signature.NewAuthenticator(f.comparer, f.fetcher, signature.Config{Concurrency: 2})
	f.engine = validation.NewEngine(f.projectRepo, f.docRepo, resolver, authenticator, f.storage)

	f.projectRepo.On("GetByID", mock.Anything, f.project.ID).Return(f.project, nil)
	f.docRepo.On("GetByID", mock.Anything, f.doc.ID).Return(f.doc, nil)
	return f
}

func (f *engineFixture) withProjectRecords(records ...domain.ReferenceRecord) {
	f.refStore.On("ListByProject", mock.Anything, f.project.ID).Return(records, nil)
}

func (f *engineFixture) run(t *testing.T, items []domain.LineItem, authenticate bool) *validation.Report {
	t.Helper()
	report, err := f.engine.Run(context.Background(), validation.RunInput{
		DocumentID:             f.doc.ID,
		ProjectID:              f.project.ID,
		LineItems:              items,
		AuthenticateSignatures: authenticate,
	})
	assert.NoError(t, err)
	assert.NotNil(t, report)
	return report
}

func refSmith() domain.ReferenceRecord {
	return domain.ReferenceRecord{
		Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345",
	}
}

func TestRun_FullMatch(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.withProjectRecords(refSmith())
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"},
	}
	report := f.run(t, items, false)

	assert.True(t, report.Validated)
	assert.Equal(t, 1, report.TotalItems)
	assert.Equal(t, 1, report.ValidCount)
	assert.Equal(t, 0, report.InvalidCount)
	assert.True(t, report.Results[0].Found)
	assert.Equal(t, domain.ScopeProject, report.Source.Scope)

	assert.False(t, f.doc.NeedsReview)
	assert.NotNil(t, f.doc.ValidatedAt)
}

func TestRun_PartialAndInvalidAggregation(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.withProjectRecords(refSmith())
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"}, // full match
		{Name: "John Smith", Address: "2 Oak Ave", City: "Springfield", Zip: "12345"}, // partial, address off
		{Name: "Someone Else Entirely"},                                               // no candidate
	}
	report := f.run(t, items, false)

	assert.Equal(t, 3, report.TotalItems)
	assert.Equal(t, 1, report.ValidCount)
	assert.Equal(t, 2, report.InvalidCount)
	assert.Equal(t, 1, report.PartialMatchCount)
	assert.Equal(t, report.TotalItems, report.ValidCount+report.InvalidCount)

	assert.Equal(t, domain.MismatchAddress, report.Results[1].MismatchReason)
	assert.Nil(t, report.Results[2].BestMatch)

	// Any invalid item flags the document for review.
	assert.True(t, f.doc.NeedsReview)
}

func TestRun_PersistedStateShape(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.withProjectRecords(refSmith())

	var persisted *domain.Document
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { persisted = args.Get(1).(*domain.Document) }).
		Return(nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"},
	}
	f.run(t, items, false)

	assert.NotNil(t, persisted)

	var state domain.ValidationState
	assert.NoError(t, json.Unmarshal(persisted.ValidationState, &state))
	assert.True(t, state.LookupValidation.Validated)
	assert.False(t, state.LookupValidation.ValidatedAt.IsZero())
	assert.Equal(t, 1, state.LookupValidation.TotalItems)
	assert.Equal(t, 1, state.LookupValidation.ValidCount)
	assert.Len(t, state.LookupValidation.Results, 1)
}

func TestRun_LineItemsFromExtractedData(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.withProjectRecords(refSmith())
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)

	f.doc.ExtractedData = json.RawMessage(
		`[{"name":"John Smith","address":"1 Main St","city":"Springfield","zip":"12345","signaturePresent":"yes"}]`)

	report := f.run(t, nil, false)

	assert.Equal(t, 1, report.ValidCount)
	assert.True(t, report.Results[0].SignaturePresent.Present)
	assert.Equal(t, "yes", report.Results[0].SignaturePresent.RawValue)
}

func TestRun_NoLineItems(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)

	report := f.run(t, nil, false)

	assert.False(t, report.Validated)
	assert.Equal(t, validation.ReasonNoLineItems, report.Reason)
	// Inconclusive runs never touch persisted state.
	f.docRepo.AssertNotCalled(t, "UpdateValidationState", mock.Anything, mock.Anything)
}

func TestRun_MalformedExtractedData(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.doc.ExtractedData = json.RawMessage(`{"not":"an array"}`)

	report := f.run(t, nil, false)

	assert.False(t, report.Validated)
	assert.Equal(t, domain.ErrInvalidExtractedData.Error(), report.Reason)
}

func TestRun_NoRegistry(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.refStore.On("ListByProject", mock.Anything, f.project.ID).Return([]domain.ReferenceRecord{}, nil)
	f.refStore.On("ListByCustomer", mock.Anything, f.project.CustomerID).Return([]domain.ReferenceRecord{}, nil)

	report := f.run(t, []domain.LineItem{{Name: "John Smith"}}, false)

	assert.False(t, report.Validated)
	assert.Equal(t, validation.ReasonNoRegistry, report.Reason)
	f.docRepo.AssertNotCalled(t, "UpdateValidationState", mock.Anything, mock.Anything)
}

func TestRun_ProjectNotFound(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	missingID := uuid.New()
	f.projectRepo.On("GetByID", mock.Anything, missingID).Return(nil, domain.ErrProjectNotFound)

	report, err := f.engine.Run(context.Background(), validation.RunInput{
		DocumentID: f.doc.ID,
		ProjectID:  missingID,
	})

	assert.NoError(t, err)
	assert.False(t, report.Validated)
	assert.Equal(t, "Project not found", report.Reason)
}

func TestRun_WithSignatureAuthentication(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	ref := refSmith()
	ref.SignatureReferenceURL = "s3://sigs/smith-ref.png"
	f.withProjectRecords(ref)
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("PresignGet", mock.Anything, "sigs", "smith-ref.png").
		Return("https://s3.example/sigs/smith-ref.png?signed", nil)

	f.fetcher.On("Fetch", mock.Anything, "s3://sigs/smith-cap.png").Return([]byte("cap"), "image/png", nil)
	f.fetcher.On("Fetch", mock.Anything, "s3://sigs/smith-ref.png").Return([]byte("ref"), "image/png", nil)
	f.comparer.On("Compare", mock.Anything, mock.Anything).Return(&port.CompareOutput{SimilarityScore: 0.92}, nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345",
			SignatureImageURL: "s3://sigs/smith-cap.png"},
	}
	report := f.run(t, items, true)

	auth := report.Results[0].SignatureAuthentication
	assert.NotNil(t, auth)
	assert.Equal(t, domain.SignatureAuthenticated, auth.Status)
	assert.Equal(t, 1, report.AuthenticatedCount)
	assert.Equal(t, 0, report.SuspiciousCount)
	assert.False(t, f.doc.NeedsReview)
}

func TestRun_SuspiciousSignatureFlagsReview(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	ref := refSmith()
	ref.SignatureReferenceURL = "s3://sigs/smith-ref.png"
	f.withProjectRecords(ref)
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("PresignGet", mock.Anything, "sigs", "smith-ref.png").
		Return("https://s3.example/sigs/smith-ref.png?signed", nil)

	f.fetcher.On("Fetch", mock.Anything, mock.Anything).Return([]byte("img"), "image/png", nil)
	f.comparer.On("Compare", mock.Anything, mock.Anything).Return(&port.CompareOutput{SimilarityScore: 0.1}, nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345",
			SignatureImageURL: "s3://sigs/smith-cap.png"},
	}
	report := f.run(t, items, true)

	// All items matched, but a suspicious signature still forces review.
	assert.Equal(t, 1, report.ValidCount)
	assert.Equal(t, 1, report.SuspiciousCount)
	assert.True(t, f.doc.NeedsReview)
}

func TestRun_AuthenticationSkippedWhenNotRequested(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	ref := refSmith()
	ref.SignatureReferenceURL = "s3://sigs/smith-ref.png"
	f.withProjectRecords(ref)
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("PresignGet", mock.Anything, "sigs", "smith-ref.png").
		Return("https://s3.example/sigs/smith-ref.png?signed", nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345",
			SignatureImageURL: "s3://sigs/smith-cap.png"},
	}
	report := f.run(t, items, false)

	assert.Nil(t, report.Results[0].SignatureAuthentication)
	f.comparer.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
}

func TestRun_SignatureReferenceViewURL(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	ref := refSmith()
	ref.SignatureReferenceURL = "s3://sigs/smith-ref.png"
	f.withProjectRecords(ref)
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("PresignGet", mock.Anything, "sigs", "smith-ref.png").
		Return("https://s3.example/sigs/smith-ref.png?signed", nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"},
		{Name: "Nobody Here At All"},
	}
	report := f.run(t, items, false)

	assert.Equal(t, "https://s3.example/sigs/smith-ref.png?signed", report.Results[0].SignatureReferenceViewURL)
	// Unmatched items get no link.
	assert.Empty(t, report.Results[1].SignatureReferenceViewURL)
	f.storage.AssertNumberOfCalls(t, "PresignGet", 1)
}

func TestRun_ViewURLSkippedForNonS3References(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	ref := refSmith()
	ref.SignatureReferenceURL = "https://cdn.example/sigs/smith-ref.png"
	f.withProjectRecords(ref)
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"},
	}
	report := f.run(t, items, false)

	assert.Empty(t, report.Results[0].SignatureReferenceViewURL)
	f.storage.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_PresignFailureKeepsResult(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	ref := refSmith()
	ref.SignatureReferenceURL = "s3://sigs/smith-ref.png"
	f.withProjectRecords(ref)
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("PresignGet", mock.Anything, "sigs", "smith-ref.png").
		Return("", errors.New("credentials expired"))

	items := []domain.LineItem{
		{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"},
	}
	report := f.run(t, items, false)

	assert.True(t, report.Validated)
	assert.Equal(t, 1, report.ValidCount)
	assert.Empty(t, report.Results[0].SignatureReferenceViewURL)
}

func TestRun_RerunOverwritesState(t *testing.T) {
	f := newEngineFixture(domain.PolicyStandard)
	f.withProjectRecords(refSmith())
	f.docRepo.On("UpdateValidationState", mock.Anything, mock.Anything).Return(nil)

	good := []domain.LineItem{{Name: "John Smith", Address: "1 Main St", City: "Springfield", Zip: "12345"}}
	bad := []domain.LineItem{{Name: "Unrelated Person"}}

	f.run(t, bad, false)
	assert.True(t, f.doc.NeedsReview)

	f.run(t, good, false)
	assert.False(t, f.doc.NeedsReview)

	var state domain.ValidationState
	assert.NoError(t, json.Unmarshal(f.doc.ValidationState, &state))
	assert.Equal(t, 1, state.LookupValidation.ValidCount)
	f.docRepo.AssertNumberOfCalls(t, "UpdateValidationState", 2)
}
