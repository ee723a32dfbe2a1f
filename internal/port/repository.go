package port

import (
	"context"

	"github.com/google/uuid"

	"veridoc/internal/domain"
)

// ProjectRepository defines the contract for project persistence.
type ProjectRepository interface {
	GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
}

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	UpdateValidationState(ctx context.Context, doc *domain.Document) error
}

// ReferenceStore defines the contract for the indexed reference registry.
// Records are returned canonicalized but otherwise as stored; an empty slice
// with a nil error means the tier holds no records.
type ReferenceStore interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ReferenceRecord, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.ReferenceRecord, error)
	ListGlobal(ctx context.Context) ([]domain.ReferenceRecord, error)
}
