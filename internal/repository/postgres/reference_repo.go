package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"veridoc/internal/domain"
	"veridoc/internal/port"
)

type referenceRepo struct {
	db *sqlx.DB
}

// NewReferenceRepo creates a new PostgreSQL-backed ReferenceStore.
func NewReferenceRepo(db *sqlx.DB) port.ReferenceStore {
	return &referenceRepo{db: db}
}

func (r *referenceRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ReferenceRecord, error) {
	var records []domain.ReferenceRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM reference_records WHERE scope = $1 AND project_id = $2 ORDER BY normalized_name",
		domain.ScopeProject, projectID)
	if err != nil {
		return nil, fmt.Errorf("referenceRepo.ListByProject: %w", err)
	}
	return records, nil
}

func (r *referenceRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.ReferenceRecord, error) {
	var records []domain.ReferenceRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM reference_records WHERE scope = $1 AND customer_id = $2 ORDER BY normalized_name",
		domain.ScopeCustomer, customerID)
	if err != nil {
		return nil, fmt.Errorf("referenceRepo.ListByCustomer: %w", err)
	}
	return records, nil
}

func (r *referenceRepo) ListGlobal(ctx context.Context) ([]domain.ReferenceRecord, error) {
	var records []domain.ReferenceRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM reference_records WHERE scope = $1 ORDER BY normalized_name",
		domain.ScopeGlobal)
	if err != nil {
		return nil, fmt.Errorf("referenceRepo.ListGlobal: %w", err)
	}
	return records, nil
}
