// Package registry resolves the authoritative reference dataset for a
// validation run, trying tiers in policy order with fallback.
package registry

import (
	"context"
	"fmt"
	"log"

	"veridoc/internal/domain"
	"veridoc/internal/port"
	"veridoc/internal/tabular"
	"veridoc/internal/textmatch"
)

// Resolver produces a non-empty reference set for a project, or fails with
// domain.ErrNoReferenceData. It holds no state between calls: every run
// re-resolves and re-loads.
type Resolver struct {
	store   port.ReferenceStore
	storage port.ObjectStorage
}

// NewResolver creates a Resolver backed by the indexed store and object storage.
func NewResolver(store port.ReferenceStore, storage port.ObjectStorage) *Resolver {
	return &Resolver{store: store, storage: storage}
}

// Resolve walks the registry tiers in the order the project's policy
// dictates. Petition-style projects prefer the indexed registry
// (project → customer → global) and fall back to the configured file;
// all other projects prefer the configured file and fall back to the
// indexed registry (project → customer).
func (r *Resolver) Resolve(ctx context.Context, project *domain.Project, policy domain.PolicyParams) ([]domain.ReferenceRecord, *domain.ReferenceSource, error) {
	var tiers []domain.ReferenceScope
	if policy.PreferIndexed {
		tiers = []domain.ReferenceScope{domain.ScopeProject, domain.ScopeCustomer, domain.ScopeGlobal, domain.ScopeFile}
	} else {
		tiers = []domain.ReferenceScope{domain.ScopeFile, domain.ScopeProject, domain.ScopeCustomer}
	}

	for _, scope := range tiers {
		records, err := r.loadTier(ctx, project, scope)
		if err != nil {
			return nil, nil, err
		}
		if len(records) == 0 {
			continue
		}
		for i := range records {
			canonicalize(&records[i], scope)
		}
		log.Printf("registry.Resolver: project %s resolved %d records from %s tier",
			project.ID, len(records), scope)
		return records, &domain.ReferenceSource{Scope: scope, RecordCount: len(records)}, nil
	}

	// An empty reference set must never pass silently: the run is inconclusive.
	return nil, nil, domain.ErrNoReferenceData
}

func (r *Resolver) loadTier(ctx context.Context, project *domain.Project, scope domain.ReferenceScope) ([]domain.ReferenceRecord, error) {
	switch scope {
	case domain.ScopeProject:
		return r.store.ListByProject(ctx, project.ID)
	case domain.ScopeCustomer:
		return r.store.ListByCustomer(ctx, project.CustomerID)
	case domain.ScopeGlobal:
		return r.store.ListGlobal(ctx)
	case domain.ScopeFile:
		return r.loadFile(ctx, project)
	default:
		return nil, fmt.Errorf("unknown reference scope %q", scope)
	}
}

// loadFile downloads and parses the project's configured registry file.
// A project without a configured file yields an empty tier, not an error.
func (r *Resolver) loadFile(ctx context.Context, project *domain.Project) ([]domain.ReferenceRecord, error) {
	if !project.RegistryEnabled || project.RegistryKey == "" {
		return nil, nil
	}

	data, err := r.storage.Download(ctx, project.RegistryBucket, project.RegistryKey)
	if err != nil {
		return nil, fmt.Errorf("downloading registry file %s/%s: %w", project.RegistryBucket, project.RegistryKey, err)
	}

	var table *tabular.Table
	switch project.RegistryFormat {
	case domain.RegistryFormatXLSX:
		table, err = tabular.ParseWorkbook(data)
	default:
		delim := ','
		if project.RegistryDelim != "" {
			delim = rune(project.RegistryDelim[0])
		}
		table, err = tabular.ParseDelimited(string(data), delim)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing registry file %s: %w", project.RegistryKey, err)
	}

	table.Canonicalize()

	records := make([]domain.ReferenceRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, domain.ReferenceRecord{
			Name:                  row.Field(tabular.ColName),
			Address:               row.Field(tabular.ColAddress),
			City:                  row.Field(tabular.ColCity),
			Zip:                   row.Field(tabular.ColZip),
			SignatureReferenceURL: row.Field("SignatureReferenceUrl"),
			Scope:                 domain.ScopeFile,
		})
	}
	return records, nil
}

// canonicalize fills derived fields before the records reach the matcher.
// The matcher never branches on naming variants; this is the one place where
// heterogeneous inputs are squared up.
func canonicalize(rec *domain.ReferenceRecord, scope domain.ReferenceScope) {
	if rec.NormalizedName == "" {
		rec.NormalizedName = textmatch.Normalize(rec.Name)
	}
	if rec.Scope == "" {
		rec.Scope = scope
	}
}
