package ports

import (
	"context"
	"io"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// DocumentIntake is the inbound contract for document upload orchestration.
type DocumentIntake interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document
// processing: extract, classify, and reconcile into the version graph.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// LeaseReader is the inbound read model over reconciled lease state.
type LeaseReader interface {
	ListLeases(ctx context.Context) ([]domain.LeaseGroup, error)
	GetLease(ctx context.Context, leaseID string) (*domain.LeaseGroup, error)
	History(ctx context.Context, leaseID string) ([]domain.Amendment, error)
	ListConflicts(ctx context.Context, leaseID string, status domain.ConflictStatus) ([]domain.ConflictRecord, error)
}

// ConflictResolver applies lifecycle decisions to detected conflicts.
type ConflictResolver interface {
	Resolve(ctx context.Context, conflictID string, decision domain.ConflictStatus) (*domain.ConflictRecord, error)
}

// PortfolioAnalytics aggregates reconciliation health across all groups.
type PortfolioAnalytics interface {
	Summary(ctx context.Context) (*domain.PortfolioSummary, error)
}
