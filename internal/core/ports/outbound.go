package ports

import (
	"context"
	"io"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByContentHash(ctx context.Context, hash string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification) error
}

// GroupStore persists lease group snapshots for restart rehydration.
type GroupStore interface {
	SaveGroup(ctx context.Context, group *domain.LeaseGroup) error
	LoadGroups(ctx context.Context) ([]domain.LeaseGroup, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document-uploaded events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// DocumentClassifier classifies extracted text into a document type.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// FieldExtractor pulls structured lease or amendment fields from text.
type FieldExtractor interface {
	ExtractLease(ctx context.Context, text string) (*domain.Lease, error)
	ExtractAmendment(ctx context.Context, text string) (*domain.Amendment, error)
}

// LineageProjector mirrors the amendment chain into an external graph store.
// Projection is best effort: failures are logged, never fatal to ingestion.
type LineageProjector interface {
	ProjectGroup(ctx context.Context, group *domain.LeaseGroup) error
}

// ReportExporter renders a conflict report for download.
type ReportExporter interface {
	ConflictReport(ctx context.Context, groups []domain.LeaseGroup) (io.Reader, error)
}
