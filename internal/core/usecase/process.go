package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/ports"
)

// ProcessDocumentUseCase runs the asynchronous pipeline for one uploaded
// document: extract text, classify, extract structured fields, and hand the
// record to reconciliation.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	fields     ports.FieldExtractor
	reconciler *ReconcileUseCase
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	fields ports.FieldExtractor,
	reconciler *ReconcileUseCase,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		fields:     fields,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.markStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return err
	}

	cls := uc.classify(ctx, doc, text)
	if err := uc.repo.SaveClassification(ctx, doc.ID, cls); err != nil {
		return fmt.Errorf("save classification: %w", err)
	}

	return uc.reconcile(ctx, doc, cls.Type, text)
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

// classify asks the oracle for a document type. A classification failure is
// not a processing failure: the document falls back to type other and is
// flagged for review.
func (uc *ProcessDocumentUseCase) classify(ctx context.Context, doc *domain.Document, text string) domain.Classification {
	cls, err := uc.classifier.Classify(ctx, text)
	if err != nil || !cls.Type.Valid() {
		uc.logger.Warn("classification_fallback",
			"document_id", doc.ID,
			"returned_type", cls.Type,
			"error", err,
		)
		return domain.Classification{Type: domain.DocTypeOther, Confidence: 0}
	}
	return cls
}

// reconcile extracts structured fields for the classified type and folds
// them into the version graph. An extraction failure produces an empty
// record: it scores zero confidence, appears in history, and never drives
// conflict comparisons.
func (uc *ProcessDocumentUseCase) reconcile(ctx context.Context, doc *domain.Document, docType domain.DocumentType, text string) error {
	switch docType {
	case domain.DocTypeBaseLease:
		lease := uc.extractLease(ctx, doc, text)
		snap, opened, err := uc.reconciler.ReconcileLease(ctx, *lease)
		if err != nil {
			return fmt.Errorf("reconcile lease: %w", err)
		}
		uc.logReconciled(doc, snap.LeaseID, opened)
	case domain.DocTypeAmendment:
		a := uc.extractAmendment(ctx, doc, text)
		if a.TargetLeaseID == "" {
			uc.logger.Warn("amendment_missing_target", "document_id", doc.ID)
			return nil
		}
		snap, opened, parked, err := uc.reconciler.ReconcileAmendment(ctx, *a)
		if err != nil {
			return fmt.Errorf("reconcile amendment: %w", err)
		}
		if parked {
			uc.logger.Info("document_parked", "document_id", doc.ID, "target_lease_id", a.TargetLeaseID)
			return nil
		}
		uc.logReconciled(doc, snap.LeaseID, opened)
	default:
		// Subleases, assignments, estoppels, and unclassifiable documents
		// are stored and surfaced for review, never reconciled.
		uc.logger.Info("document_not_reconcilable", "document_id", doc.ID, "type", docType)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) extractLease(ctx context.Context, doc *domain.Document, text string) *domain.Lease {
	lease, err := uc.fields.ExtractLease(ctx, text)
	if err != nil || lease == nil {
		uc.logger.Error("lease_extraction_failed", "document_id", doc.ID, "error", err)
		lease = &domain.Lease{}
	}
	lease.DocumentID = doc.ID
	return lease
}

func (uc *ProcessDocumentUseCase) extractAmendment(ctx context.Context, doc *domain.Document, text string) *domain.Amendment {
	a, err := uc.fields.ExtractAmendment(ctx, text)
	if err != nil || a == nil {
		uc.logger.Error("amendment_extraction_failed", "document_id", doc.ID, "error", err)
		a = &domain.Amendment{}
	}
	a.DocumentID = doc.ID
	return a
}

func (uc *ProcessDocumentUseCase) logReconciled(doc *domain.Document, leaseID string, opened []domain.ConflictRecord) {
	uc.logger.Info("document_reconciled",
		"document_id", doc.ID,
		"lease_id", leaseID,
		"conflicts_opened", len(opened),
	)
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}
