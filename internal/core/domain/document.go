package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type DocumentType string

const (
	DocTypeBaseLease  DocumentType = "base_lease"
	DocTypeAmendment  DocumentType = "amendment"
	DocTypeSublease   DocumentType = "sublease"
	DocTypeAssignment DocumentType = "assignment"
	DocTypeEstoppel   DocumentType = "estoppel"
	DocTypeSNDA       DocumentType = "snda"
	DocTypeOther      DocumentType = "other"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocTypeBaseLease, DocTypeAmendment, DocTypeSublease,
		DocTypeAssignment, DocTypeEstoppel, DocTypeSNDA, DocTypeOther:
		return true
	}
	return false
}

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the immutable record of one ingested source file. ContentHash
// is the dedup key: re-ingesting the same bytes is a no-op against the group.
type Document struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	MimeType     string         `json:"mime_type"`
	StoragePath  string         `json:"storage_path"`
	DeclaredType DocumentType   `json:"declared_type"`
	// ClassificationConfidence is the classifier oracle's self-report. Kept
	// for review surfaces only; the engine recomputes its own confidence.
	ClassificationConfidence float64        `json:"classification_confidence"`
	NeedsReview              bool           `json:"needs_review"`
	ContentHash              string         `json:"content_hash"`
	Status                   DocumentStatus `json:"status"`
	Error                    string         `json:"error,omitempty"`
	IngestedAt               time.Time      `json:"ingested_at"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

// HashContent derives the dedup key for raw document bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
