package domain

import (
	"fmt"
	"time"
)

type ConflictCategory string

const (
	CategoryTermConflict     ConflictCategory = "term_conflict"
	CategoryRentConflict     ConflictCategory = "rent_conflict"
	CategoryPartyConflict    ConflictCategory = "party_conflict"
	CategoryPropertyConflict ConflictCategory = "property_conflict"
	CategoryDateSequence     ConflictCategory = "date_sequence"
	CategoryCalculationError ConflictCategory = "calculation_error"
)

type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "CRITICAL"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityLow      ConflictSeverity = "LOW"
)

// categorySeverity fixes severity by category. Rules never pick severities
// ad hoc.
var categorySeverity = map[ConflictCategory]ConflictSeverity{
	CategoryRentConflict:     SeverityCritical,
	CategoryTermConflict:     SeverityHigh,
	CategoryPropertyConflict: SeverityHigh,
	CategoryDateSequence:     SeverityHigh,
	CategoryPartyConflict:    SeverityMedium,
	CategoryCalculationError: SeverityMedium,
}

func (c ConflictCategory) Severity() ConflictSeverity {
	if s, ok := categorySeverity[c]; ok {
		return s
	}
	return SeverityLow
}

type ConflictStatus string

const (
	ConflictOpen     ConflictStatus = "open"
	ConflictResolved ConflictStatus = "resolved"
	ConflictIgnored  ConflictStatus = "ignored"
)

type Resolution string

const (
	ResolutionUseLaterEffectiveDate Resolution = "use_later_effective_date"
	ResolutionUseHigherConfidence   Resolution = "use_higher_confidence"
	ResolutionManualReview          Resolution = "manual_review"
)

// ConflictRecord is one detected contradiction between two documents'
// claimed values for the same fact, with both values kept as evidence.
type ConflictRecord struct {
	ID       string           `json:"id"`
	Category ConflictCategory `json:"category"`
	Severity ConflictSeverity `json:"severity"`

	Field       string `json:"field"`
	Description string `json:"description"`

	DocA   string `json:"doc_a"`
	DocB   string `json:"doc_b"`
	ValueA string `json:"value_a"`
	ValueB string `json:"value_b"`

	Suggested Resolution     `json:"suggested_resolution"`
	Status    ConflictStatus `json:"status"`

	DetectedAt time.Time `json:"detected_at"`
}

// Key identifies the underlying fact a conflict is about. Rescans use it to
// replace open records and to decide whether a closed record must reopen.
func (c *ConflictRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", c.Category, c.Field, c.DocA, c.DocB)
}

// SameEvidence reports whether two records cite identical claimed values.
func (c *ConflictRecord) SameEvidence(other *ConflictRecord) bool {
	return c.ValueA == other.ValueA && c.ValueB == other.ValueB
}

// LeaseGroup is the unit of isolation: one merged lease, its base record,
// its ordered amendments, and every conflict referencing any of them. Two
// groups never share mutable state.
type LeaseGroup struct {
	LeaseID    string           `json:"lease_id"`
	Base       Lease            `json:"base"`
	Merged     Lease            `json:"merged"`
	Amendments []Amendment      `json:"amendments"`
	Conflicts  []ConflictRecord `json:"conflicts"`
	Documents  []Document       `json:"documents,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (g *LeaseGroup) Clone() LeaseGroup {
	out := LeaseGroup{
		LeaseID:   g.LeaseID,
		Base:      g.Base.Clone(),
		Merged:    g.Merged.Clone(),
		UpdatedAt: g.UpdatedAt,
	}
	out.Amendments = make([]Amendment, len(g.Amendments))
	for i := range g.Amendments {
		out.Amendments[i] = g.Amendments[i].Clone()
	}
	out.Conflicts = append([]ConflictRecord(nil), g.Conflicts...)
	out.Documents = append([]Document(nil), g.Documents...)
	return out
}

// OpenConflicts filters the group's conflict set to open records.
func (g *LeaseGroup) OpenConflicts() []ConflictRecord {
	var open []ConflictRecord
	for _, c := range g.Conflicts {
		if c.Status == ConflictOpen {
			open = append(open, c)
		}
	}
	return open
}
