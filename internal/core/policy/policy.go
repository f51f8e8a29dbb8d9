// Package policy assigns suggested resolutions to detected conflicts and
// owns the conflict lifecycle state machine.
package policy

import (
	"fmt"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

const DefaultConfidenceThreshold = 0.7

// DocumentEvidence is what the policy needs to know about one side of a
// conflict: when its claims take effect and how complete its extraction was.
type DocumentEvidence struct {
	DocumentID    string
	EffectiveDate time.Time
	Confidence    float64
}

type Policy struct {
	threshold float64
}

func New(confidenceThreshold float64) *Policy {
	if confidenceThreshold <= 0 || confidenceThreshold > 1 {
		confidenceThreshold = DefaultConfidenceThreshold
	}
	return &Policy{threshold: confidenceThreshold}
}

// Suggest picks a resolution for a conflict between two documents. The later
// effective date wins by default, unless the later document's confidence
// falls below the threshold, in which case the conflict goes to manual
// review. When the dates tie, the higher-confidence document is preferred.
func (p *Policy) Suggest(a, b DocumentEvidence) domain.Resolution {
	later := a
	tied := false
	switch {
	case a.EffectiveDate.IsZero() && b.EffectiveDate.IsZero():
		tied = true
	case a.EffectiveDate.IsZero():
		later = b
	case b.EffectiveDate.IsZero():
		later = a
	case a.EffectiveDate.Equal(b.EffectiveDate):
		tied = true
	case b.EffectiveDate.After(a.EffectiveDate):
		later = b
	}

	if tied {
		if a.Confidence == b.Confidence {
			return domain.ResolutionManualReview
		}
		higher := a
		if b.Confidence > a.Confidence {
			higher = b
		}
		if higher.Confidence < p.threshold {
			return domain.ResolutionManualReview
		}
		return domain.ResolutionUseHigherConfidence
	}

	if later.Confidence < p.threshold {
		return domain.ResolutionManualReview
	}
	return domain.ResolutionUseLaterEffectiveDate
}

// ApplyTransition moves a conflict from open to resolved or ignored.
// Repeating an identical transition is a no-op; every other transition is
// rejected without mutating the record.
func (p *Policy) ApplyTransition(c *domain.ConflictRecord, decision domain.ConflictStatus) error {
	if decision != domain.ConflictResolved && decision != domain.ConflictIgnored {
		return domain.WrapError(
			domain.ErrInvalidTransition,
			"apply transition",
			fmt.Errorf("decision %q is not a terminal status", decision),
		)
	}

	switch c.Status {
	case domain.ConflictOpen:
		c.Status = decision
		return nil
	case decision:
		// Idempotent repeat.
		return nil
	default:
		return domain.WrapError(
			domain.ErrInvalidTransition,
			"apply transition",
			fmt.Errorf("conflict %s is already %s", c.ID, c.Status),
		)
	}
}
