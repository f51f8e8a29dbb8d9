package rules

import (
	"fmt"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// checkSuperseded verifies each amendment references the document it
// actually supersedes: the previous amendment in effective order, or the
// base lease for the first one. A missing or wrong reference is a conflict
// regardless of field-level agreement.
func (e *Engine) checkSuperseded(sc *scanContext) ([]domain.ConflictRecord, error) {
	var conflicts []domain.ConflictRecord

	expected := sc.group.LeaseID
	for _, a := range sc.comparable {
		if a.SupersedesID != expected {
			stated := a.SupersedesID
			description := fmt.Sprintf("amendment %s references %q as superseded but the prior document is %s",
				a.DocumentID, stated, expected)
			if stated == "" {
				description = fmt.Sprintf("amendment %s does not reference the document it supersedes (%s)",
					a.DocumentID, expected)
			}
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryTermConflict,
				domain.AmendmentFieldSupersede,
				expected,
				a.DocumentID,
				expected,
				stated,
				description,
			))
		}
		expected = a.DocumentID
	}

	return conflicts, nil
}
