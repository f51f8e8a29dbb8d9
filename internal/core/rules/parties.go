package rules

import (
	"fmt"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// compareParties flags true party mismatches. Names are normalized first so
// casing, punctuation, and legal-entity suffixes never count as conflicts.
func (e *Engine) compareParties(sc *scanContext) ([]domain.ConflictRecord, error) {
	var conflicts []domain.ConflictRecord

	for _, field := range []string{domain.FieldTenant, domain.FieldLandlord} {
		for _, claim := range sc.restatements(field) {
			if NormalizeParty(claim.claimed) == NormalizeParty(claim.inForce) {
				continue
			}
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryPartyConflict,
				field,
				claim.inForceSource,
				claim.docID,
				claim.inForce,
				claim.claimed,
				fmt.Sprintf("document %s names %s %q but the party of record is %q",
					claim.docID, field, claim.claimed, claim.inForce),
			))
		}
	}

	return conflicts, nil
}
