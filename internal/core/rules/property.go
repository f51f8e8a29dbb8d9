package rules

import (
	"errors"
	"fmt"
	"math"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// compareProperty checks address and footage claims. Addresses compare after
// normalization; footage gets a small numeric tolerance for rounding.
func (e *Engine) compareProperty(sc *scanContext) ([]domain.ConflictRecord, error) {
	var conflicts []domain.ConflictRecord
	var errs []error

	for _, claim := range sc.restatements(domain.FieldPropertyAddress) {
		if NormalizeAddress(claim.claimed) == NormalizeAddress(claim.inForce) {
			continue
		}
		conflicts = append(conflicts, e.newConflict(
			domain.CategoryPropertyConflict,
			domain.FieldPropertyAddress,
			claim.inForceSource,
			claim.docID,
			claim.inForce,
			claim.claimed,
			fmt.Sprintf("document %s describes the premises as %q but the address of record is %q",
				claim.docID, claim.claimed, claim.inForce),
		))
	}

	for _, field := range []string{domain.FieldRentableSquareFeet, domain.FieldUsableSquareFeet} {
		for _, claim := range sc.restatements(field) {
			claimed, err := domain.ParseSquareFeet(claim.claimed)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s doc %s: %w", field, claim.docID, err))
				continue
			}
			inForce, err := domain.ParseSquareFeet(claim.inForce)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s doc %s: %w", field, claim.inForceSource, err))
				continue
			}
			if math.Abs(claimed-inForce) <= e.cfg.SquareFeetTolerance {
				continue
			}
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryPropertyConflict,
				field,
				claim.inForceSource,
				claim.docID,
				claim.inForce,
				claim.claimed,
				fmt.Sprintf("document %s states %s as %v but the value in force is %v",
					claim.docID, field, claimed, inForce),
			))
		}
	}

	return conflicts, errors.Join(errs...)
}
