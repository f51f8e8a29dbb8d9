package rules

import (
	"errors"
	"fmt"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

var moneyFields = []string{
	domain.FieldBaseRentMonthly,
	domain.FieldBaseRentAnnual,
	domain.FieldRentPerSquareFoot,
	domain.FieldSecurityDeposit,
}

// compareRent demands exact-to-the-cent agreement on money claims. A value
// an amendment references only as historical context must still match the
// then-current value at that point of the chain.
func (e *Engine) compareRent(sc *scanContext) ([]domain.ConflictRecord, error) {
	var conflicts []domain.ConflictRecord
	var errs []error

	for _, field := range moneyFields {
		for _, claim := range sc.restatements(field) {
			claimed, err := domain.ParseCents(claim.claimed)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s doc %s: %w", field, claim.docID, err))
				continue
			}
			inForce, err := domain.ParseCents(claim.inForce)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s doc %s: %w", field, claim.inForceSource, err))
				continue
			}
			if claimed == inForce {
				continue
			}
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryRentConflict,
				field,
				claim.inForceSource,
				claim.docID,
				inForce.String(),
				claimed.String(),
				fmt.Sprintf("document %s states %s as %s but the value in force is %s",
					claim.docID, field, claimed, inForce),
			))
		}
	}

	return conflicts, errors.Join(errs...)
}
