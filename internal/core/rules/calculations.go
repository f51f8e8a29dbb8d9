package rules

import (
	"fmt"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/finance"
)

// validateCalculations recomputes derivable quantities on the merged state
// and compares them to stated values within tolerance.
func (e *Engine) validateCalculations(sc *scanContext) ([]domain.ConflictRecord, error) {
	var conflicts []domain.ConflictRecord
	merged := &sc.group.Merged

	if merged.BaseRentMonthly > 0 && merged.BaseRentAnnual > 0 {
		derived := finance.AnnualRent(merged.BaseRentMonthly)
		if !finance.WithinTolerance(derived, merged.BaseRentAnnual, e.cfg.MoneyToleranceCents) {
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryCalculationError,
				domain.FieldBaseRentAnnual,
				sc.setter(domain.FieldBaseRentMonthly),
				sc.setter(domain.FieldBaseRentAnnual),
				derived.String(),
				merged.BaseRentAnnual.String(),
				fmt.Sprintf("stated annual rent %s disagrees with %s derived from monthly rent %s",
					merged.BaseRentAnnual, derived, merged.BaseRentMonthly),
			))
		}
	}

	if merged.BaseRentMonthly > 0 && merged.RentableSquareFeet > 0 && merged.RentPerSquareFoot > 0 {
		derived, err := finance.RentPerSquareFoot(merged.BaseRentMonthly, merged.RentableSquareFeet)
		if err != nil {
			return conflicts, fmt.Errorf("derive rent per square foot: %w", err)
		}
		if !finance.WithinTolerance(derived, merged.RentPerSquareFoot, e.cfg.MoneyToleranceCents) {
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryCalculationError,
				domain.FieldRentPerSquareFoot,
				sc.setter(domain.FieldBaseRentMonthly),
				sc.setter(domain.FieldRentPerSquareFoot),
				derived.String(),
				merged.RentPerSquareFoot.String(),
				fmt.Sprintf("stated rent per square foot %s disagrees with derived %s (monthly %s over %v RSF)",
					merged.RentPerSquareFoot, derived, merged.BaseRentMonthly, merged.RentableSquareFeet),
			))
		}
	}

	return conflicts, nil
}
