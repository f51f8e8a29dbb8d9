package rules

import (
	"fmt"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// compareDates checks chronological sanity: expiration after commencement,
// amendments effective inside the lease term, and no two amendments opening
// the same effective window.
func (e *Engine) compareDates(sc *scanContext) ([]domain.ConflictRecord, error) {
	var conflicts []domain.ConflictRecord
	merged := &sc.group.Merged

	if !merged.CommencementDate.IsZero() && !merged.ExpirationDate.IsZero() &&
		!merged.ExpirationDate.After(merged.CommencementDate) {
		conflicts = append(conflicts, e.newConflict(
			domain.CategoryTermConflict,
			domain.FieldExpirationDate,
			sc.setter(domain.FieldCommencementDate),
			sc.setter(domain.FieldExpirationDate),
			merged.CommencementDate.Format("2006-01-02"),
			merged.ExpirationDate.Format("2006-01-02"),
			fmt.Sprintf("expiration %s is not after commencement %s",
				merged.ExpirationDate.Format("2006-01-02"),
				merged.CommencementDate.Format("2006-01-02")),
		))
	}

	commencement := sc.group.Base.CommencementDate
	for _, a := range sc.comparable {
		if a.EffectiveDate.IsZero() || commencement.IsZero() {
			continue
		}
		if a.EffectiveDate.Before(commencement) {
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryDateSequence,
				domain.AmendmentFieldEffective,
				sc.group.LeaseID,
				a.DocumentID,
				commencement.Format("2006-01-02"),
				a.EffectiveDate.Format("2006-01-02"),
				fmt.Sprintf("amendment %s effective %s precedes lease commencement %s",
					a.DocumentID,
					a.EffectiveDate.Format("2006-01-02"),
					commencement.Format("2006-01-02")),
			))
		}
	}

	// Two amendments with the same effective date claim the same window.
	for i := 0; i+1 < len(sc.comparable); i++ {
		a, b := sc.comparable[i], sc.comparable[i+1]
		if a.EffectiveDate.IsZero() || b.EffectiveDate.IsZero() {
			continue
		}
		if a.EffectiveDate.Equal(b.EffectiveDate) {
			conflicts = append(conflicts, e.newConflict(
				domain.CategoryDateSequence,
				domain.AmendmentFieldEffective,
				a.DocumentID,
				b.DocumentID,
				a.EffectiveDate.Format("2006-01-02"),
				b.EffectiveDate.Format("2006-01-02"),
				fmt.Sprintf("amendments %s and %s share effective date %s",
					a.DocumentID, b.DocumentID, a.EffectiveDate.Format("2006-01-02")),
			))
		}
	}

	return conflicts, nil
}
