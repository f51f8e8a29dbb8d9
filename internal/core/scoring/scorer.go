// Package scoring computes normalized completeness scores for extracted
// records. The extraction oracle's self-reported confidence is never trusted;
// this is the one authoritative source downstream logic sees.
package scoring

import (
	"errors"
	"sort"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

const (
	bonusPerOptionalField = 0.05
	maxOptionalBonus      = 0.2
)

// Score computes completeness for a record's field-presence map.
//
//	base  = populated critical / total critical
//	bonus = min(0.2, 0.05 * populated optional)
//	score = min(1.0, base + bonus)
//
// The returned missing set lists absent critical fields, sorted. An empty
// critical-field list is a configuration fault, never a silent divide by zero.
func Score(fields map[string]bool, critical, optional []string) (float64, []string, error) {
	if len(critical) == 0 {
		return 0, nil, domain.WrapError(
			domain.ErrConfiguration,
			"score record",
			errors.New("empty critical field list"),
		)
	}

	populated := 0
	var missing []string
	for _, name := range critical {
		if fields[name] {
			populated++
			continue
		}
		missing = append(missing, name)
	}
	sort.Strings(missing)

	base := float64(populated) / float64(len(critical))

	bonus := 0.0
	for _, name := range optional {
		if fields[name] {
			bonus += bonusPerOptionalField
		}
	}
	if bonus > maxOptionalBonus {
		bonus = maxOptionalBonus
	}

	confidence := base + bonus
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence, missing, nil
}
