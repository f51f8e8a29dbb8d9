// Package finance holds the cents-safe arithmetic behind the
// validate_calculations rule: derivable lease quantities are recomputed here
// and compared against stated values.
package finance

import (
	"errors"
	"math"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

var ErrZeroSquareFeet = errors.New("rentable square feet must be positive")

// AnnualRent derives annual rent from monthly rent.
func AnnualRent(monthly domain.Cents) domain.Cents {
	return monthly * 12
}

// RentPerSquareFoot derives annual rent per rentable square foot, rounded
// half-up to the cent.
func RentPerSquareFoot(monthly domain.Cents, rentableSquareFeet float64) (domain.Cents, error) {
	if rentableSquareFeet <= 0 {
		return 0, ErrZeroSquareFeet
	}
	psf := float64(AnnualRent(monthly)) / rentableSquareFeet
	return domain.Cents(math.Round(psf)), nil
}

// WithinTolerance reports whether two money amounts agree within tolerance
// cents. Tolerance zero demands exact agreement to the cent.
func WithinTolerance(a, b, tolerance domain.Cents) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// EscalatedRent applies an escalation to the current rent for the given
// number of periods.
func EscalatedRent(current domain.Cents, esc domain.RentEscalation, periods int) (domain.Cents, error) {
	if periods < 0 {
		return 0, errors.New("negative escalation periods")
	}
	switch esc.Type {
	case domain.EscalationFixedPercentage:
		out := float64(current) * math.Pow(1+esc.Percentage/100, float64(periods))
		return domain.Cents(math.Round(out)), nil
	case domain.EscalationFixedAmount:
		return current + esc.FixedAmount*domain.Cents(periods), nil
	default:
		return 0, errors.New("unsupported escalation type: " + string(esc.Type))
	}
}

// Prorate splits a full-period amount across applicable days, rounded
// half-up to the cent.
func Prorate(fullAmount domain.Cents, daysInPeriod, daysApplicable int) (domain.Cents, error) {
	if daysInPeriod <= 0 {
		return 0, errors.New("days in period must be positive")
	}
	if daysApplicable < 0 || daysApplicable > daysInPeriod {
		return 0, errors.New("applicable days out of range")
	}
	out := float64(fullAmount) * float64(daysApplicable) / float64(daysInPeriod)
	return domain.Cents(math.Round(out)), nil
}
