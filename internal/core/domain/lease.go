package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical field names shared by the extraction oracle contract, the merge
// fold, and the conflict rules. Amendments address lease fields by these names.
const (
	FieldTenant             = "tenant"
	FieldLandlord           = "landlord"
	FieldPropertyAddress    = "property_address"
	FieldRentableSquareFeet = "rentable_square_feet"
	FieldUsableSquareFeet   = "usable_square_feet"
	FieldCommencementDate   = "commencement_date"
	FieldExpirationDate     = "expiration_date"
	FieldBaseRentMonthly    = "base_rent_monthly"
	FieldBaseRentAnnual     = "base_rent_annual"
	FieldRentPerSquareFoot  = "rent_per_sqft"
	FieldSecurityDeposit    = "security_deposit"
	FieldEscalationSchedule = "escalation_schedule"
	FieldCAMTerms           = "cam_terms"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindParty
	KindMoney
	KindNumber
	KindDate
)

// fieldKinds drives parsing during the merge fold and value comparison inside
// the rules. Unknown field names fold as free text.
var fieldKinds = map[string]FieldKind{
	FieldTenant:             KindParty,
	FieldLandlord:           KindParty,
	FieldPropertyAddress:    KindText,
	FieldRentableSquareFeet: KindNumber,
	FieldUsableSquareFeet:   KindNumber,
	FieldCommencementDate:   KindDate,
	FieldExpirationDate:     KindDate,
	FieldBaseRentMonthly:    KindMoney,
	FieldBaseRentAnnual:     KindMoney,
	FieldRentPerSquareFoot:  KindMoney,
	FieldSecurityDeposit:    KindMoney,
	FieldEscalationSchedule: KindText,
	FieldCAMTerms:           KindText,
}

func KindOfField(name string) FieldKind {
	if kind, ok := fieldKinds[name]; ok {
		return kind
	}
	return KindText
}

type Party struct {
	LegalName  string `json:"legal_name"`
	EntityType string `json:"entity_type,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

func (a Address) Empty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.ZipCode == ""
}

type EscalationType string

const (
	EscalationFixedPercentage EscalationType = "fixed_percentage"
	EscalationFixedAmount     EscalationType = "fixed_amount"
	EscalationCPI             EscalationType = "cpi"
)

type RentEscalation struct {
	Type            EscalationType `json:"type"`
	EffectiveDate   time.Time      `json:"effective_date,omitzero"`
	Percentage      float64        `json:"percentage,omitempty"`
	FixedAmount     Cents          `json:"fixed_amount,omitempty"`
	FrequencyMonths int            `json:"frequency_months,omitempty"`
}

type CAMTerms struct {
	BaseYear           int     `json:"base_year,omitempty"`
	BaseAmount         Cents   `json:"base_amount,omitempty"`
	TenantSharePercent float64 `json:"tenant_share_percent,omitempty"`
	AnnualCapPercent   float64 `json:"annual_cap_percent,omitempty"`
	Description        string  `json:"description,omitempty"`
}

// Lease is the merged, current state of a base lease after folding all known
// amendments in effective order. Only the version graph mutates it.
type Lease struct {
	DocumentID string `json:"document_id"`

	Tenant   Party `json:"tenant"`
	Landlord Party `json:"landlord"`

	PropertyAddress    Address `json:"property_address"`
	RentableSquareFeet float64 `json:"rentable_square_feet,omitempty"`
	UsableSquareFeet   float64 `json:"usable_square_feet,omitempty"`

	CommencementDate time.Time `json:"commencement_date,omitzero"`
	ExpirationDate   time.Time `json:"expiration_date,omitzero"`

	BaseRentMonthly   Cents            `json:"base_rent_monthly,omitempty"`
	BaseRentAnnual    Cents            `json:"base_rent_annual,omitempty"`
	RentPerSquareFoot Cents            `json:"rent_per_sqft,omitempty"`
	Escalations       []RentEscalation `json:"escalations,omitempty"`

	SecurityDeposit Cents    `json:"security_deposit,omitempty"`
	CAM             CAMTerms `json:"cam,omitzero"`

	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// PopulatedFields reports which scoreable fields carry a non-zero value.
// The confidence scorer consumes this map.
func (l *Lease) PopulatedFields() map[string]bool {
	return map[string]bool{
		FieldTenant:             l.Tenant.LegalName != "",
		FieldLandlord:           l.Landlord.LegalName != "",
		FieldPropertyAddress:    !l.PropertyAddress.Empty(),
		FieldRentableSquareFeet: l.RentableSquareFeet > 0,
		FieldUsableSquareFeet:   l.UsableSquareFeet > 0,
		FieldCommencementDate:   !l.CommencementDate.IsZero(),
		FieldExpirationDate:     !l.ExpirationDate.IsZero(),
		FieldBaseRentMonthly:    l.BaseRentMonthly > 0,
		FieldBaseRentAnnual:     l.BaseRentAnnual > 0,
		FieldRentPerSquareFoot:  l.RentPerSquareFoot > 0,
		FieldSecurityDeposit:    l.SecurityDeposit > 0,
		FieldEscalationSchedule: len(l.Escalations) > 0,
		FieldCAMTerms:           l.CAM.Description != "" || l.CAM.TenantSharePercent > 0,
	}
}

// FieldValue renders the lease's current value for a canonical field name in
// the same spelling the rules compare against amendment claims.
func (l *Lease) FieldValue(name string) (string, bool) {
	switch name {
	case FieldTenant:
		return l.Tenant.LegalName, l.Tenant.LegalName != ""
	case FieldLandlord:
		return l.Landlord.LegalName, l.Landlord.LegalName != ""
	case FieldPropertyAddress:
		return l.PropertyAddress.String(), !l.PropertyAddress.Empty()
	case FieldRentableSquareFeet:
		return formatSquareFeet(l.RentableSquareFeet), l.RentableSquareFeet > 0
	case FieldUsableSquareFeet:
		return formatSquareFeet(l.UsableSquareFeet), l.UsableSquareFeet > 0
	case FieldCommencementDate:
		return formatDate(l.CommencementDate), !l.CommencementDate.IsZero()
	case FieldExpirationDate:
		return formatDate(l.ExpirationDate), !l.ExpirationDate.IsZero()
	case FieldBaseRentMonthly:
		return l.BaseRentMonthly.String(), l.BaseRentMonthly > 0
	case FieldBaseRentAnnual:
		return l.BaseRentAnnual.String(), l.BaseRentAnnual > 0
	case FieldRentPerSquareFoot:
		return l.RentPerSquareFoot.String(), l.RentPerSquareFoot > 0
	case FieldSecurityDeposit:
		return l.SecurityDeposit.String(), l.SecurityDeposit > 0
	case FieldCAMTerms:
		return l.CAM.Description, l.CAM.Description != ""
	}
	return "", false
}

// SetField folds one amendment value onto the lease, parsing by field kind.
func (l *Lease) SetField(name, raw string) error {
	switch name {
	case FieldTenant:
		l.Tenant = Party{LegalName: strings.TrimSpace(raw)}
	case FieldLandlord:
		l.Landlord = Party{LegalName: strings.TrimSpace(raw)}
	case FieldPropertyAddress:
		l.PropertyAddress = Address{Street: strings.TrimSpace(raw)}
	case FieldRentableSquareFeet:
		v, err := ParseSquareFeet(raw)
		if err != nil {
			return err
		}
		l.RentableSquareFeet = v
	case FieldUsableSquareFeet:
		v, err := ParseSquareFeet(raw)
		if err != nil {
			return err
		}
		l.UsableSquareFeet = v
	case FieldCommencementDate:
		t, err := ParseDate(raw)
		if err != nil {
			return err
		}
		l.CommencementDate = t
	case FieldExpirationDate:
		t, err := ParseDate(raw)
		if err != nil {
			return err
		}
		l.ExpirationDate = t
	case FieldBaseRentMonthly:
		c, err := ParseCents(raw)
		if err != nil {
			return err
		}
		l.BaseRentMonthly = c
	case FieldBaseRentAnnual:
		c, err := ParseCents(raw)
		if err != nil {
			return err
		}
		l.BaseRentAnnual = c
	case FieldRentPerSquareFoot:
		c, err := ParseCents(raw)
		if err != nil {
			return err
		}
		l.RentPerSquareFoot = c
	case FieldSecurityDeposit:
		c, err := ParseCents(raw)
		if err != nil {
			return err
		}
		l.SecurityDeposit = c
	case FieldCAMTerms:
		l.CAM.Description = strings.TrimSpace(raw)
	default:
		return fmt.Errorf("set field: unknown lease field %q", name)
	}
	return nil
}

// Clone returns a deep copy safe to publish outside the group lock.
func (l *Lease) Clone() Lease {
	out := *l
	out.Escalations = append([]RentEscalation(nil), l.Escalations...)
	out.MissingFields = append([]string(nil), l.MissingFields...)
	return out
}

func formatSquareFeet(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseSquareFeet accepts "5000", "5,000", "5000.5".
func ParseSquareFeet(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse square feet %q: %w", raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("parse square feet %q: negative", raw)
	}
	return v, nil
}

// dateLayouts covers the spellings legal documents and the oracle produce.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unrecognized format", raw)
}
