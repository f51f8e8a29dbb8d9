package ollama

import (
	"strings"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// Oracle payloads carry money as display strings and dates as YYYY-MM-DD.
// Unparseable values are dropped rather than failing the extraction; the
// confidence scorer accounts for the resulting gaps.

type partyPayload struct {
	LegalName  string `json:"legal_name"`
	EntityType string `json:"entity_type"`
}

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type escalationPayload struct {
	Type            string  `json:"type"`
	EffectiveDate   string  `json:"effective_date"`
	Percentage      float64 `json:"percentage"`
	FixedAmount     string  `json:"fixed_amount"`
	FrequencyMonths int     `json:"frequency_months"`
}

type camPayload struct {
	BaseYear           int     `json:"base_year"`
	BaseAmount         string  `json:"base_amount"`
	TenantSharePercent float64 `json:"tenant_share_percent"`
	AnnualCapPercent   float64 `json:"annual_cap_percent"`
	Description        string  `json:"description"`
}

type leasePayload struct {
	Tenant             partyPayload        `json:"tenant"`
	Landlord           partyPayload        `json:"landlord"`
	PropertyAddress    addressPayload      `json:"property_address"`
	RentableSquareFeet float64             `json:"rentable_square_feet"`
	UsableSquareFeet   float64             `json:"usable_square_feet"`
	CommencementDate   string              `json:"commencement_date"`
	ExpirationDate     string              `json:"expiration_date"`
	BaseRentMonthly    string              `json:"base_rent_monthly"`
	BaseRentAnnual     string              `json:"base_rent_annual"`
	RentPerSquareFoot  string              `json:"rent_per_sqft"`
	SecurityDeposit    string              `json:"security_deposit"`
	Escalations        []escalationPayload `json:"escalations"`
	CAM                camPayload          `json:"cam"`
	MissingFields      []string            `json:"missing_fields"`
}

type changePayload struct {
	Prior string `json:"prior"`
	New   string `json:"new"`
}

type amendmentPayload struct {
	TargetLeaseID string                   `json:"target_lease_id"`
	SupersedesID  string                   `json:"supersedes_id"`
	EffectiveDate string                   `json:"effective_date"`
	ExecutionDate string                   `json:"execution_date"`
	Changes       map[string]changePayload `json:"changes"`
	MissingFields []string                 `json:"missing_fields"`
}

func (p *leasePayload) toDomain() *domain.Lease {
	lease := &domain.Lease{
		Tenant:   domain.Party{LegalName: strings.TrimSpace(p.Tenant.LegalName), EntityType: strings.TrimSpace(p.Tenant.EntityType)},
		Landlord: domain.Party{LegalName: strings.TrimSpace(p.Landlord.LegalName), EntityType: strings.TrimSpace(p.Landlord.EntityType)},
		PropertyAddress: domain.Address{
			Street:  strings.TrimSpace(p.PropertyAddress.Street),
			City:    strings.TrimSpace(p.PropertyAddress.City),
			State:   strings.TrimSpace(p.PropertyAddress.State),
			ZipCode: strings.TrimSpace(p.PropertyAddress.ZipCode),
		},
		RentableSquareFeet: p.RentableSquareFeet,
		UsableSquareFeet:   p.UsableSquareFeet,
		CommencementDate:   parseDate(p.CommencementDate),
		ExpirationDate:     parseDate(p.ExpirationDate),
		BaseRentMonthly:    parseMoney(p.BaseRentMonthly),
		BaseRentAnnual:     parseMoney(p.BaseRentAnnual),
		RentPerSquareFoot:  parseMoney(p.RentPerSquareFoot),
		SecurityDeposit:    parseMoney(p.SecurityDeposit),
		CAM: domain.CAMTerms{
			BaseYear:           p.CAM.BaseYear,
			BaseAmount:         parseMoney(p.CAM.BaseAmount),
			TenantSharePercent: p.CAM.TenantSharePercent,
			AnnualCapPercent:   p.CAM.AnnualCapPercent,
			Description:        strings.TrimSpace(p.CAM.Description),
		},
		MissingFields: cleanFieldNames(p.MissingFields),
	}

	for _, esc := range p.Escalations {
		escType := domain.EscalationType(strings.ToLower(strings.TrimSpace(esc.Type)))
		switch escType {
		case domain.EscalationFixedPercentage, domain.EscalationFixedAmount, domain.EscalationCPI:
		default:
			continue
		}
		lease.Escalations = append(lease.Escalations, domain.RentEscalation{
			Type:            escType,
			EffectiveDate:   parseDate(esc.EffectiveDate),
			Percentage:      esc.Percentage,
			FixedAmount:     parseMoney(esc.FixedAmount),
			FrequencyMonths: esc.FrequencyMonths,
		})
	}
	return lease
}

func (p *amendmentPayload) toDomain() *domain.Amendment {
	amendment := &domain.Amendment{
		TargetLeaseID: strings.TrimSpace(p.TargetLeaseID),
		SupersedesID:  strings.TrimSpace(p.SupersedesID),
		EffectiveDate: parseDate(p.EffectiveDate),
		ExecutionDate: parseDate(p.ExecutionDate),
		Changes:       make(map[string]domain.FieldChange, len(p.Changes)),
		MissingFields: cleanFieldNames(p.MissingFields),
	}
	for field, change := range p.Changes {
		name := strings.TrimSpace(strings.ToLower(field))
		if name == "" {
			continue
		}
		amendment.Changes[name] = domain.FieldChange{
			Prior: strings.TrimSpace(change.Prior),
			New:   strings.TrimSpace(change.New),
		}
	}
	return amendment
}

func cleanFieldNames(raw []string) []string {
	var out []string
	for _, name := range raw {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "January 2, 2006", "01/02/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseMoney(raw string) domain.Cents {
	cents, err := domain.ParseCents(raw)
	if err != nil {
		return 0
	}
	return cents
}
