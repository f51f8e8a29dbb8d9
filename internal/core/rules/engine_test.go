package rules

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/policy"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testEngine() *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(DefaultConfig(), policy.New(0.7), logger)
}

func baseLease() domain.Lease {
	return domain.Lease{
		DocumentID:         "lease-1",
		Tenant:             domain.Party{LegalName: "Acme, LLC"},
		Landlord:           domain.Party{LegalName: "Plaza Holdings LLC"},
		PropertyAddress:    domain.Address{Street: "100 Main Street", City: "Springfield", State: "IL", ZipCode: "62701"},
		RentableSquareFeet: 5000,
		CommencementDate:   date(2024, 1, 1),
		ExpirationDate:     date(2029, 1, 1),
		BaseRentMonthly:    domain.Cents(1_000_000),
		Confidence:         1.0,
	}
}

func newGroup(base domain.Lease, amendments ...domain.Amendment) *domain.LeaseGroup {
	return &domain.LeaseGroup{
		LeaseID:    base.DocumentID,
		Base:       base,
		Merged:     base.Clone(),
		Amendments: amendments,
	}
}

func amendment(id string, effective time.Time, supersedes string, changes map[string]domain.FieldChange) domain.Amendment {
	return domain.Amendment{
		DocumentID:    id,
		TargetLeaseID: "lease-1",
		SupersedesID:  supersedes,
		EffectiveDate: effective,
		Changes:       changes,
		Confidence:    0.9,
	}
}

func conflictsOf(found []domain.ConflictRecord, category domain.ConflictCategory) []domain.ConflictRecord {
	var out []domain.ConflictRecord
	for _, c := range found {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

func TestScanCleanGroupHasNoConflicts(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$10,000.00", New: "$11,000.00"},
		}))

	found := testEngine().Scan(group)
	if len(found) != 0 {
		t.Fatalf("expected no conflicts, got %+v", found)
	}
}

func TestScanRentRestatementMismatchIsCritical(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$10,500.00"},
		}))

	found := conflictsOf(testEngine().Scan(group), domain.CategoryRentConflict)
	if len(found) != 1 {
		t.Fatalf("expected exactly one rent conflict, got %d", len(found))
	}
	c := found[0]
	if c.Severity != domain.SeverityCritical {
		t.Fatalf("expected CRITICAL, got %s", c.Severity)
	}
	if c.Field != domain.FieldBaseRentMonthly {
		t.Fatalf("expected field base_rent_monthly, got %s", c.Field)
	}
	if c.ValueA != "$10,000.00" || c.ValueB != "$10,500.00" {
		t.Fatalf("expected evidence ($10,000.00, $10,500.00), got (%s, %s)", c.ValueA, c.ValueB)
	}
	if c.DocA != "lease-1" || c.DocB != "amend-1" {
		t.Fatalf("expected docs (lease-1, amend-1), got (%s, %s)", c.DocA, c.DocB)
	}
	if c.Suggested != domain.ResolutionUseLaterEffectiveDate {
		t.Fatalf("expected use_later_effective_date, got %s", c.Suggested)
	}
}

func TestScanRentOneCentDifferenceAlwaysFires(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$10,000.01"},
		}))

	found := conflictsOf(testEngine().Scan(group), domain.CategoryRentConflict)
	if len(found) != 1 {
		t.Fatalf("one-cent difference must conflict, got %d records", len(found))
	}
	if found[0].Severity != domain.SeverityCritical {
		t.Fatalf("expected CRITICAL, got %s", found[0].Severity)
	}
}

func TestScanRentExactToTheCentNeverFires(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "10000.00"},
		}))

	if found := conflictsOf(testEngine().Scan(group), domain.CategoryRentConflict); len(found) != 0 {
		t.Fatalf("equal amounts with different spellings must not conflict: %+v", found)
	}
}

func TestScanLowConfidenceAmendmentSuggestsManualReview(t *testing.T) {
	a := amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$10,500.00"},
		})
	a.Confidence = 0.5
	group := newGroup(baseLease(), a)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryRentConflict)
	if len(found) != 1 {
		t.Fatalf("expected one rent conflict, got %d", len(found))
	}
	if found[0].Suggested != domain.ResolutionManualReview {
		t.Fatalf("expected manual_review below threshold, got %s", found[0].Suggested)
	}
}

func TestScanRestatementTracksChainNotBase(t *testing.T) {
	// Second amendment restates the rent set by the first, not the base rent.
	first := amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$10,000.00", New: "$11,000.00"},
		})
	second := amendment("amend-2", date(2025, 6, 1), "amend-1",
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$11,000.00", New: "$12,000.00"},
		})
	group := newGroup(baseLease(), first, second)

	if found := conflictsOf(testEngine().Scan(group), domain.CategoryRentConflict); len(found) != 0 {
		t.Fatalf("chain-consistent restatements must not conflict: %+v", found)
	}

	// Now make the second amendment restate the original, stale rent.
	second.Changes[domain.FieldBaseRentMonthly] = domain.FieldChange{Prior: "$10,000.00", New: "$12,000.00"}
	group = newGroup(baseLease(), first, second)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryRentConflict)
	if len(found) != 1 {
		t.Fatalf("stale restatement must conflict, got %d records", len(found))
	}
	if found[0].DocA != "amend-1" || found[0].DocB != "amend-2" {
		t.Fatalf("expected conflict between amend-1 and amend-2, got (%s, %s)", found[0].DocA, found[0].DocB)
	}
}

func TestScanPartyFormattingOnlyIsNotAConflict(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldTenant: {Prior: "ACME L.L.C."},
		}))

	if found := conflictsOf(testEngine().Scan(group), domain.CategoryPartyConflict); len(found) != 0 {
		t.Fatalf("formatting-only party difference must not conflict: %+v", found)
	}
}

func TestScanPartyTrueMismatchIsMedium(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldTenant: {Prior: "Apex Industries LLC"},
		}))

	found := conflictsOf(testEngine().Scan(group), domain.CategoryPartyConflict)
	if len(found) != 1 {
		t.Fatalf("expected one party conflict, got %d", len(found))
	}
	if found[0].Severity != domain.SeverityMedium {
		t.Fatalf("expected MEDIUM, got %s", found[0].Severity)
	}
}

func TestScanFootageWithinToleranceIsNotAConflict(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldRentableSquareFeet: {Prior: "5000.4"},
		}))

	if found := conflictsOf(testEngine().Scan(group), domain.CategoryPropertyConflict); len(found) != 0 {
		t.Fatalf("footage inside tolerance must not conflict: %+v", found)
	}
}

func TestScanFootageBeyondToleranceIsHigh(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "lease-1",
		map[string]domain.FieldChange{
			domain.FieldRentableSquareFeet: {Prior: "5200"},
		}))

	found := conflictsOf(testEngine().Scan(group), domain.CategoryPropertyConflict)
	if len(found) != 1 {
		t.Fatalf("expected one property conflict, got %d", len(found))
	}
	if found[0].Severity != domain.SeverityHigh {
		t.Fatalf("expected HIGH, got %s", found[0].Severity)
	}
}

func TestScanSupersededWrongReferenceFiresDespiteMatchingFields(t *testing.T) {
	first := amendment("amend-1", date(2024, 6, 1), "lease-1", nil)
	second := amendment("amend-2", date(2025, 6, 1), "lease-1", nil) // should reference amend-1
	group := newGroup(baseLease(), first, second)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryTermConflict)
	if len(found) != 1 {
		t.Fatalf("expected one term conflict, got %d", len(found))
	}
	c := found[0]
	if c.Severity != domain.SeverityHigh {
		t.Fatalf("expected HIGH, got %s", c.Severity)
	}
	if c.Field != domain.AmendmentFieldSupersede {
		t.Fatalf("expected supersedes_id field, got %s", c.Field)
	}
	if c.ValueA != "amend-1" || c.ValueB != "lease-1" {
		t.Fatalf("expected evidence (amend-1, lease-1), got (%s, %s)", c.ValueA, c.ValueB)
	}
}

func TestScanSupersededMissingReferenceFires(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2024, 6, 1), "", nil))

	found := conflictsOf(testEngine().Scan(group), domain.CategoryTermConflict)
	if len(found) != 1 {
		t.Fatalf("expected one term conflict, got %d", len(found))
	}
}

func TestScanEffectiveDateBeforeCommencementIsDateSequence(t *testing.T) {
	group := newGroup(baseLease(), amendment("amend-1", date(2023, 6, 1), "lease-1", nil))

	found := conflictsOf(testEngine().Scan(group), domain.CategoryDateSequence)
	if len(found) != 1 {
		t.Fatalf("expected one date_sequence conflict, got %d", len(found))
	}
	if found[0].Severity != domain.SeverityHigh {
		t.Fatalf("expected HIGH, got %s", found[0].Severity)
	}
}

func TestScanExpirationNotAfterCommencement(t *testing.T) {
	base := baseLease()
	base.ExpirationDate = date(2023, 1, 1)
	group := newGroup(base)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryTermConflict)
	if len(found) != 1 {
		t.Fatalf("expected one term conflict, got %d", len(found))
	}
}

func TestScanDuplicateEffectiveDates(t *testing.T) {
	first := amendment("amend-1", date(2024, 6, 1), "lease-1", nil)
	second := amendment("amend-2", date(2024, 6, 1), "amend-1", nil)
	group := newGroup(baseLease(), first, second)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryDateSequence)
	if len(found) != 1 {
		t.Fatalf("expected one date_sequence conflict, got %d", len(found))
	}
}

func TestScanCalculationErrorOnRentPerSquareFoot(t *testing.T) {
	base := baseLease()
	base.RentPerSquareFoot = domain.Cents(2600) // derived is $24.00
	group := newGroup(base)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryCalculationError)
	if len(found) != 1 {
		t.Fatalf("expected one calculation_error, got %d", len(found))
	}
	c := found[0]
	if c.Severity != domain.SeverityMedium {
		t.Fatalf("expected MEDIUM, got %s", c.Severity)
	}
	if c.ValueA != "$24.00" || c.ValueB != "$26.00" {
		t.Fatalf("expected evidence ($24.00, $26.00), got (%s, %s)", c.ValueA, c.ValueB)
	}
}

func TestScanCalculationErrorOnAnnualRent(t *testing.T) {
	base := baseLease()
	base.BaseRentAnnual = domain.Cents(13_000_000) // monthly*12 is $120,000
	group := newGroup(base)

	found := conflictsOf(testEngine().Scan(group), domain.CategoryCalculationError)
	if len(found) != 1 {
		t.Fatalf("expected one calculation_error, got %d", len(found))
	}
}

func TestScanZeroConfidenceAmendmentIsExcluded(t *testing.T) {
	a := amendment("amend-1", date(2024, 6, 1), "", // would otherwise conflict twice
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$99,999.00"},
		})
	a.Confidence = 0
	group := newGroup(baseLease(), a)

	if found := testEngine().Scan(group); len(found) != 0 {
		t.Fatalf("zero-confidence records must not drive conflicts: %+v", found)
	}
}

func TestScanMalformedValueDoesNotSuppressOtherRules(t *testing.T) {
	a := amendment("amend-1", date(2024, 6, 1), "", // missing supersede reference
		map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly:    {Prior: "ten thousand dollars"},
			domain.FieldRentableSquareFeet: {Prior: "about half a floor"},
		})
	group := newGroup(baseLease(), a)

	found := testEngine().Scan(group)
	if len(conflictsOf(found, domain.CategoryTermConflict)) != 1 {
		t.Fatalf("check_superseded must still run after malformed comparisons, got %+v", found)
	}
	if len(conflictsOf(found, domain.CategoryRentConflict)) != 0 {
		t.Fatalf("malformed money must be skipped, not reported: %+v", found)
	}
}

func TestScanSeveritiesAreFixedByCategory(t *testing.T) {
	cases := map[domain.ConflictCategory]domain.ConflictSeverity{
		domain.CategoryRentConflict:     domain.SeverityCritical,
		domain.CategoryTermConflict:     domain.SeverityHigh,
		domain.CategoryPropertyConflict: domain.SeverityHigh,
		domain.CategoryDateSequence:     domain.SeverityHigh,
		domain.CategoryPartyConflict:    domain.SeverityMedium,
		domain.CategoryCalculationError: domain.SeverityMedium,
	}
	for category, want := range cases {
		if got := category.Severity(); got != want {
			t.Fatalf("category %s: expected %s, got %s", category, want, got)
		}
	}
}
