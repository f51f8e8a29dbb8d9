package versiongraph

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/policy"
	"github.com/tbraverman/leaselens/internal/core/rules"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testGraph() *Graph {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pol := policy.New(policy.DefaultConfidenceThreshold)
	return New(rules.NewEngine(rules.DefaultConfig(), pol, logger), pol, logger)
}

func baseLease() domain.Lease {
	return domain.Lease{
		DocumentID:         "lease-1",
		Tenant:             domain.Party{LegalName: "Acme LLC"},
		Landlord:           domain.Party{LegalName: "Plaza Holdings LLC"},
		PropertyAddress:    domain.Address{Street: "100 Main Street", City: "Springfield", State: "IL", ZipCode: "62701"},
		RentableSquareFeet: 5000,
		CommencementDate:   date(2024, 1, 1),
		ExpirationDate:     date(2029, 1, 1),
		BaseRentMonthly:    domain.Cents(1_000_000),
		Confidence:         1.0,
	}
}

func rentAmendment(id string, effective time.Time, supersedes, prior, next string) domain.Amendment {
	return domain.Amendment{
		DocumentID:    id,
		TargetLeaseID: "lease-1",
		SupersedesID:  supersedes,
		EffectiveDate: effective,
		Changes: map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: prior, New: next},
		},
		Confidence: 0.9,
	}
}

func TestReAddLeaseReplacesBaseInPlace(t *testing.T) {
	g := testGraph()

	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}
	a := domain.Amendment{
		DocumentID:    "amend-1",
		TargetLeaseID: "lease-1",
		SupersedesID:  "lease-1",
		EffectiveDate: date(2024, 6, 1),
		Changes: map[string]domain.FieldChange{
			domain.FieldExpirationDate: {New: "2031-01-01"},
		},
		Confidence: 0.9,
	}
	if _, _, err := g.AddAmendment(a); err != nil {
		t.Fatalf("add amendment: %v", err)
	}

	corrected := baseLease()
	corrected.BaseRentMonthly = domain.Cents(1_050_000)
	snap, _, err := g.AddLease(corrected)
	if err != nil {
		t.Fatalf("re-add lease: %v", err)
	}
	if snap.Base.BaseRentMonthly != domain.Cents(1_050_000) {
		t.Fatalf("re-add must replace the base record, got rent %s", snap.Base.BaseRentMonthly)
	}
	if snap.Merged.BaseRentMonthly != domain.Cents(1_050_000) {
		t.Fatalf("merged state must be rebuilt from the new base, got rent %s", snap.Merged.BaseRentMonthly)
	}
	if !snap.Merged.ExpirationDate.Equal(date(2031, 1, 1)) {
		t.Fatalf("amendments must re-fold onto the new base, got expiration %s", snap.Merged.ExpirationDate)
	}
	if len(snap.Amendments) != 1 {
		t.Fatalf("re-add must keep the amendment chain, length %d", len(snap.Amendments))
	}
}

func TestReAddIdenticalLeaseOpensNothing(t *testing.T) {
	g := testGraph()

	first, _, err := g.AddLease(baseLease())
	if err != nil {
		t.Fatalf("add lease: %v", err)
	}
	second, opened, err := g.AddLease(baseLease())
	if err != nil {
		t.Fatalf("re-add lease: %v", err)
	}
	if len(opened) != 0 {
		t.Fatalf("identical re-add opened conflicts: %+v", opened)
	}
	if second.Merged.BaseRentMonthly != first.Merged.BaseRentMonthly {
		t.Fatalf("identical re-add changed merged rent to %s", second.Merged.BaseRentMonthly)
	}
}

func TestAddLeaseReportsConflictsItOpens(t *testing.T) {
	g := testGraph()

	inverted := baseLease()
	inverted.CommencementDate = date(2025, 1, 1)
	inverted.ExpirationDate = date(2024, 1, 1)
	snap, opened, err := g.AddLease(inverted)
	if err != nil {
		t.Fatalf("add lease: %v", err)
	}
	if len(opened) == 0 {
		t.Fatal("expiration before commencement must be reported as newly opened")
	}
	if len(opened) != len(snap.OpenConflicts()) {
		t.Fatalf("opened %d conflicts but snapshot holds %d open", len(opened), len(snap.OpenConflicts()))
	}
	var term int
	for _, c := range opened {
		if c.Category == domain.CategoryTermConflict {
			term++
		}
	}
	if term != 1 {
		t.Fatalf("expected one term conflict, got %+v", opened)
	}
}

func TestAddLeaseRejectsEmptyID(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(domain.Lease{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddAmendmentUnknownLease(t *testing.T) {
	g := testGraph()
	_, _, err := g.AddAmendment(rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,000.00", "$11,000.00"))
	if !domain.IsKind(err, domain.ErrUnknownLease) {
		t.Fatalf("expected ErrUnknownLease, got %v", err)
	}
}

func TestAddAmendmentFoldsIntoMergedState(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}

	snap, opened, err := g.AddAmendment(rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,000.00", "$11,000.00"))
	if err != nil {
		t.Fatalf("add amendment: %v", err)
	}
	if len(opened) != 0 {
		t.Fatalf("consistent amendment opened conflicts: %+v", opened)
	}
	if snap.Merged.BaseRentMonthly != domain.Cents(1_100_000) {
		t.Fatalf("expected merged rent $11,000.00, got %s", snap.Merged.BaseRentMonthly)
	}
	if snap.Base.BaseRentMonthly != domain.Cents(1_000_000) {
		t.Fatalf("base lease must stay immutable, got %s", snap.Base.BaseRentMonthly)
	}
}

func TestRestatementOnlyChangeIsNeverMerged(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}

	a := domain.Amendment{
		DocumentID:    "amend-1",
		TargetLeaseID: "lease-1",
		SupersedesID:  "lease-1",
		EffectiveDate: date(2024, 6, 1),
		Changes: map[string]domain.FieldChange{
			domain.FieldBaseRentMonthly: {Prior: "$10,500.00"},
		},
		Confidence: 0.9,
	}
	snap, opened, err := g.AddAmendment(a)
	if err != nil {
		t.Fatalf("add amendment: %v", err)
	}
	if snap.Merged.BaseRentMonthly != domain.Cents(1_000_000) {
		t.Fatalf("narrative restatement must not change merged rent, got %s", snap.Merged.BaseRentMonthly)
	}
	if len(opened) != 1 || opened[0].Category != domain.CategoryRentConflict {
		t.Fatalf("expected one rent conflict from the mismatched restatement, got %+v", opened)
	}
}

func TestAddAmendmentReplayIsANoOp(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}

	a := rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,000.00", "$11,000.00")
	if _, _, err := g.AddAmendment(a); err != nil {
		t.Fatalf("add amendment: %v", err)
	}
	snap, opened, err := g.AddAmendment(a)
	if err != nil {
		t.Fatalf("replay amendment: %v", err)
	}
	if len(opened) != 0 {
		t.Fatalf("replay opened conflicts: %+v", opened)
	}
	if len(snap.Amendments) != 1 {
		t.Fatalf("replay duplicated the amendment, chain length %d", len(snap.Amendments))
	}
}

func TestMergeConvergesForEveryIngestionOrder(t *testing.T) {
	amendments := []domain.Amendment{
		rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,000.00", "$11,000.00"),
		rentAmendment("amend-2", date(2025, 6, 1), "amend-1", "$11,000.00", "$12,000.00"),
		{
			DocumentID:    "amend-3",
			TargetLeaseID: "lease-1",
			SupersedesID:  "amend-2",
			EffectiveDate: date(2026, 6, 1),
			Changes: map[string]domain.FieldChange{
				domain.FieldExpirationDate: {New: "2031-01-01"},
			},
			Confidence: 0.85,
		},
	}

	orders := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	var reference *domain.LeaseGroup
	for _, order := range orders {
		g := testGraph()
		if _, _, err := g.AddLease(baseLease()); err != nil {
			t.Fatalf("add lease: %v", err)
		}
		for _, idx := range order {
			if _, _, err := g.AddAmendment(amendments[idx]); err != nil {
				t.Fatalf("order %v: add amendment %d: %v", order, idx, err)
			}
		}
		snap, err := g.Snapshot("lease-1")
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if reference == nil {
			ref := snap
			reference = &ref
			continue
		}
		if snap.Merged.BaseRentMonthly != reference.Merged.BaseRentMonthly {
			t.Fatalf("order %v: merged rent %s diverges from %s",
				order, snap.Merged.BaseRentMonthly, reference.Merged.BaseRentMonthly)
		}
		if !snap.Merged.ExpirationDate.Equal(reference.Merged.ExpirationDate) {
			t.Fatalf("order %v: merged expiration %s diverges from %s",
				order, snap.Merged.ExpirationDate, reference.Merged.ExpirationDate)
		}
		for i := range snap.Amendments {
			if snap.Amendments[i].DocumentID != reference.Amendments[i].DocumentID {
				t.Fatalf("order %v: chain position %d is %s, want %s",
					order, i, snap.Amendments[i].DocumentID, reference.Amendments[i].DocumentID)
			}
		}
	}
}

func TestPreCommencementAmendmentIsSuspectButApplied(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}

	snap, opened, err := g.AddAmendment(rentAmendment("amend-1", date(2023, 6, 1), "lease-1", "$10,000.00", "$9,000.00"))
	if err != nil {
		t.Fatalf("add amendment: %v", err)
	}
	if !snap.Amendments[0].Suspect {
		t.Fatal("pre-commencement amendment must be marked suspect")
	}
	if snap.Merged.BaseRentMonthly != domain.Cents(900_000) {
		t.Fatalf("suspect amendment still applies, merged rent %s", snap.Merged.BaseRentMonthly)
	}
	var sequence int
	for _, c := range opened {
		if c.Category == domain.CategoryDateSequence {
			sequence++
		}
	}
	if sequence != 1 {
		t.Fatalf("expected one date_sequence conflict, got %+v", opened)
	}
}

func TestResolvedConflictSurvivesRescan(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}

	a := rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,500.00", "$11,000.00")
	_, opened, err := g.AddAmendment(a)
	if err != nil {
		t.Fatalf("add amendment: %v", err)
	}
	if len(opened) != 1 {
		t.Fatalf("expected one opened conflict, got %+v", opened)
	}

	if _, err := g.ResolveConflict(opened[0].ID, domain.ConflictResolved); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// A later amendment triggers a rescan that re-detects the same fact with
	// the same evidence. The resolved record must stay resolved.
	_, opened, err = g.AddAmendment(rentAmendment("amend-2", date(2025, 6, 1), "amend-1", "$11,000.00", "$12,000.00"))
	if err != nil {
		t.Fatalf("add second amendment: %v", err)
	}
	if len(opened) != 0 {
		t.Fatalf("rescan reopened an unchanged resolved conflict: %+v", opened)
	}

	snap, err := g.Snapshot("lease-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var resolved int
	for _, c := range snap.Conflicts {
		if c.Status == domain.ConflictResolved {
			resolved++
		}
	}
	if resolved != 1 {
		t.Fatalf("expected the resolved record preserved, conflicts %+v", snap.Conflicts)
	}
}

func TestResolveConflictLifecycle(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}
	_, opened, err := g.AddAmendment(rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,500.00", "$11,000.00"))
	if err != nil {
		t.Fatalf("add amendment: %v", err)
	}
	id := opened[0].ID

	if _, err := g.ResolveConflict(id, domain.ConflictIgnored); err != nil {
		t.Fatalf("ignore: %v", err)
	}
	if _, err := g.ResolveConflict(id, domain.ConflictIgnored); err != nil {
		t.Fatalf("idempotent repeat must succeed: %v", err)
	}
	if _, err := g.ResolveConflict(id, domain.ConflictResolved); !domain.IsKind(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := g.ResolveConflict("missing", domain.ConflictResolved); !domain.IsKind(err, domain.ErrConflictNotFound) {
		t.Fatalf("expected ErrConflictNotFound, got %v", err)
	}
}

func TestRestoreRebuildsIndexAndSequence(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}
	_, opened, err := g.AddAmendment(rentAmendment("amend-1", date(2024, 6, 1), "lease-1", "$10,500.00", "$11,000.00"))
	if err != nil {
		t.Fatalf("add amendment: %v", err)
	}

	restored := testGraph()
	restored.Restore(g.Snapshots())

	if _, err := restored.ResolveConflict(opened[0].ID, domain.ConflictResolved); err != nil {
		t.Fatalf("resolve after restore: %v", err)
	}

	snap, _, err := restored.AddAmendment(rentAmendment("amend-2", date(2025, 6, 1), "amend-1", "$11,000.00", "$12,000.00"))
	if err != nil {
		t.Fatalf("add after restore: %v", err)
	}
	if snap.Amendments[1].Seq <= snap.Amendments[0].Seq {
		t.Fatalf("sequence did not resume past restored chain: %+v", snap.Amendments)
	}
}

func TestSnapshotsAreIsolatedCopies(t *testing.T) {
	g := testGraph()
	if _, _, err := g.AddLease(baseLease()); err != nil {
		t.Fatalf("add lease: %v", err)
	}
	snap, err := g.Snapshot("lease-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap.Merged.BaseRentMonthly = domain.Cents(1)

	again, err := g.Snapshot("lease-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if again.Merged.BaseRentMonthly != domain.Cents(1_000_000) {
		t.Fatalf("snapshot mutation leaked into the graph: %s", again.Merged.BaseRentMonthly)
	}
}

func TestConcurrentGroupsDoNotInterfere(t *testing.T) {
	g := testGraph()
	const groups = 8
	for i := 0; i < groups; i++ {
		base := baseLease()
		base.DocumentID = fmt.Sprintf("lease-%d", i)
		if _, _, err := g.AddLease(base); err != nil {
			t.Fatalf("add lease %d: %v", i, err)
		}
	}

	done := make(chan error, groups)
	for i := 0; i < groups; i++ {
		go func(i int) {
			leaseID := fmt.Sprintf("lease-%d", i)
			for j := 0; j < 10; j++ {
				a := rentAmendment(fmt.Sprintf("amend-%d-%d", i, j), date(2024, 6, 1).AddDate(0, j, 0), "", "", "$11,000.00")
				a.TargetLeaseID = leaseID
				a.SupersedesID = leaseID
				if j > 0 {
					a.SupersedesID = fmt.Sprintf("amend-%d-%d", i, j-1)
				}
				if _, _, err := g.AddAmendment(a); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(i)
	}
	for i := 0; i < groups; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent ingest: %v", err)
		}
	}

	for i := 0; i < groups; i++ {
		snap, err := g.Snapshot(fmt.Sprintf("lease-%d", i))
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		if len(snap.Amendments) != 10 {
			t.Fatalf("group %d chain length %d, want 10", i, len(snap.Amendments))
		}
	}
}
