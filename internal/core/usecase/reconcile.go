package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/ports"
	"github.com/tbraverman/leaselens/internal/core/scoring"
	"github.com/tbraverman/leaselens/internal/core/versiongraph"
)

// ScoringFields names the critical and optional field sets per record type.
// These drive the deterministic confidence score; the oracle's self-reported
// confidence never does.
type ScoringFields struct {
	LeaseCritical     []string
	LeaseOptional     []string
	AmendmentCritical []string
	AmendmentOptional []string
}

func DefaultScoringFields() ScoringFields {
	return ScoringFields{
		LeaseCritical: []string{
			domain.FieldTenant,
			domain.FieldLandlord,
			domain.FieldPropertyAddress,
			domain.FieldCommencementDate,
			domain.FieldExpirationDate,
			domain.FieldBaseRentMonthly,
		},
		LeaseOptional: []string{
			domain.FieldRentableSquareFeet,
			domain.FieldUsableSquareFeet,
			domain.FieldBaseRentAnnual,
			domain.FieldRentPerSquareFoot,
			domain.FieldSecurityDeposit,
			domain.FieldEscalationSchedule,
			domain.FieldCAMTerms,
		},
		AmendmentCritical: []string{
			domain.AmendmentFieldTarget,
			domain.AmendmentFieldEffective,
			domain.AmendmentFieldChanges,
		},
		AmendmentOptional: []string{
			domain.AmendmentFieldSupersede,
			domain.AmendmentFieldExecution,
		},
	}
}

// ReconcileUseCase coordinates structured records into the version graph:
// it recomputes confidence, parks amendments whose base lease has not
// arrived yet, replays them when it does, and persists the updated group.
type ReconcileUseCase struct {
	graph   *versiongraph.Graph
	fields  ScoringFields
	store   ports.GroupStore
	lineage ports.LineageProjector
	logger  *slog.Logger

	mu sync.Mutex
	// pending holds amendments keyed by the lease id they target, waiting
	// for that base lease to arrive.
	pending map[string][]domain.Amendment
}

func NewReconcileUseCase(
	graph *versiongraph.Graph,
	fields ScoringFields,
	store ports.GroupStore,
	lineage ports.LineageProjector,
	logger *slog.Logger,
) *ReconcileUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileUseCase{
		graph:   graph,
		fields:  fields,
		store:   store,
		lineage: lineage,
		logger:  logger,
		pending: make(map[string][]domain.Amendment),
	}
}

// ReconcileLease registers a base lease, replays any amendments that were
// parked for it, and returns the final snapshot with every conflict the
// base scan and the replay opened.
func (uc *ReconcileUseCase) ReconcileLease(ctx context.Context, lease domain.Lease) (domain.LeaseGroup, []domain.ConflictRecord, error) {
	if err := uc.scoreLease(&lease); err != nil {
		return domain.LeaseGroup{}, nil, err
	}

	snap, opened, err := uc.graph.AddLease(lease)
	if err != nil {
		return domain.LeaseGroup{}, nil, err
	}

	for _, parked := range uc.takePending(lease.DocumentID) {
		next, found, err := uc.graph.AddAmendment(parked)
		if err != nil {
			uc.logger.Error("replay_parked_amendment_failed",
				"lease_id", lease.DocumentID,
				"document_id", parked.DocumentID,
				"error", err,
			)
			continue
		}
		snap = next
		opened = append(opened, found...)
	}

	uc.persist(ctx, &snap)
	return snap, opened, nil
}

// ReconcileAmendment folds an amendment into its group. An amendment whose
// target lease is unknown is parked, not rejected: parked is true and the
// amendment replays when the base lease arrives.
func (uc *ReconcileUseCase) ReconcileAmendment(ctx context.Context, a domain.Amendment) (snap domain.LeaseGroup, opened []domain.ConflictRecord, parked bool, err error) {
	if err := uc.scoreAmendment(&a); err != nil {
		return domain.LeaseGroup{}, nil, false, err
	}

	snap, opened, err = uc.graph.AddAmendment(a)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnknownLease) {
			uc.park(a)
			uc.logger.Info("amendment_parked",
				"document_id", a.DocumentID,
				"target_lease_id", a.TargetLeaseID,
			)
			return domain.LeaseGroup{}, nil, true, nil
		}
		return domain.LeaseGroup{}, nil, false, err
	}

	uc.persist(ctx, &snap)
	return snap, opened, false, nil
}

// Rehydrate restores graph state from persisted snapshots after a restart.
func (uc *ReconcileUseCase) Rehydrate(ctx context.Context) error {
	if uc.store == nil {
		return nil
	}
	groups, err := uc.store.LoadGroups(ctx)
	if err != nil {
		return err
	}
	uc.graph.Restore(groups)
	uc.logger.Info("graph_rehydrated", "groups", len(groups))
	return nil
}

// PendingCount reports how many amendments are parked for a lease.
func (uc *ReconcileUseCase) PendingCount(leaseID string) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.pending[leaseID])
}

// TotalPending reports how many amendments are parked across all leases.
func (uc *ReconcileUseCase) TotalPending() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	total := 0
	for _, parked := range uc.pending {
		total += len(parked)
	}
	return total
}

func (uc *ReconcileUseCase) scoreLease(lease *domain.Lease) error {
	score, missing, err := scoring.Score(lease.PopulatedFields(), uc.fields.LeaseCritical, uc.fields.LeaseOptional)
	if err != nil {
		return err
	}
	lease.Confidence = score
	lease.MissingFields = mergeMissing(lease.MissingFields, missing)
	return nil
}

func (uc *ReconcileUseCase) scoreAmendment(a *domain.Amendment) error {
	score, missing, err := scoring.Score(a.PopulatedFields(), uc.fields.AmendmentCritical, uc.fields.AmendmentOptional)
	if err != nil {
		return err
	}
	a.Confidence = score
	a.MissingFields = mergeMissing(a.MissingFields, missing)
	return nil
}

// mergeMissing unions the extraction oracle's self-reported gaps with the
// scorer's own computation. The oracle seeds the set, never replaces it.
func mergeMissing(seeded, computed []string) []string {
	seen := make(map[string]bool, len(seeded)+len(computed))
	var out []string
	for _, name := range append(computed, seeded...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (uc *ReconcileUseCase) park(a domain.Amendment) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, existing := range uc.pending[a.TargetLeaseID] {
		if existing.DocumentID == a.DocumentID {
			return
		}
	}
	uc.pending[a.TargetLeaseID] = append(uc.pending[a.TargetLeaseID], a)
}

func (uc *ReconcileUseCase) takePending(leaseID string) []domain.Amendment {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	parked := uc.pending[leaseID]
	delete(uc.pending, leaseID)
	return parked
}

// persist writes the snapshot and projects lineage. Both are best effort:
// graph state is already updated and a storage hiccup must not fail the
// ingestion that produced it.
func (uc *ReconcileUseCase) persist(ctx context.Context, group *domain.LeaseGroup) {
	if uc.store != nil {
		if err := uc.store.SaveGroup(ctx, group); err != nil {
			uc.logger.Error("persist_group_failed", "lease_id", group.LeaseID, "error", err)
		}
	}
	if uc.lineage != nil {
		if err := uc.lineage.ProjectGroup(ctx, group); err != nil {
			uc.logger.Warn("project_lineage_failed", "lease_id", group.LeaseID, "error", err)
		}
	}
}
