package usecase

import (
	"context"
	"log/slog"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/ports"
	"github.com/tbraverman/leaselens/internal/core/versiongraph"
)

// QueryUseCase is the read side over reconciled state plus the conflict
// lifecycle entry point.
type QueryUseCase struct {
	graph  *versiongraph.Graph
	store  ports.GroupStore
	logger *slog.Logger

	// lowConfidenceThreshold marks leases for the analytics low-confidence
	// list. It mirrors the resolution policy threshold.
	lowConfidenceThreshold float64
}

func NewQueryUseCase(graph *versiongraph.Graph, store ports.GroupStore, lowConfidenceThreshold float64, logger *slog.Logger) *QueryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if lowConfidenceThreshold <= 0 || lowConfidenceThreshold > 1 {
		lowConfidenceThreshold = 0.7
	}
	return &QueryUseCase{
		graph:                  graph,
		store:                  store,
		logger:                 logger,
		lowConfidenceThreshold: lowConfidenceThreshold,
	}
}

func (uc *QueryUseCase) ListLeases(_ context.Context) ([]domain.LeaseGroup, error) {
	return uc.graph.Snapshots(), nil
}

func (uc *QueryUseCase) GetLease(_ context.Context, leaseID string) (*domain.LeaseGroup, error) {
	snap, err := uc.graph.Snapshot(leaseID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// History returns the amendment chain in effective order, including
// zero-confidence records that never participate in comparisons.
func (uc *QueryUseCase) History(_ context.Context, leaseID string) ([]domain.Amendment, error) {
	snap, err := uc.graph.Snapshot(leaseID)
	if err != nil {
		return nil, err
	}
	return snap.Amendments, nil
}

// ListConflicts filters a group's conflicts by status. An empty leaseID
// spans every group; an empty status returns all records.
func (uc *QueryUseCase) ListConflicts(_ context.Context, leaseID string, status domain.ConflictStatus) ([]domain.ConflictRecord, error) {
	var groups []domain.LeaseGroup
	if leaseID == "" {
		groups = uc.graph.Snapshots()
	} else {
		snap, err := uc.graph.Snapshot(leaseID)
		if err != nil {
			return nil, err
		}
		groups = []domain.LeaseGroup{snap}
	}

	out := []domain.ConflictRecord{}
	for _, g := range groups {
		for _, c := range g.Conflicts {
			if status == "" || c.Status == status {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Resolve applies a terminal lifecycle decision and persists the group.
func (uc *QueryUseCase) Resolve(ctx context.Context, conflictID string, decision domain.ConflictStatus) (*domain.ConflictRecord, error) {
	record, err := uc.graph.ResolveConflict(conflictID, decision)
	if err != nil {
		return nil, err
	}

	if uc.store != nil {
		// Find the owning group to persist the state change.
		for _, g := range uc.graph.Snapshots() {
			for _, c := range g.Conflicts {
				if c.ID == conflictID {
					if saveErr := uc.store.SaveGroup(ctx, &g); saveErr != nil {
						uc.logger.Error("persist_group_failed", "lease_id", g.LeaseID, "error", saveErr)
					}
					return &record, nil
				}
			}
		}
	}
	return &record, nil
}

// Summary aggregates conflict and confidence health across the portfolio.
func (uc *QueryUseCase) Summary(_ context.Context) (*domain.PortfolioSummary, error) {
	groups := uc.graph.Snapshots()

	summary := &domain.PortfolioSummary{
		OpenConflictsBySeverity: make(map[domain.ConflictSeverity]int),
		OpenConflictsByCategory: make(map[domain.ConflictCategory]int),
	}

	var confidenceSum float64
	for _, g := range groups {
		summary.TotalLeases++
		summary.TotalAmendments += len(g.Amendments)
		confidenceSum += g.Merged.Confidence
		if g.Merged.Confidence < uc.lowConfidenceThreshold {
			summary.LowConfidenceLeases = append(summary.LowConfidenceLeases, g.LeaseID)
		}
		for _, c := range g.Conflicts {
			if c.Status != domain.ConflictOpen {
				continue
			}
			summary.OpenConflicts++
			summary.OpenConflictsBySeverity[c.Severity]++
			summary.OpenConflictsByCategory[c.Category]++
		}
	}
	if summary.TotalLeases > 0 {
		summary.AverageConfidence = confidenceSum / float64(summary.TotalLeases)
	}
	return summary, nil
}
