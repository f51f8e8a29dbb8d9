// Package versiongraph holds the authoritative in-memory state of every
// lease group: base lease, ordered amendment chain, merged current state,
// and the conflict set. All mutation funnels through a per-group lock, so
// concurrent ingestion for different leases never serializes.
package versiongraph

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/policy"
)

// Scanner produces the fresh open-conflict set for a group. The rule engine
// implements it.
type Scanner interface {
	Scan(group *domain.LeaseGroup) []domain.ConflictRecord
}

type Graph struct {
	scanner Scanner
	policy  *policy.Policy
	logger  *slog.Logger
	now     func() time.Time

	seq atomic.Uint64

	mu sync.RWMutex
	// groups maps lease id to entry. The registry lock guards the maps only;
	// each entry carries its own lock for group state.
	groups    map[string]*groupEntry
	conflicts map[string]string // conflict id -> lease id
}

type groupEntry struct {
	mu    sync.Mutex
	group domain.LeaseGroup
}

func New(scanner Scanner, pol *policy.Policy, logger *slog.Logger) *Graph {
	if pol == nil {
		pol = policy.New(policy.DefaultConfidenceThreshold)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		scanner:   scanner,
		policy:    pol,
		logger:    logger,
		now:       time.Now,
		groups:    make(map[string]*groupEntry),
		conflicts: make(map[string]string),
	}
}

// AddLease registers a base lease as a new group. Re-adding a lease id that
// already exists replaces the group's base record in place: the merged state
// is rebuilt from the new base with every stored amendment re-folded on top,
// and the group is rescanned. Conflicts the scan newly opened are returned
// alongside the snapshot.
func (g *Graph) AddLease(lease domain.Lease) (domain.LeaseGroup, []domain.ConflictRecord, error) {
	if lease.DocumentID == "" {
		return domain.LeaseGroup{}, nil, domain.WrapError(domain.ErrInvalidInput, "add lease", errEmptyDocumentID)
	}

	g.mu.Lock()
	entry, exists := g.groups[lease.DocumentID]
	if !exists {
		entry = &groupEntry{group: domain.LeaseGroup{LeaseID: lease.DocumentID}}
		g.groups[lease.DocumentID] = entry
	}
	g.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.group.Base = lease.Clone()
	g.remerge(&entry.group)
	opened := g.rescan(&entry.group)
	entry.group.UpdatedAt = g.now().UTC()
	return entry.group.Clone(), opened, nil
}

// AddAmendment attaches an amendment to its target group, re-derives the
// merged state, and rescans for conflicts. It returns the updated snapshot
// and the conflicts the rescan newly opened. An amendment for a lease the
// graph has never seen fails with ErrUnknownLease and changes nothing.
func (g *Graph) AddAmendment(a domain.Amendment) (domain.LeaseGroup, []domain.ConflictRecord, error) {
	entry, err := g.entry(a.TargetLeaseID)
	if err != nil {
		return domain.LeaseGroup{}, nil, domain.WrapError(domain.ErrUnknownLease, "add amendment", err)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	group := &entry.group
	for i := range group.Amendments {
		if group.Amendments[i].DocumentID == a.DocumentID {
			// Same document replayed: nothing to add, nothing newly opened.
			return group.Clone(), nil, nil
		}
	}

	a = a.Clone()
	a.Seq = g.seq.Add(1)
	if !a.EffectiveDate.IsZero() && !group.Base.CommencementDate.IsZero() &&
		a.EffectiveDate.Before(group.Base.CommencementDate) {
		a.Suspect = true
	}
	group.Amendments = append(group.Amendments, a)
	sort.SliceStable(group.Amendments, func(i, j int) bool {
		return group.Amendments[i].Before(&group.Amendments[j])
	})

	g.remerge(group)
	opened := g.rescan(group)
	group.UpdatedAt = g.now().UTC()

	return group.Clone(), opened, nil
}

// Snapshot returns a deep copy of the group for a lease id.
func (g *Graph) Snapshot(leaseID string) (domain.LeaseGroup, error) {
	entry, err := g.entry(leaseID)
	if err != nil {
		return domain.LeaseGroup{}, domain.WrapError(domain.ErrLeaseNotFound, "snapshot", err)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.group.Clone(), nil
}

// Snapshots returns deep copies of every group, ordered by lease id.
func (g *Graph) Snapshots() []domain.LeaseGroup {
	g.mu.RLock()
	entries := make([]*groupEntry, 0, len(g.groups))
	for _, e := range g.groups {
		entries = append(entries, e)
	}
	g.mu.RUnlock()

	out := make([]domain.LeaseGroup, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.group.Clone())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaseID < out[j].LeaseID })
	return out
}

// ResolveConflict applies a terminal lifecycle decision to a conflict by id.
func (g *Graph) ResolveConflict(conflictID string, decision domain.ConflictStatus) (domain.ConflictRecord, error) {
	g.mu.RLock()
	leaseID, ok := g.conflicts[conflictID]
	var entry *groupEntry
	if ok {
		entry = g.groups[leaseID]
	}
	g.mu.RUnlock()
	if entry == nil {
		return domain.ConflictRecord{}, domain.WrapError(domain.ErrConflictNotFound, "resolve conflict", errUnknownConflict(conflictID))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	for i := range entry.group.Conflicts {
		if entry.group.Conflicts[i].ID != conflictID {
			continue
		}
		if err := g.policy.ApplyTransition(&entry.group.Conflicts[i], decision); err != nil {
			return domain.ConflictRecord{}, err
		}
		entry.group.UpdatedAt = g.now().UTC()
		return entry.group.Conflicts[i], nil
	}
	return domain.ConflictRecord{}, domain.WrapError(domain.ErrConflictNotFound, "resolve conflict", errUnknownConflict(conflictID))
}

// Restore rehydrates the graph from persisted snapshots. It rebuilds the
// conflict index and resumes the ingestion sequence past the highest seen.
func (g *Graph) Restore(groups []domain.LeaseGroup) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var maxSeq uint64
	for _, group := range groups {
		g.groups[group.LeaseID] = &groupEntry{group: group.Clone()}
		for _, c := range group.Conflicts {
			g.conflicts[c.ID] = group.LeaseID
		}
		for _, a := range group.Amendments {
			if a.Seq > maxSeq {
				maxSeq = a.Seq
			}
		}
	}
	if g.seq.Load() < maxSeq {
		g.seq.Store(maxSeq)
	}
}

func (g *Graph) entry(leaseID string) (*groupEntry, error) {
	g.mu.RLock()
	entry, ok := g.groups[leaseID]
	g.mu.RUnlock()
	if !ok {
		return nil, errUnknownLease(leaseID)
	}
	return entry, nil
}

// remerge rebuilds the merged state from the base lease by folding every
// authoritative change in chain order. The fold never depends on arrival
// order, so any ingestion permutation converges to the same state.
func (g *Graph) remerge(group *domain.LeaseGroup) {
	merged := group.Base.Clone()
	for i := range group.Amendments {
		a := &group.Amendments[i]
		if a.Confidence <= 0 {
			continue
		}
		for _, field := range a.ChangedFields() {
			change := a.Changes[field]
			if change.RestatementOnly() {
				continue
			}
			if err := merged.SetField(field, change.New); err != nil {
				g.logger.Warn("merge_field_error",
					"lease_id", group.LeaseID,
					"document_id", a.DocumentID,
					"field", field,
					"error", err,
				)
			}
		}
	}
	group.Merged = merged
}

// rescan replaces the group's open conflicts with a fresh scan while
// preserving resolved and ignored records. A closed record whose underlying
// fact resurfaces with different evidence is dropped in favor of the fresh
// open record; identical evidence keeps it closed. Returns the records that
// are newly open compared to the previous state.
func (g *Graph) rescan(group *domain.LeaseGroup) []domain.ConflictRecord {
	fresh := g.scanner.Scan(group)

	prevOpen := make(map[string]domain.ConflictRecord)
	prevClosed := make(map[string]domain.ConflictRecord)
	for _, c := range group.Conflicts {
		if c.Status == domain.ConflictOpen {
			prevOpen[c.Key()] = c
		} else {
			prevClosed[c.Key()] = c
		}
	}

	next := make([]domain.ConflictRecord, 0, len(fresh)+len(prevClosed))
	var opened []domain.ConflictRecord
	seen := make(map[string]bool)

	for _, c := range fresh {
		key := c.Key()
		seen[key] = true
		if prior, ok := prevOpen[key]; ok && prior.SameEvidence(&c) {
			// Same fact still open: keep the original id and detection time.
			next = append(next, prior)
			continue
		}
		if closed, ok := prevClosed[key]; ok && closed.SameEvidence(&c) {
			// A human already disposed of this exact contradiction.
			next = append(next, closed)
			continue
		}
		next = append(next, c)
		opened = append(opened, c)
	}

	// Closed records whose fact no longer scans stay on the group for audit.
	for key, closed := range prevClosed {
		if !seen[key] {
			next = append(next, closed)
		}
	}

	sort.SliceStable(next, func(i, j int) bool {
		if !next[i].DetectedAt.Equal(next[j].DetectedAt) {
			return next[i].DetectedAt.Before(next[j].DetectedAt)
		}
		return next[i].Key() < next[j].Key()
	})

	g.reindex(group, next)
	group.Conflicts = next
	return opened
}

// reindex updates the conflict id index under the registry lock.
func (g *Graph) reindex(group *domain.LeaseGroup, next []domain.ConflictRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range group.Conflicts {
		delete(g.conflicts, c.ID)
	}
	for _, c := range next {
		g.conflicts[c.ID] = group.LeaseID
	}
}
