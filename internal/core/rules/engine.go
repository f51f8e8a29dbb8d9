// Package rules runs a fixed battery of comparator rules over a lease group
// and produces typed conflict records. Rules are failure-isolated: a
// malformed value in one comparison is logged and skipped, never aborting
// the rest of the scan.
package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/policy"
)

type Config struct {
	// SquareFeetTolerance absorbs rounding noise in footage comparisons.
	SquareFeetTolerance float64
	// MoneyToleranceCents bounds disagreement for recomputed derivable
	// quantities. Direct rent claims are always exact to the cent.
	MoneyToleranceCents domain.Cents
}

func DefaultConfig() Config {
	return Config{
		SquareFeetTolerance: 0.5,
		MoneyToleranceCents: 1,
	}
}

type Engine struct {
	cfg    Config
	policy *policy.Policy
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewEngine(cfg Config, pol *policy.Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if pol == nil {
		pol = policy.New(policy.DefaultConfidenceThreshold)
	}
	return &Engine{
		cfg:    cfg,
		policy: pol,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

type rule struct {
	name string
	fn   func(*scanContext) ([]domain.ConflictRecord, error)
}

// Scan evaluates every rule against the group and returns the fresh set of
// open conflicts, each annotated with a suggested resolution.
func (e *Engine) Scan(group *domain.LeaseGroup) []domain.ConflictRecord {
	sc := newScanContext(group)

	battery := []rule{
		{"compare_dates", e.compareDates},
		{"compare_rent", e.compareRent},
		{"compare_parties", e.compareParties},
		{"compare_property", e.compareProperty},
		{"check_superseded", e.checkSuperseded},
		{"validate_calculations", e.validateCalculations},
	}

	var conflicts []domain.ConflictRecord
	for _, r := range battery {
		found, err := e.runRule(r, sc)
		if err != nil {
			e.logger.Warn("rule_evaluation_error",
				"rule", r.name,
				"lease_id", group.LeaseID,
				"error", err,
			)
		}
		conflicts = append(conflicts, found...)
	}

	for i := range conflicts {
		conflicts[i].Suggested = e.policy.Suggest(
			sc.evidence(conflicts[i].DocA),
			sc.evidence(conflicts[i].DocB),
		)
	}
	return conflicts
}

// runRule isolates one rule: evaluation errors and panics surface as errors
// to the caller while the remaining rules keep running.
func (e *Engine) runRule(r rule, sc *scanContext) (found []domain.ConflictRecord, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			found = nil
			err = fmt.Errorf("rule %s panicked: %v", r.name, rec)
		}
	}()
	return r.fn(sc)
}

func (e *Engine) newConflict(category domain.ConflictCategory, field, docA, docB, valueA, valueB, description string) domain.ConflictRecord {
	return domain.ConflictRecord{
		ID:          e.newID(),
		Category:    category,
		Severity:    category.Severity(),
		Field:       field,
		Description: description,
		DocA:        docA,
		DocB:        docB,
		ValueA:      valueA,
		ValueB:      valueB,
		Status:      domain.ConflictOpen,
		DetectedAt:  e.now().UTC(),
	}
}

// scanContext carries the group plus derived views the rules share: the
// comparable amendment chain, per-field setters, and document evidence.
type scanContext struct {
	group *domain.LeaseGroup

	// comparable excludes zero-confidence records: an extraction failure is
	// visible in history but never drives a conflict.
	comparable []domain.Amendment

	setters map[string]string // field -> document that last set it
}

func newScanContext(group *domain.LeaseGroup) *scanContext {
	sc := &scanContext{
		group:   group,
		setters: make(map[string]string),
	}
	for _, a := range group.Amendments {
		if a.Confidence <= 0 {
			continue
		}
		sc.comparable = append(sc.comparable, a)
	}
	sort.SliceStable(sc.comparable, func(i, j int) bool {
		return sc.comparable[i].Before(&sc.comparable[j])
	})
	for _, a := range sc.comparable {
		for field, change := range a.Changes {
			if !change.RestatementOnly() {
				sc.setters[field] = a.DocumentID
			}
		}
	}
	return sc
}

// setter names the document whose value currently stands for a field.
func (sc *scanContext) setter(field string) string {
	if id, ok := sc.setters[field]; ok {
		return id
	}
	return sc.group.LeaseID
}

// restatementClaim is one narrative reference to a prior value, paired with
// the value actually in force at that point in the amendment chain.
type restatementClaim struct {
	docID         string
	claimed       string
	inForce       string
	inForceSource string
}

// restatements walks the chain in effective order and yields every narrative
// prior-value claim for a field together with the then-current value.
// Authoritative new values advance the then-current state as they pass.
func (sc *scanContext) restatements(field string) []restatementClaim {
	current, ok := sc.group.Base.FieldValue(field)
	source := sc.group.LeaseID
	var claims []restatementClaim

	for _, a := range sc.comparable {
		change, present := a.Changes[field]
		if !present {
			continue
		}
		if change.Prior != "" && ok {
			claims = append(claims, restatementClaim{
				docID:         a.DocumentID,
				claimed:       change.Prior,
				inForce:       current,
				inForceSource: source,
			})
		}
		if !change.RestatementOnly() {
			current = change.New
			source = a.DocumentID
			ok = true
		}
	}
	return claims
}

// evidence resolves resolution-policy inputs for a document id. The base
// lease's claims take effect at commencement.
func (sc *scanContext) evidence(docID string) policy.DocumentEvidence {
	if docID == sc.group.LeaseID {
		return policy.DocumentEvidence{
			DocumentID:    docID,
			EffectiveDate: sc.group.Base.CommencementDate,
			Confidence:    sc.group.Base.Confidence,
		}
	}
	for _, a := range sc.group.Amendments {
		if a.DocumentID == docID {
			return policy.DocumentEvidence{
				DocumentID:    docID,
				EffectiveDate: a.EffectiveDate,
				Confidence:    a.Confidence,
			}
		}
	}
	return policy.DocumentEvidence{DocumentID: docID}
}
