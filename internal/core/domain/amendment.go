package domain

import (
	"sort"
	"time"
)

// FieldChange is one entry of an amendment's change set. New is the
// authoritative replacement value; Prior is the value the amendment's text
// claims was previously in force. A change with an empty New is a narrative
// restatement: it is checked for consistency but never merged.
type FieldChange struct {
	Prior string `json:"prior,omitempty"`
	New   string `json:"new,omitempty"`
}

func (c FieldChange) RestatementOnly() bool {
	return c.New == ""
}

// Amendment modifies specific fields of a base lease as of an effective date.
// Immutable once created; its position in the chain is derived from
// (EffectiveDate, Seq), never stored authoritatively.
type Amendment struct {
	DocumentID    string `json:"document_id"`
	TargetLeaseID string `json:"target_lease_id"`
	// SupersedesID is the document this amendment claims to supersede.
	SupersedesID string `json:"supersedes_id,omitempty"`

	EffectiveDate time.Time `json:"effective_date,omitzero"`
	ExecutionDate time.Time `json:"execution_date,omitzero"`

	Changes map[string]FieldChange `json:"changes"`

	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missing_fields,omitempty"`

	// Seq is the ingestion sequence number assigned by the version graph.
	// It breaks effective-date ties; amendment ID string order never does.
	Seq uint64 `json:"seq"`

	// Suspect marks an amendment whose effective date precedes the base
	// lease commencement. It is still applied best-effort.
	Suspect bool `json:"suspect,omitempty"`
}

// Scoreable field names for amendment records.
const (
	AmendmentFieldTarget    = "target_lease_id"
	AmendmentFieldEffective = "effective_date"
	AmendmentFieldChanges   = "changes"
	AmendmentFieldSupersede = "supersedes_id"
	AmendmentFieldExecution = "execution_date"
)

func (a *Amendment) PopulatedFields() map[string]bool {
	return map[string]bool{
		AmendmentFieldTarget:    a.TargetLeaseID != "",
		AmendmentFieldEffective: !a.EffectiveDate.IsZero(),
		AmendmentFieldChanges:   len(a.Changes) > 0,
		AmendmentFieldSupersede: a.SupersedesID != "",
		AmendmentFieldExecution: !a.ExecutionDate.IsZero(),
	}
}

// ChangedFields returns the change-set field names in deterministic order.
func (a *Amendment) ChangedFields() []string {
	names := make([]string, 0, len(a.Changes))
	for name := range a.Changes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Amendment) Clone() Amendment {
	out := *a
	out.Changes = make(map[string]FieldChange, len(a.Changes))
	for k, v := range a.Changes {
		out.Changes[k] = v
	}
	out.MissingFields = append([]string(nil), a.MissingFields...)
	return out
}

// Before reports merge-fold ordering: effective date first, ingestion
// sequence breaks ties. Amendments with unknown effective dates sort last.
func (a *Amendment) Before(b *Amendment) bool {
	switch {
	case a.EffectiveDate.IsZero() && b.EffectiveDate.IsZero():
		return a.Seq < b.Seq
	case a.EffectiveDate.IsZero():
		return false
	case b.EffectiveDate.IsZero():
		return true
	case a.EffectiveDate.Equal(b.EffectiveDate):
		return a.Seq < b.Seq
	default:
		return a.EffectiveDate.Before(b.EffectiveDate)
	}
}
