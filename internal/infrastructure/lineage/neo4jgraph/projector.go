package neo4jgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// Projector mirrors lease amendment chains into Neo4j so lineage can be
// walked with Cypher. Projection is never on the ingestion critical path;
// callers treat failures as log-and-continue.
type Projector struct {
	driver   neo4j.DriverWithContext
	database string
}

func New(ctx context.Context, uri, username, password, database string) (*Projector, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Projector{driver: driver, database: database}, nil
}

func (p *Projector) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}

// ProjectGroup rewrites the group's full chain: one Lease node, one
// Amendment node per amendment, AMENDS edges to the lease and FOLLOWS edges
// between consecutive amendments in effective order.
func (p *Projector) ProjectGroup(ctx context.Context, group *domain.LeaseGroup) error {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: p.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MERGE (l:Lease {id: $id})
SET l.tenant = $tenant,
    l.landlord = $landlord,
    l.property = $property,
    l.monthly_rent_cents = $rent,
    l.confidence = $confidence,
    l.open_conflicts = $openConflicts
WITH l
OPTIONAL MATCH (l)<-[:AMENDS]-(a:Amendment)
DETACH DELETE a
`, map[string]any{
			"id":            group.LeaseID,
			"tenant":        group.Merged.Tenant.LegalName,
			"landlord":      group.Merged.Landlord.LegalName,
			"property":      group.Merged.PropertyAddress.String(),
			"rent":          int64(group.Merged.BaseRentMonthly),
			"confidence":    group.Merged.Confidence,
			"openConflicts": len(group.OpenConflicts()),
		}); err != nil {
			return nil, fmt.Errorf("project lease node: %w", err)
		}

		prev := ""
		for _, a := range group.Amendments {
			params := map[string]any{
				"leaseID":    group.LeaseID,
				"id":         a.DocumentID,
				"seq":        int64(a.Seq),
				"confidence": a.Confidence,
				"suspect":    a.Suspect,
				"fields":     a.ChangedFields(),
			}
			if !a.EffectiveDate.IsZero() {
				params["effective"] = a.EffectiveDate.Format("2006-01-02")
			} else {
				params["effective"] = ""
			}

			if _, err := tx.Run(ctx, `
MATCH (l:Lease {id: $leaseID})
CREATE (a:Amendment {
	id: $id,
	effective_date: $effective,
	seq: $seq,
	confidence: $confidence,
	suspect: $suspect,
	changed_fields: $fields
})
CREATE (a)-[:AMENDS]->(l)
`, params); err != nil {
				return nil, fmt.Errorf("project amendment node %s: %w", a.DocumentID, err)
			}

			if prev != "" {
				if _, err := tx.Run(ctx, `
MATCH (prev:Amendment {id: $prev}), (next:Amendment {id: $next})
CREATE (next)-[:FOLLOWS]->(prev)
`, map[string]any{"prev": prev, "next": a.DocumentID}); err != nil {
					return nil, fmt.Errorf("project follows edge: %w", err)
				}
			}
			prev = a.DocumentID
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("project group %s: %w", group.LeaseID, err)
	}
	return nil
}
