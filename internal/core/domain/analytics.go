package domain

// PortfolioSummary aggregates reconciliation health across every group.
type PortfolioSummary struct {
	TotalLeases     int `json:"total_leases"`
	TotalAmendments int `json:"total_amendments"`

	OpenConflicts           int                      `json:"open_conflicts"`
	OpenConflictsBySeverity map[ConflictSeverity]int `json:"open_conflicts_by_severity"`
	OpenConflictsByCategory map[ConflictCategory]int `json:"open_conflicts_by_category"`

	AverageConfidence   float64  `json:"average_confidence"`
	LowConfidenceLeases []string `json:"low_confidence_leases,omitempty"`
}
