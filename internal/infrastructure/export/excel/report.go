package excel

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tbraverman/leaselens/internal/core/domain"
)

// Exporter renders the portfolio conflict report as an xlsx workbook with
// one row per conflict and a lease summary sheet.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

const (
	conflictSheet = "Conflicts"
	leaseSheet    = "Leases"
)

func (e *Exporter) ConflictReport(_ context.Context, groups []domain.LeaseGroup) (io.Reader, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", conflictSheet)
	if _, err := f.NewSheet(leaseSheet); err != nil {
		return nil, fmt.Errorf("create lease sheet: %w", err)
	}

	if err := writeConflictSheet(f, groups); err != nil {
		return nil, err
	}
	if err := writeLeaseSheet(f, groups); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf, nil
}

func writeConflictSheet(f *excelize.File, groups []domain.LeaseGroup) error {
	headers := []any{
		"Lease", "Conflict ID", "Category", "Severity", "Field",
		"Document A", "Value A", "Document B", "Value B",
		"Status", "Suggested Resolution", "Detected At", "Description",
	}
	if err := f.SetSheetRow(conflictSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write conflict headers: %w", err)
	}

	row := 2
	for _, group := range groups {
		for _, c := range group.Conflicts {
			cells := []any{
				group.LeaseID, c.ID, string(c.Category), string(c.Severity), c.Field,
				c.DocA, c.ValueA, c.DocB, c.ValueB,
				string(c.Status), string(c.Suggested), c.DetectedAt.Format("2006-01-02 15:04:05"), c.Description,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return fmt.Errorf("conflict cell name: %w", err)
			}
			if err := f.SetSheetRow(conflictSheet, cell, &cells); err != nil {
				return fmt.Errorf("write conflict row: %w", err)
			}
			row++
		}
	}
	return nil
}

func writeLeaseSheet(f *excelize.File, groups []domain.LeaseGroup) error {
	headers := []any{
		"Lease", "Tenant", "Landlord", "Property",
		"Monthly Rent", "Commencement", "Expiration",
		"Amendments", "Open Conflicts", "Confidence",
	}
	if err := f.SetSheetRow(leaseSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write lease headers: %w", err)
	}

	for i, group := range groups {
		merged := group.Merged
		cells := []any{
			group.LeaseID, merged.Tenant.LegalName, merged.Landlord.LegalName, merged.PropertyAddress.String(),
			merged.BaseRentMonthly.String(), formatDate(merged.CommencementDate), formatDate(merged.ExpirationDate),
			len(group.Amendments), len(group.OpenConflicts()), merged.Confidence,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("lease cell name: %w", err)
		}
		if err := f.SetSheetRow(leaseSheet, cell, &cells); err != nil {
			return fmt.Errorf("write lease row: %w", err)
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
