package service

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/maxviazov/tayseer-service/internal/model"
)

const (
	summarySheet = "Summary"
	auditsSheet  = "Recent audits"
	dateLayout   = "2006-01-02"
)

var auditHeaders = []string{"ID", "Title", "Department", "Status", "Score", "Audit date"}

// WriteReportXLSX renders r as a two-sheet workbook: headline figures and the recent audits.
func WriteReportXLSX(w io.Writer, r model.ComplianceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	rows := [][]any{
		{"Generated at", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Total audits", r.TotalAudits},
		{"Average score (completed)", r.AverageScore},
		{"Open cases", r.OpenCases},
		{"Active contracts", r.ActiveContracts},
		{"Active contract value", r.ActiveContractSum},
	}
	statuses := make([]string, 0, len(r.AuditsByStatus))
	for st := range r.AuditsByStatus {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		rows = append(rows, []any{"Audits " + st, r.AuditsByStatus[st]})
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx summary row: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(1, len(rows))
	_ = f.SetCellStyle(summarySheet, "A1", last, bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 28)
	_ = f.SetColWidth(summarySheet, "B", "B", 24)

	if _, err := f.NewSheet(auditsSheet); err != nil {
		return fmt.Errorf("xlsx new sheet: %w", err)
	}
	if err := f.SetSheetRow(auditsSheet, "A1", &auditHeaders); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	_ = f.SetCellStyle(auditsSheet, "A1", "F1", bold)
	for i, a := range r.RecentAudits {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{a.ID, a.Title, a.Department, a.Status, a.Score, a.AuditDate.Format(dateLayout)}
		if err := f.SetSheetRow(auditsSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx audit row: %w", err)
		}
	}
	_ = f.SetColWidth(auditsSheet, "B", "C", 30)
	_ = f.SetColWidth(auditsSheet, "F", "F", 14)

	return f.Write(w)
}
