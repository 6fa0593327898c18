package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/procureflow/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the requirements register as an xlsx workbook: a summary
// sheet with per-status counts and a detail sheet with one row per
// requirement, joined with its latest estimate and purchase order.
func (g *Generator) Generate(register model.RequirementRegister) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, register); err != nil {
		return nil, err
	}

	detailSheet := "Requirements"
	file.NewSheet(detailSheet)
	if err := g.writeDetail(file, detailSheet, register); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, register model.RequirementRegister) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Requirements register")
	set("A2", "Generated by")
	set("B2", fmt.Sprintf("%s (%s)", register.GeneratedBy.Name, register.GeneratedBy.Role))
	set("A3", "Generated at")
	set("B3", formatTime(register.GeneratedAt))
	set("A4", "Total requirements")
	set("B4", len(register.Rows))

	counts := make(map[model.RequirementStatus]int)
	for _, row := range register.Rows {
		counts[row.Requirement.Status]++
	}

	tableRow := 6
	set(fmt.Sprintf("A%d", tableRow), "Status")
	set(fmt.Sprintf("B%d", tableRow), "Count")
	statuses := []model.RequirementStatus{
		model.StatusPendingAEEstimate,
		model.StatusAwaitingClientDecision,
		model.StatusClientGoodToGo,
		model.StatusAECallRequested,
		model.StatusPendingVerification,
		model.StatusVerified,
		model.StatusRejected,
	}
	for i, status := range statuses {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(status))
		set(fmt.Sprintf("B%d", row), counts[status])
	}

	_ = file.SetColWidth(sheet, "A", "A", 30)
	_ = file.SetColWidth(sheet, "B", "B", 16)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, register model.RequirementRegister) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"ID",
		"Type",
		"Subtype",
		"Name",
		"Status",
		"Created",
		"Estimate amount",
		"Currency",
		"PO number",
		"PO status",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, row := range register.Rows {
		values := []interface{}{
			row.Requirement.ID.String(),
			string(row.Requirement.Type),
			subtypeLabel(row.Requirement.Subtype),
			detailName(row.Requirement.Details),
			string(row.Requirement.Status),
			formatTime(row.Requirement.CreatedAt),
			"", "", "", "",
		}
		if row.Estimate != nil {
			values[6] = row.Estimate.Amount
			values[7] = row.Estimate.Currency
		}
		if row.PO != nil {
			values[8] = row.PO.PONumber
			values[9] = string(row.PO.Status)
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 38)
	_ = file.SetColWidth(sheet, "B", "F", 22)
	_ = file.SetColWidth(sheet, "G", "J", 16)
	return nil
}

func subtypeLabel(subtype *model.SoftwareSubtype) string {
	if subtype == nil {
		return ""
	}
	return string(*subtype)
}

func detailName(details map[string]any) string {
	if details == nil {
		return ""
	}
	if name, ok := details["name"].(string); ok {
		return name
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
