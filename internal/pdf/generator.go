package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/procureflow/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

// Generate renders a purchase order as a single-page A4 document with the
// requirement context, the accepted estimate breakdown and signature lines.
func (g *Generator) Generate(doc model.PODocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "PURCHASE ORDER", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("PO No %s, submitted %s", doc.PO.PONumber, formatDate(doc.PO.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", strings.ToUpper(string(doc.PO.Status))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Requirement", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Reference: %s", doc.Requirement.ID),
		fmt.Sprintf("Type: %s%s", doc.Requirement.Type, subtypeSuffix(doc.Requirement.Subtype)),
		fmt.Sprintf("Item: %s", safeValue(detailString(doc.Requirement.Details, "name"))),
		fmt.Sprintf("Quantity: %s", safeValue(detailString(doc.Requirement.Details, "quantity"))),
		fmt.Sprintf("Expected delivery: %s", safeValue(detailString(doc.Requirement.Details, "expected_delivery_date"))),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.Ln(2)

	if doc.Estimate != nil {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Accepted estimate", "", 1, "L", false, 0, "")

		headers := []string{"Line item", "Amount"}
		colWidths := []float64{130, 50}
		drawTableRow(pdf, g.fontName, headers, colWidths, true)
		for _, item := range doc.Estimate.Breakdown {
			drawTableRow(pdf, g.fontName, []string{
				item.Label,
				formatAmount(item.Amount),
			}, colWidths, false)
		}

		pdf.Ln(2)
		pdf.SetFont(g.fontName, "", 11)
		pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s %s", formatAmount(doc.Estimate.Amount), doc.Estimate.Currency), "", 1, "R", false, 0, "")
		if strings.TrimSpace(doc.Estimate.Notes) != "" {
			pdf.MultiCell(0, 5, fmt.Sprintf("Notes: %s", doc.Estimate.Notes), "", "L", false)
		}
	}

	if doc.PO.DecisionAt != nil {
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "", 11)
		pdf.CellFormat(0, 6, fmt.Sprintf("Reviewed on %s", formatDate(*doc.PO.DecisionAt)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Signatures", "", 1, "L", false, 0, "")
	signatureBlock(pdf, g.fontName, "Client")
	signatureBlock(pdf, g.fontName, "Verifier")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s: ______________________", label), "", 1, "L", false, 0, "")
}

func subtypeSuffix(subtype *model.SoftwareSubtype) string {
	if subtype == nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", *subtype)
}

func detailString(details map[string]any, key string) string {
	if details == nil {
		return ""
	}
	value, ok := details[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02.01.2006")
}
