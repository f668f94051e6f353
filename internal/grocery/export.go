package grocery

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/preppair/internal/weekdate"
	"github.com/jung-kurt/gofpdf"
)

func renderCSV(groups []CategoryGroup) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"category", "item", "quantity", "unit", "checked"}); err != nil {
		return nil, err
	}

	for _, g := range groups {
		for _, item := range g.Items {
			quantity := ""
			if item.TotalQuantity != nil {
				quantity = strconv.FormatFloat(*item.TotalQuantity, 'f', -1, 64)
			}
			unit := ""
			if item.Unit != nil {
				unit = *item.Unit
			}
			row := []string{g.Category, item.IngredientName, quantity, unit, strconv.FormatBool(item.IsChecked)}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(weekStart string, groups []CategoryGroup) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Grocery list", true)
	pdf.AddPage()

	title := "Grocery list"
	if label, err := weekdate.FormatRange(weekStart); err == nil {
		title += ": " + label
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	if len(groups) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 8, "No grocery items yet.")
	}

	for _, g := range groups {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s (%d/%d)", g.Category, g.Checked, len(g.Items))), "B", 1, "L", false, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "", 11)
		for _, item := range g.Items {
			box := "[ ]"
			if item.IsChecked {
				box = "[x]"
			}
			pdf.CellFormat(10, 7, box, "", 0, "L", false, 0, "")
			pdf.CellFormat(120, 7, tr(item.IngredientName), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, tr(item.quantityLabel()), "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
