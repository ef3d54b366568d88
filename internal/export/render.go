package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

var columns = []string{"Date", "Transaction", "Role", "Counterparty", "Source", "Energy (kWh)", "Price ($/kWh)", "Amount ($)"}

func lineCells(l Line) []string {
	counterparty := l.Tx.SellerName
	if l.Role == RoleSold {
		counterparty = l.Tx.BuyerName
	}

	return []string{
		l.Tx.Timestamp.UTC().Format(time.RFC3339),
		l.Tx.ID,
		string(l.Role),
		counterparty,
		string(l.Tx.EnergySource),
		l.Tx.EnergyAmount.StringFixed(market.QuantityPrecision),
		l.Tx.PricePerKwh.StringFixed(market.PricePrecision),
		l.Amount.StringFixed(market.TotalPrecision),
	}
}

func period(st Statement) string {
	from, to := "beginning", "now"
	if st.Start != nil {
		from = st.Start.Format(time.DateOnly)
	}

	if st.End != nil {
		to = st.End.Format(time.DateOnly)
	}

	return from + " to " + to
}

func writeCSV(w io.Writer, st Statement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, l := range st.Lines {
		if err := cw.Write(lineCells(l)); err != nil {
			return fmt.Errorf("writing %s: %w", l.Tx.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

func writeXLSX(w io.Writer, st Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	tradesSheet := "trades"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if _, err := f.NewSheet(tradesSheet); err != nil {
		return fmt.Errorf("adding sheet: %w", err)
	}

	summary := [][2]any{
		{"Trading Statement", ""},
		{"Participant", st.Participant.Name},
		{"Participant ID", st.Participant.ID},
		{"Period", period(st)},
		{"Generated", st.Generated.Format(time.RFC3339)},
		{"Energy bought (kWh)", st.KwhBought.InexactFloat64()},
		{"Energy sold (kWh)", st.KwhSold.InexactFloat64()},
		{"Spent ($)", st.Spent.InexactFloat64()},
		{"Earned ($)", st.Earned.InexactFloat64()},
		{"Net ($)", st.Net().InexactFloat64()},
	}

	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1])
	}

	if err := f.SetSheetRow(tradesSheet, "A1", &columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, l := range st.Lines {
		row := i + 2
		cells := lineCells(l)

		for c := range 5 {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(tradesSheet, cell, cells[c])
		}

		_ = f.SetCellValue(tradesSheet, fmt.Sprintf("F%d", row), l.Tx.EnergyAmount.InexactFloat64())
		_ = f.SetCellValue(tradesSheet, fmt.Sprintf("G%d", row), l.Tx.PricePerKwh.InexactFloat64())
		_ = f.SetCellValue(tradesSheet, fmt.Sprintf("H%d", row), l.Amount.InexactFloat64())
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

func writePDF(w io.Writer, st Statement) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Trading Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Participant: %s (%s)", st.Participant.Name, st.Participant.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", period(st)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", st.Generated.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Energy bought (kWh): %s   Energy sold (kWh): %s",
		st.KwhBought.StringFixed(market.QuantityPrecision), st.KwhSold.StringFixed(market.QuantityPrecision)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Spent: %s   Earned: %s   Net: %s",
		st.Spent.StringFixed(market.TotalPrecision), st.Earned.StringFixed(market.TotalPrecision), st.Net().StringFixed(market.TotalPrecision)))
	pdf.Ln(8)

	widths := []float64{42, 60, 18, 45, 18, 28, 28, 28}

	pdf.SetFont("Arial", "B", 9)

	for i, col := range columns {
		pdf.CellFormat(widths[i], 6, col, "1", 0, "C", false, 0, "")
	}

	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, l := range st.Lines {
		for i, cell := range lineCells(l) {
			align := "L"
			if i >= 5 {
				align = "R"
			}

			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
		}

		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}

	return nil
}
