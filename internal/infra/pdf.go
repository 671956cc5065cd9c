package infra

// pdf.go — remittance receipt rendering with go-pdf/fpdf.
// A receipt lists the remitted batch (control numbers, price, discount, net)
// plus the commission and remittance totals, and is emailed to the
// distributor by the receipt worker.

import (
	"fmt"
	"os"
	"path/filepath"

	"showtix/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReceiptPDF renders the receipt for one remittance history entry.
// storagePath is the directory where the PDF is written (created if needed).
// Returns the absolute path to the generated file.
func GenerateReceiptPDF(entry *model.RemittanceHistoryEntry, schedule *model.Schedule, distributorName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("remittance_%s.pdf", entry.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Remittance Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, schedule.ShowTitle, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, schedule.ShowDate.Format("Jan 2, 2006 3:04 PM"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Distributor: "+distributorName, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Received by: "+entry.ReceivedBy, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Date: "+entry.CreatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if entry.Remarks != nil && *entry.Remarks != "" {
		pdf.CellFormat(contentW, 5, "Remarks: "+*entry.Remarks, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Ticket table ─────────────────────────────────────────────────────────
	colNo, colStatus, colPrice, colDisc := contentW*0.20, contentW*0.20, contentW*0.30, contentW*0.30
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(colNo, 6, "Ctrl #", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colStatus, 6, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colPrice, 6, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colDisc, 6, "Net", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, t := range entry.Tickets {
		pdf.CellFormat(colNo, 5, fmt.Sprintf("%d", t.ControlNumber), "", 0, "L", false, 0, "")
		pdf.CellFormat(colStatus, 5, string(t.Status), "", 0, "L", false, 0, "")
		pdf.CellFormat(colPrice, 5, t.TicketPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colDisc, 5, t.NetAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	commissionPerTicket := decimal.Zero
	if n := len(entry.Tickets); n > 0 {
		commissionPerTicket = entry.TotalCommission.Div(decimal.NewFromInt(int64(n)))
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW*0.6, 6, fmt.Sprintf("Commission (%s per ticket)", commissionPerTicket.StringFixed(2)), "T", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 6, entry.TotalCommission.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW*0.6, 8, "Total remitted", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 8, entry.TotalRemittance.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
