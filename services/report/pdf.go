package reportsvc

import (
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core/report"
)

func writePDF(w io.Writer, title string, header []string, widths []float64, records [][]string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, rec := range records {
		for i, val := range rec {
			pdf.CellFormat(widths[i], 8, val, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return errors.Wrap(pdf.Output(w), "writing PDF")
}

func MembershipPDF(w io.Writer, rows []report.MembershipRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Course, r.Section, strconv.Itoa(r.Members), strconv.Itoa(r.NonMembers),
		})
	}
	return writePDF(w, "Membership Summary",
		[]string{"Course", "Section", "Members", "Non-Members"},
		[]float64{70, 40, 40, 40}, records)
}

func DocumentStatusPDF(w io.Writer, rows []report.DocumentStatusRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		required := "No"
		if r.Required {
			required = "Yes"
		}
		records = append(records, []string{r.OwnerName, r.OwnerKind, r.TypeName, required, r.Status})
	}
	return writePDF(w, "Document Status",
		[]string{"Owner", "Kind", "Document", "Required", "Status"},
		[]float64{50, 30, 50, 25, 35}, records)
}

func EventSummaryPDF(w io.Writer, rows []report.EventSummaryRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.OwnerName, r.Title, r.Date, r.Venue, strconv.Itoa(r.ParticipantCount),
		})
	}
	return writePDF(w, "Event Summary",
		[]string{"Owner", "Title", "Date", "Venue", "Participants"},
		[]float64{45, 50, 25, 45, 25}, records)
}
