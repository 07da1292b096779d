// Package reportsvc renders pre-queried report row sets to downloadable
// formats. Renderers never touch the database.
package reportsvc

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core/report"
)

func writeCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	if err := cw.WriteAll(records); err != nil {
		return errors.Wrap(err, "writing CSV records")
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}

func MembershipCSV(w io.Writer, rows []report.MembershipRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Course, r.Section, strconv.Itoa(r.Members), strconv.Itoa(r.NonMembers),
		})
	}
	return writeCSV(w, []string{"Course", "Section", "Members", "Non-Members"}, records)
}

func DocumentStatusCSV(w io.Writer, rows []report.DocumentStatusRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		required := "No"
		if r.Required {
			required = "Yes"
		}
		records = append(records, []string{r.OwnerName, r.OwnerKind, r.TypeName, required, r.Status})
	}
	return writeCSV(w, []string{"Owner", "Kind", "Document", "Required", "Status"}, records)
}

func EventSummaryCSV(w io.Writer, rows []report.EventSummaryRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.OwnerName, r.Title, r.Date, r.Venue, strconv.Itoa(r.ParticipantCount),
		})
	}
	return writeCSV(w, []string{"Owner", "Title", "Date", "Venue", "Participants"}, records)
}
