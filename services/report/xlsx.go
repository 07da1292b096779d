package reportsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/swaaagray/saoms/core/report"
)

func writeXLSX(w io.Writer, sheet string, header []string, records [][]interface{}) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return errors.Wrap(err, "creating sheet")
	}
	f.SetActiveSheet(idx)
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "deleting default sheet")
	}

	headerRow := make([]interface{}, 0, len(header))
	for _, h := range header {
		headerRow = append(headerRow, h)
	}
	if err = f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return errors.Wrap(err, "writing header row")
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "resolving cell")
		}
		if err = f.SetSheetRow(sheet, cell, &rec); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func MembershipXLSX(w io.Writer, rows []report.MembershipRow) error {
	records := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, []interface{}{r.Course, r.Section, r.Members, r.NonMembers})
	}
	return writeXLSX(w, "Membership", []string{"Course", "Section", "Members", "Non-Members"}, records)
}

func DocumentStatusXLSX(w io.Writer, rows []report.DocumentStatusRow) error {
	records := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		required := "No"
		if r.Required {
			required = "Yes"
		}
		records = append(records, []interface{}{r.OwnerName, r.OwnerKind, r.TypeName, required, r.Status})
	}
	return writeXLSX(w, "Documents", []string{"Owner", "Kind", "Document", "Required", "Status"}, records)
}

func EventSummaryXLSX(w io.Writer, rows []report.EventSummaryRow) error {
	records := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, []interface{}{r.OwnerName, r.Title, r.Date, r.Venue, r.ParticipantCount})
	}
	return writeXLSX(w, "Events", []string{"Owner", "Title", "Date", "Venue", "Participants"}, records)
}
