package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

// An empty collegeID means no college restriction (OSAS-wide reports).

func (repo *reportRepository) MembershipSummary(ctx context.Context, collegeID, semesterID string) ([]report.MembershipRow, error) {
	b := psql.Select(
		"s.course",
		"s.section",
		"COUNT(*) FILTER (WHERE s.org_status = 'Member') AS members",
		"COUNT(*) FILTER (WHERE s.org_status = 'Non-Member') AS non_members",
	).
		From("student_data s").
		Where(sq.Eq{"s.semester_id": semesterID}).
		GroupBy("s.course", "s.section").
		OrderBy("s.course", "s.section")
	if collegeID != "" {
		b = b.Where(sq.Expr(
			"s.organization_id IN (SELECT o.id FROM organization o JOIN course c ON c.id = o.course_id WHERE c.college_id = ?)",
			collegeID))
	}
	qry, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []struct {
		Course     string `db:"course"`
		Section    string `db:"section"`
		Members    int    `db:"members"`
		NonMembers int    `db:"non_members"`
	}
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying membership summary")
	}
	out := make([]report.MembershipRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, report.MembershipRow(r))
	}
	return out, nil
}

func (repo *reportRepository) DocumentStatuses(ctx context.Context, collegeID, termID string) ([]report.DocumentStatusRow, error) {
	// owner names resolved per kind; event documents roll up to the event title
	qry := `
		SELECT
			COALESCE(o.name, cn.name, e.title, '') AS owner_name,
			d.owner_kind,
			dt.name AS type_name,
			dt.required,
			d.status
		FROM document d
		JOIN document_type dt ON dt.id = d.type_id
		LEFT JOIN organization o ON d.owner_kind = 'organization' AND o.id = d.owner_id
		LEFT JOIN council cn ON d.owner_kind = 'council' AND cn.id = d.owner_id
		LEFT JOIN event e ON d.owner_kind = 'event' AND e.id = d.owner_id
		WHERE d.term_id = $1`
	args := []interface{}{termID}
	if collegeID != "" {
		qry += `
		AND (
			o.id IN (SELECT org.id FROM organization org JOIN course c ON c.id = org.course_id WHERE c.college_id = $2)
			OR cn.college_id = $2
		)`
		args = append(args, collegeID)
	}
	qry += `
		ORDER BY owner_name, type_name`

	var rows []struct {
		OwnerName string `db:"owner_name"`
		OwnerKind string `db:"owner_kind"`
		TypeName  string `db:"type_name"`
		Required  bool   `db:"required"`
		Status    string `db:"status"`
	}
	if err := repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying document statuses")
	}
	out := make([]report.DocumentStatusRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, report.DocumentStatusRow(r))
	}
	return out, nil
}

func (repo *reportRepository) EventSummaries(ctx context.Context, collegeID, termID string) ([]report.EventSummaryRow, error) {
	qry := `
		SELECT
			COALESCE(o.name, cn.name, '') AS owner_name,
			e.title,
			to_char(e.date, 'YYYY-MM-DD') AS date,
			e.venue,
			COUNT(p.id) AS participant_count
		FROM event e
		LEFT JOIN organization o ON e.owner_kind = 'organization' AND o.id = e.owner_id
		LEFT JOIN council cn ON e.owner_kind = 'council' AND cn.id = e.owner_id
		LEFT JOIN event_participant p ON p.event_id = e.id
		WHERE e.term_id = $1`
	args := []interface{}{termID}
	if collegeID != "" {
		qry += `
		AND (
			o.id IN (SELECT org.id FROM organization org JOIN course c ON c.id = org.course_id WHERE c.college_id = $2)
			OR cn.college_id = $2
		)`
		args = append(args, collegeID)
	}
	qry += `
		GROUP BY o.name, cn.name, e.title, e.date, e.venue
		ORDER BY e.date`

	var rows []struct {
		OwnerName        string `db:"owner_name"`
		Title            string `db:"title"`
		Date             string `db:"date"`
		Venue            string `db:"venue"`
		ParticipantCount int    `db:"participant_count"`
	}
	if err := repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying event summaries")
	}
	out := make([]report.EventSummaryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, report.EventSummaryRow(r))
	}
	return out, nil
}
