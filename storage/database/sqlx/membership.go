package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/swaaagray/saoms/core/membership"
)

var studentColumns = []string{
	"id", "student_number", "name", "course", "section", "sex",
	"organization_id", "semester_id", "org_status", "council_status",
	"created_at", "updated_at",
}

type studentRow struct {
	ID             string      `db:"id"`
	StudentNumber  string      `db:"student_number"`
	Name           string      `db:"name"`
	Course         string      `db:"course"`
	Section        string      `db:"section"`
	Sex            null.String `db:"sex"`
	OrganizationID string      `db:"organization_id"`
	SemesterID     string      `db:"semester_id"`
	OrgStatus      string      `db:"org_status"`
	CouncilStatus  string      `db:"council_status"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r studentRow) model() membership.StudentData {
	return membership.StudentData{
		ID:             r.ID,
		StudentNumber:  r.StudentNumber,
		Name:           r.Name,
		Course:         r.Course,
		Section:        r.Section,
		Sex:            r.Sex.String,
		OrganizationID: r.OrganizationID,
		SemesterID:     r.SemesterID,
		OrgStatus:      r.OrgStatus,
		CouncilStatus:  r.CouncilStatus,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type membershipRepository struct {
	db *sqlx.DB
}

var _ membership.Repository = (*membershipRepository)(nil) // interface compliance check

func NewMembershipRepository(db *sqlx.DB) *membershipRepository {
	return &membershipRepository{db: db}
}

func (repo *membershipRepository) CreateStudent(ctx context.Context, s membership.StudentData) (membership.StudentData, error) {
	s.ID = uuid.New().String()
	qry, args, err := psql.Insert("student_data").Columns(studentColumns...).Values(
		s.ID, s.StudentNumber, s.Name, s.Course, s.Section,
		null.NewString(s.Sex, s.Sex != ""),
		s.OrganizationID, s.SemesterID, s.OrgStatus, s.CouncilStatus,
		s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	).ToSql()
	if err != nil {
		return membership.StudentData{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return membership.StudentData{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *membershipRepository) GetStudentByID(ctx context.Context, id string) (membership.StudentData, error) {
	if !validUUID(id) {
		return membership.StudentData{}, membership.ErrNotFound
	}
	qry, args, err := psql.Select(studentColumns...).From("student_data").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return membership.StudentData{}, errors.Wrap(err, "building query")
	}
	var row studentRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return membership.StudentData{}, trapNoRowsErr(err, membership.ErrNotFound, "finding student")
	}
	return row.model(), nil
}

func (repo *membershipRepository) GetStudentCollege(ctx context.Context, studentID string) (string, error) {
	if !validUUID(studentID) {
		return "", membership.ErrNotFound
	}
	qry, args, err := psql.Select("c.college_id").
		From("student_data s").
		Join("organization o ON o.id = s.organization_id").
		Join("course c ON c.id = o.course_id").
		Where(sq.Eq{"s.id": studentID}).ToSql()
	if err != nil {
		return "", errors.Wrap(err, "building query")
	}
	var collegeID string
	if err = repo.db.GetContext(ctx, &collegeID, qry, args...); err != nil {
		return "", trapNoRowsErr(err, membership.ErrNotFound, "resolving student college")
	}
	return collegeID, nil
}

func (repo *membershipRepository) SetStudentStatus(ctx context.Context, studentID, scope, value string) (membership.StudentData, error) {
	col := "org_status"
	if scope == membership.ScopeCouncil {
		col = "council_status"
	}
	qry, args, err := psql.Update("student_data").
		Set(col, value).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": studentID}).
		Suffix("RETURNING " + joinColumns(studentColumns)).ToSql()
	if err != nil {
		return membership.StudentData{}, errors.Wrap(err, "building query")
	}
	var row studentRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return membership.StudentData{}, trapNoRowsErr(err, membership.ErrNotFound, "setting student status")
	}
	return row.model(), nil
}

// scopePred resolves the caller's visibility: organization rosters directly,
// every roster under the council's college, or every roster when no college
// restricts the query (OSAS/MIS).
func scopePred(q membership.Query) sq.Sqlizer {
	if q.Scope == membership.ScopeCouncil {
		if q.CollegeID == "" {
			return sq.Expr("TRUE")
		}
		return sq.Expr(
			"s.organization_id IN (SELECT o.id FROM organization o JOIN course c ON c.id = o.course_id WHERE c.college_id = ?)",
			q.CollegeID)
	}
	return sq.Eq{"s.organization_id": q.OrganizationID}
}

func filterPred(q membership.Query) sq.And {
	statusCol := "s.org_status"
	if q.Scope == membership.ScopeCouncil {
		statusCol = "s.council_status"
	}

	pred := sq.And{scopePred(q), sq.Eq{"s.semester_id": q.SemesterID}}
	if q.Filter.Course != "" {
		pred = append(pred, sq.Eq{"s.course": q.Filter.Course})
	}
	if q.Filter.Section != "" {
		pred = append(pred, sq.Eq{"s.section": q.Filter.Section})
	}
	if q.Filter.Status != "" {
		pred = append(pred, sq.Eq{statusCol: q.Filter.Status})
	}
	if q.Filter.Search != "" {
		val := "%" + q.Filter.Search + "%"
		pred = append(pred, sq.Or{
			sq.Expr("s.student_number ILIKE ?", val),
			sq.Expr("s.name ILIKE ?", val),
		})
	}
	return pred
}

func (repo *membershipRepository) FilterStudents(ctx context.Context, q membership.Query) ([]membership.StudentData, membership.StatusCounts, error) {
	pred := filterPred(q)

	statusCol := "s.org_status"
	if q.Scope == membership.ScopeCouncil {
		statusCol = "s.council_status"
	}

	// counts run over the full filtered set, not the page
	countQry, countArgs, err := psql.Select(
		"COUNT(*) FILTER (WHERE "+statusCol+" = 'Member') AS members",
		"COUNT(*) FILTER (WHERE "+statusCol+" = 'Non-Member') AS non_members",
		"COUNT(*) AS total",
	).From("student_data s").Where(pred).ToSql()
	if err != nil {
		return nil, membership.StatusCounts{}, errors.Wrap(err, "building query")
	}
	var countRow struct {
		Members    int `db:"members"`
		NonMembers int `db:"non_members"`
		Total      int `db:"total"`
	}
	if err = repo.db.GetContext(ctx, &countRow, countQry, countArgs...); err != nil {
		return nil, membership.StatusCounts{}, errors.Wrap(err, "counting students")
	}
	counts := membership.StatusCounts(countRow)

	offset := uint64((q.Page - 1) * membership.PageSize)
	qry, args, err := psql.Select(prefixColumns("s", studentColumns)...).
		From("student_data s").
		Where(pred).
		OrderBy("s.name").
		Limit(membership.PageSize).
		Offset(offset).ToSql()
	if err != nil {
		return nil, membership.StatusCounts{}, errors.Wrap(err, "building query")
	}
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, membership.StatusCounts{}, errors.Wrap(err, "querying students")
	}
	students := make([]membership.StudentData, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.model())
	}
	return students, counts, nil
}

func (repo *membershipRepository) DistinctSections(ctx context.Context, q membership.Query) ([]string, error) {
	pred := sq.And{scopePred(q), sq.Eq{"s.semester_id": q.SemesterID}}
	if q.Filter.Course != "" {
		pred = append(pred, sq.Eq{"s.course": q.Filter.Course})
	}
	qry, args, err := psql.Select("DISTINCT s.section").From("student_data s").
		Where(pred).OrderBy("s.section").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var sections []string
	if err = repo.db.SelectContext(ctx, &sections, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return sections, nil
}
