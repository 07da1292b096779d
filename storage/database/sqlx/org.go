package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/org"
)

var ownerColumns = []string{
	"id", "code", "name", "recognition_status", "president_name", "adviser_name",
	"term_id", "created_at", "updated_at",
}

type orgRow struct {
	ID                string      `db:"id"`
	Code              string      `db:"code"`
	Name              string      `db:"name"`
	CourseID          string      `db:"course_id"`
	RecognitionStatus string      `db:"recognition_status"`
	PresidentName     null.String `db:"president_name"`
	AdviserName       null.String `db:"adviser_name"`
	TermID            null.String `db:"term_id"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

func (r orgRow) model() org.Organization {
	return org.Organization{
		ID:                r.ID,
		Code:              r.Code,
		Name:              r.Name,
		CourseID:          r.CourseID,
		RecognitionStatus: r.RecognitionStatus,
		PresidentName:     r.PresidentName.String,
		AdviserName:       r.AdviserName.String,
		TermID:            r.TermID.String,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type councilRow struct {
	ID                string      `db:"id"`
	Code              string      `db:"code"`
	Name              string      `db:"name"`
	CollegeID         string      `db:"college_id"`
	RecognitionStatus string      `db:"recognition_status"`
	PresidentName     null.String `db:"president_name"`
	AdviserName       null.String `db:"adviser_name"`
	TermID            null.String `db:"term_id"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

func (r councilRow) model() org.Council {
	return org.Council{
		ID:                r.ID,
		Code:              r.Code,
		Name:              r.Name,
		CollegeID:         r.CollegeID,
		RecognitionStatus: r.RecognitionStatus,
		PresidentName:     r.PresidentName.String,
		AdviserName:       r.AdviserName.String,
		TermID:            r.TermID.String,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type officialRow struct {
	ID            string      `db:"id"`
	OwnerKind     string      `db:"owner_kind"`
	OwnerID       string      `db:"owner_id"`
	TermID        string      `db:"term_id"`
	StudentNumber string      `db:"student_number"`
	Name          string      `db:"name"`
	Position      string      `db:"position"`
	PicturePath   null.String `db:"picture_path"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r officialRow) model() org.StudentOfficial {
	return org.StudentOfficial{
		ID:            r.ID,
		OwnerKind:     core.OwnerKind(r.OwnerKind),
		OwnerID:       r.OwnerID,
		TermID:        r.TermID,
		StudentNumber: r.StudentNumber,
		Name:          r.Name,
		Position:      r.Position,
		PicturePath:   r.PicturePath.String,
		CreatedAt:     r.CreatedAt,
	}
}

type orgRepository struct {
	db *sqlx.DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sqlx.DB) *orgRepository {
	return &orgRepository{db: db}
}

func (repo *orgRepository) QueryColleges(ctx context.Context) ([]org.College, error) {
	qry, args, err := psql.Select("id", "name").From("college").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var colleges []org.College
	if err = repo.db.SelectContext(ctx, &colleges, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying colleges")
	}
	return colleges, nil
}

func (repo *orgRepository) CreateCollege(ctx context.Context, c org.College) (org.College, error) {
	c.ID = uuid.New().String()
	qry, args, err := psql.Insert("college").Columns("id", "name").Values(c.ID, c.Name).ToSql()
	if err != nil {
		return org.College{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return org.College{}, errors.Wrap(err, "inserting college")
	}
	return c, nil
}

func (repo *orgRepository) QueryCoursesByCollege(ctx context.Context, collegeID string) ([]org.Course, error) {
	if !validUUID(collegeID) {
		return nil, org.ErrNotFound
	}
	qry, args, err := psql.Select("id", "name", "college_id").From("course").
		Where(sq.Eq{"college_id": collegeID}).OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []struct {
		ID        string `db:"id"`
		Name      string `db:"name"`
		CollegeID string `db:"college_id"`
	}
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]org.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, org.Course{ID: r.ID, Name: r.Name, CollegeID: r.CollegeID})
	}
	return courses, nil
}

func (repo *orgRepository) CreateCourse(ctx context.Context, c org.Course) (org.Course, error) {
	c.ID = uuid.New().String()
	qry, args, err := psql.Insert("course").Columns("id", "name", "college_id").
		Values(c.ID, c.Name, c.CollegeID).ToSql()
	if err != nil {
		return org.Course{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return org.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *orgRepository) GetCourseByID(ctx context.Context, id string) (org.Course, error) {
	if !validUUID(id) {
		return org.Course{}, org.ErrNotFound
	}
	qry, args, err := psql.Select("id", "name", "college_id").From("course").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return org.Course{}, errors.Wrap(err, "building query")
	}
	var row struct {
		ID        string `db:"id"`
		Name      string `db:"name"`
		CollegeID string `db:"college_id"`
	}
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return org.Course{}, trapNoRowsErr(err, org.ErrNotFound, "finding course")
	}
	return org.Course{ID: row.ID, Name: row.Name, CollegeID: row.CollegeID}, nil
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	o.ID = uuid.New().String()
	qry, args, err := psql.Insert("organization").
		Columns("id", "code", "name", "course_id", "recognition_status",
			"president_name", "adviser_name", "term_id", "created_at", "updated_at").
		Values(o.ID, o.Code, o.Name, o.CourseID, o.RecognitionStatus,
			null.NewString(o.PresidentName, o.PresidentName != ""),
			null.NewString(o.AdviserName, o.AdviserName != ""),
			null.NewString(o.TermID, o.TermID != ""),
			o.CreatedAt.UTC(), o.UpdatedAt.UTC()).ToSql()
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return org.Organization{}, errors.Wrap(err, "inserting organization")
	}
	return o, nil
}

func (repo *orgRepository) getOrganization(ctx context.Context, pred interface{}) (org.Organization, error) {
	qry, args, err := psql.Select(append([]string{"course_id"}, ownerColumns...)...).
		From("organization").Where(pred).ToSql()
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "building query")
	}
	var row orgRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return org.Organization{}, trapNoRowsErr(err, org.ErrNotFound, "finding organization")
	}
	return row.model(), nil
}

func (repo *orgRepository) GetOrganizationByID(ctx context.Context, id string) (org.Organization, error) {
	if !validUUID(id) {
		return org.Organization{}, org.ErrNotFound
	}
	return repo.getOrganization(ctx, sq.Eq{"id": id})
}

func (repo *orgRepository) GetOrganizationByCourse(ctx context.Context, courseID string) (org.Organization, error) {
	if !validUUID(courseID) {
		return org.Organization{}, org.ErrNotFound
	}
	return repo.getOrganization(ctx, sq.Eq{"course_id": courseID})
}

func (repo *orgRepository) QueryOrganizations(ctx context.Context) ([]org.Organization, error) {
	qry, args, err := psql.Select(append([]string{"course_id"}, ownerColumns...)...).
		From("organization").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []orgRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying organizations")
	}
	orgs := make([]org.Organization, 0, len(rows))
	for _, r := range rows {
		orgs = append(orgs, r.model())
	}
	return orgs, nil
}

func (repo *orgRepository) UpdateOrganizationInfo(ctx context.Context, id, presidentName, adviserName string) (org.Organization, error) {
	if !validUUID(id) {
		return org.Organization{}, org.ErrNotFound
	}
	qry, args, err := psql.Update("organization").
		Set("president_name", presidentName).
		Set("adviser_name", adviserName).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING course_id, " + joinColumns(ownerColumns)).ToSql()
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "building query")
	}
	var row orgRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return org.Organization{}, trapNoRowsErr(err, org.ErrNotFound, "updating organization info")
	}
	return row.model(), nil
}

func (repo *orgRepository) CreateCouncil(ctx context.Context, c org.Council) (org.Council, error) {
	c.ID = uuid.New().String()
	qry, args, err := psql.Insert("council").
		Columns("id", "code", "name", "college_id", "recognition_status",
			"president_name", "adviser_name", "term_id", "created_at", "updated_at").
		Values(c.ID, c.Code, c.Name, c.CollegeID, c.RecognitionStatus,
			null.NewString(c.PresidentName, c.PresidentName != ""),
			null.NewString(c.AdviserName, c.AdviserName != ""),
			null.NewString(c.TermID, c.TermID != ""),
			c.CreatedAt.UTC(), c.UpdatedAt.UTC()).ToSql()
	if err != nil {
		return org.Council{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return org.Council{}, errors.Wrap(err, "inserting council")
	}
	return c, nil
}

func (repo *orgRepository) getCouncil(ctx context.Context, pred interface{}) (org.Council, error) {
	qry, args, err := psql.Select(append([]string{"college_id"}, ownerColumns...)...).
		From("council").Where(pred).ToSql()
	if err != nil {
		return org.Council{}, errors.Wrap(err, "building query")
	}
	var row councilRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return org.Council{}, trapNoRowsErr(err, org.ErrNotFound, "finding council")
	}
	return row.model(), nil
}

func (repo *orgRepository) GetCouncilByID(ctx context.Context, id string) (org.Council, error) {
	if !validUUID(id) {
		return org.Council{}, org.ErrNotFound
	}
	return repo.getCouncil(ctx, sq.Eq{"id": id})
}

func (repo *orgRepository) GetCouncilByCollege(ctx context.Context, collegeID string) (org.Council, error) {
	if !validUUID(collegeID) {
		return org.Council{}, org.ErrNotFound
	}
	return repo.getCouncil(ctx, sq.Eq{"college_id": collegeID})
}

func (repo *orgRepository) QueryCouncils(ctx context.Context) ([]org.Council, error) {
	qry, args, err := psql.Select(append([]string{"college_id"}, ownerColumns...)...).
		From("council").OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []councilRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying councils")
	}
	councils := make([]org.Council, 0, len(rows))
	for _, r := range rows {
		councils = append(councils, r.model())
	}
	return councils, nil
}

func (repo *orgRepository) UpdateCouncilInfo(ctx context.Context, id, presidentName, adviserName string) (org.Council, error) {
	if !validUUID(id) {
		return org.Council{}, org.ErrNotFound
	}
	qry, args, err := psql.Update("council").
		Set("president_name", presidentName).
		Set("adviser_name", adviserName).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING college_id, " + joinColumns(ownerColumns)).ToSql()
	if err != nil {
		return org.Council{}, errors.Wrap(err, "building query")
	}
	var row councilRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return org.Council{}, trapNoRowsErr(err, org.ErrNotFound, "updating council info")
	}
	return row.model(), nil
}

func (repo *orgRepository) CheckCodeUniqueness(ctx context.Context, code string) error {
	qry, args, err := psql.Select().Column(sq.Expr(
		"EXISTS (SELECT 1 FROM organization WHERE code = ?) OR EXISTS (SELECT 1 FROM council WHERE code = ?)",
		code, code)).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, qry, args...); err != nil {
		return errors.Wrap(err, "checking code uniqueness")
	}
	if exists {
		return org.ErrCodeExists
	}
	return nil
}

func (repo *orgRepository) IsPresidentElsewhere(ctx context.Context, studentNumber, ownerID, termID string) (bool, error) {
	qry, args, err := psql.Select().Column(sq.Expr(
		"EXISTS (SELECT 1 FROM student_official WHERE student_number = ? AND position = 'President' AND owner_id <> ? AND term_id = ?)",
		studentNumber, ownerID, termID)).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, qry, args...); err != nil {
		return false, errors.Wrap(err, "checking president uniqueness")
	}
	return exists, nil
}

func (repo *orgRepository) CreateOfficial(ctx context.Context, o org.StudentOfficial) (org.StudentOfficial, error) {
	o.ID = uuid.New().String()
	qry, args, err := psql.Insert("student_official").
		Columns("id", "owner_kind", "owner_id", "term_id", "student_number", "name", "position", "picture_path", "created_at").
		Values(o.ID, string(o.OwnerKind), o.OwnerID, o.TermID, o.StudentNumber, o.Name, o.Position,
			null.NewString(o.PicturePath, o.PicturePath != ""), o.CreatedAt.UTC()).ToSql()
	if err != nil {
		return org.StudentOfficial{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return org.StudentOfficial{}, errors.Wrap(err, "inserting official")
	}
	return o, nil
}

func (repo *orgRepository) QueryOfficials(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]org.StudentOfficial, error) {
	qry, args, err := psql.Select("id", "owner_kind", "owner_id", "term_id", "student_number", "name", "position", "picture_path", "created_at").
		From("student_official").
		Where(sq.Eq{"owner_kind": string(ownerKind), "owner_id": ownerID, "term_id": termID}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []officialRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying officials")
	}
	officials := make([]org.StudentOfficial, 0, len(rows))
	for _, r := range rows {
		officials = append(officials, r.model())
	}
	return officials, nil
}

func (repo *orgRepository) DeleteOfficial(ctx context.Context, ownerKind core.OwnerKind, ownerID, officialID string) error {
	if !validUUID(officialID) {
		return org.ErrNotFound
	}
	qry, args, err := psql.Delete("student_official").
		Where(sq.Eq{"id": officialID, "owner_kind": string(ownerKind), "owner_id": ownerID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, qry, args...)
	if err != nil {
		return errors.Wrap(err, "deleting official")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return org.ErrNotFound
	}
	return nil
}
