package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
)

var (
	termColumns = []string{
		"id", "school_year", "start_date", "end_date", "submission_open",
		"submission_close", "status", "created_at", "updated_at",
	}
	semesterColumns = []string{"id", "term_id", "name", "status", "created_at", "updated_at"}
)

type termRow struct {
	ID              string    `db:"id"`
	SchoolYear      string    `db:"school_year"`
	StartDate       time.Time `db:"start_date"`
	EndDate         time.Time `db:"end_date"`
	SubmissionOpen  time.Time `db:"submission_open"`
	SubmissionClose time.Time `db:"submission_close"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r termRow) model() academic.Term {
	return academic.Term{
		ID:              r.ID,
		SchoolYear:      r.SchoolYear,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		SubmissionOpen:  r.SubmissionOpen,
		SubmissionClose: r.SubmissionClose,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type semesterRow struct {
	ID        string    `db:"id"`
	TermID    string    `db:"term_id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r semesterRow) model() academic.Semester {
	return academic.Semester{
		ID:        r.ID,
		TermID:    r.TermID,
		Name:      r.Name,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type academicRepository struct {
	db *sqlx.DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *sqlx.DB) *academicRepository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateTerm(ctx context.Context, term academic.Term) (academic.Term, error) {
	term.ID = uuid.New().String()
	qry, args, err := psql.Insert("academic_term").Columns(termColumns...).Values(
		term.ID, term.SchoolYear, term.StartDate.UTC(), term.EndDate.UTC(),
		term.SubmissionOpen.UTC(), term.SubmissionClose.UTC(), term.Status,
		term.CreatedAt.UTC(), term.UpdatedAt.UTC(),
	).ToSql()
	if err != nil {
		return academic.Term{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return academic.Term{}, errors.Wrap(err, "inserting term")
	}
	return term, nil
}

func (repo *academicRepository) getTerm(ctx context.Context, q sqlx.QueryerContext, pred interface{}) (academic.Term, error) {
	qry, args, err := psql.Select(termColumns...).From("academic_term").Where(pred).ToSql()
	if err != nil {
		return academic.Term{}, errors.Wrap(err, "building query")
	}
	var row termRow
	if err = sqlx.GetContext(ctx, q, &row, qry, args...); err != nil {
		return academic.Term{}, trapNoRowsErr(err, academic.ErrNotFound, "finding term")
	}
	return row.model(), nil
}

func (repo *academicRepository) GetTermByID(ctx context.Context, id string) (academic.Term, error) {
	if !validUUID(id) {
		return academic.Term{}, academic.ErrNotFound
	}
	return repo.getTerm(ctx, repo.db, sq.Eq{"id": id})
}

func (repo *academicRepository) QueryAllTerms(ctx context.Context) ([]academic.Term, error) {
	qry, args, err := psql.Select(termColumns...).From("academic_term").OrderBy("start_date DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []termRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	terms := make([]academic.Term, 0, len(rows))
	for _, r := range rows {
		terms = append(terms, r.model())
	}
	return terms, nil
}

func (repo *academicRepository) GetActiveTerm(ctx context.Context) (academic.Term, error) {
	term, err := repo.getTerm(ctx, repo.db, sq.Eq{"status": academic.StatusActive})
	if errors.Is(err, academic.ErrNotFound) {
		return academic.Term{}, academic.ErrNoActiveTerm
	}
	return term, err
}

func (repo *academicRepository) ActivateTerm(ctx context.Context, id string) (academic.Term, error) {
	if !validUUID(id) {
		return academic.Term{}, academic.ErrNotFound
	}

	var term academic.Term
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		// archive whatever is currently active first, the partial unique
		// index allows only one active row
		for _, table := range []string{"academic_semester", "academic_term"} {
			qry, args, err := psql.Update(table).
				Set("status", academic.StatusArchived).
				Set("updated_at", now).
				Where(sq.Eq{"status": academic.StatusActive}).ToSql()
			if err != nil {
				return errors.Wrap(err, "building query")
			}
			if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
				return errors.Wrap(err, "archiving active rows")
			}
		}

		qry, args, err := psql.Update("academic_term").
			Set("status", academic.StatusActive).
			Set("updated_at", now).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING " + joinColumns(termColumns)).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		var row termRow
		if err = sqlx.GetContext(ctx, tx, &row, qry, args...); err != nil {
			return trapNoRowsErr(err, academic.ErrNotFound, "activating term")
		}
		term = row.model()
		return nil
	})
	if err != nil {
		return academic.Term{}, err
	}
	return term, nil
}

func (repo *academicRepository) CreateSemester(ctx context.Context, sem academic.Semester) (academic.Semester, error) {
	sem.ID = uuid.New().String()
	qry, args, err := psql.Insert("academic_semester").Columns(semesterColumns...).Values(
		sem.ID, sem.TermID, sem.Name, sem.Status, sem.CreatedAt.UTC(), sem.UpdatedAt.UTC(),
	).ToSql()
	if err != nil {
		return academic.Semester{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return academic.Semester{}, errors.Wrap(err, "inserting semester")
	}
	return sem, nil
}

func (repo *academicRepository) getSemester(ctx context.Context, pred interface{}) (academic.Semester, error) {
	qry, args, err := psql.Select(semesterColumns...).From("academic_semester").Where(pred).ToSql()
	if err != nil {
		return academic.Semester{}, errors.Wrap(err, "building query")
	}
	var row semesterRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return academic.Semester{}, trapNoRowsErr(err, academic.ErrNotFound, "finding semester")
	}
	return row.model(), nil
}

func (repo *academicRepository) GetSemesterByID(ctx context.Context, id string) (academic.Semester, error) {
	if !validUUID(id) {
		return academic.Semester{}, academic.ErrNotFound
	}
	return repo.getSemester(ctx, sq.Eq{"id": id})
}

func (repo *academicRepository) GetActiveSemester(ctx context.Context) (academic.Semester, error) {
	sem, err := repo.getSemester(ctx, sq.Eq{"status": academic.StatusActive})
	if errors.Is(err, academic.ErrNotFound) {
		return academic.Semester{}, academic.ErrNoActiveSemester
	}
	return sem, err
}

func (repo *academicRepository) ActivateSemester(ctx context.Context, id string) (academic.Semester, error) {
	if !validUUID(id) {
		return academic.Semester{}, academic.ErrNotFound
	}

	var sem academic.Semester
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		qry, args, err := psql.Update("academic_semester").
			Set("status", academic.StatusArchived).
			Set("updated_at", now).
			Where(sq.Eq{"status": academic.StatusActive}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
			return errors.Wrap(err, "archiving active semester")
		}

		qry, args, err = psql.Update("academic_semester").
			Set("status", academic.StatusActive).
			Set("updated_at", now).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING " + joinColumns(semesterColumns)).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		var row semesterRow
		if err = sqlx.GetContext(ctx, tx, &row, qry, args...); err != nil {
			return trapNoRowsErr(err, academic.ErrNotFound, "activating semester")
		}
		sem = row.model()
		return nil
	})
	if err != nil {
		return academic.Semester{}, err
	}
	return sem, nil
}

func (repo *academicRepository) ArchiveTermCascade(ctx context.Context, termID string) (academic.ArchiveResult, error) {
	if !validUUID(termID) {
		return academic.ArchiveResult{}, academic.ErrNotFound
	}

	var res academic.ArchiveResult
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		term, err := repo.getTerm(ctx, tx, sq.Eq{"id": termID})
		if err != nil {
			return err
		}
		if term.Status == academic.StatusArchived {
			return academic.ErrAlreadyArchived
		}
		res.TermID = term.ID
		res.SchoolYear = term.SchoolYear
		now := time.Now().UTC()

		exec := func(qry string, args []interface{}, msg string) (int, error) {
			r, err := tx.ExecContext(ctx, qry, args...)
			if err != nil {
				return 0, errors.Wrap(err, msg)
			}
			n, _ := r.RowsAffected()
			return int(n), nil
		}

		// org/council compliance documents of the term go first, their
		// transitions cascade; event-owned documents are retained
		qry, args, err := psql.Delete("document").
			Where(sq.Eq{"term_id": termID}).
			Where(sq.NotEq{"owner_kind": core.OwnerEvent}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if res.DocumentsDeleted, err = exec(qry, args, "deleting documents"); err != nil {
			return err
		}

		// roster rows of every semester under the term
		qry, args, err = psql.Delete("student_data").
			Where("semester_id IN (SELECT id FROM academic_semester WHERE term_id = ?)", termID).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if res.StudentRowsDeleted, err = exec(qry, args, "deleting student rows"); err != nil {
			return err
		}

		// owners registered under this term drop back to unrecognized with
		// cleared contact names; the cleared names force the info refresh on
		// next login
		reset := func(table string) (int, error) {
			qry, args, err := psql.Update(table).
				Set("recognition_status", "unrecognized").
				Set("president_name", nil).
				Set("adviser_name", nil).
				Set("updated_at", now).
				Where(sq.Eq{"term_id": termID}).ToSql()
			if err != nil {
				return 0, errors.Wrap(err, "building query")
			}
			return exec(qry, args, "resetting "+table)
		}
		if res.OrganizationsReset, err = reset("organization"); err != nil {
			return err
		}
		if res.CouncilsReset, err = reset("council"); err != nil {
			return err
		}

		qry, args, err = psql.Update("academic_semester").
			Set("status", academic.StatusArchived).
			Set("updated_at", now).
			Where(sq.Eq{"term_id": termID}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if res.SemestersArchived, err = exec(qry, args, "archiving semesters"); err != nil {
			return err
		}

		qry, args, err = psql.Update("academic_term").
			Set("status", academic.StatusArchived).
			Set("updated_at", now).
			Where(sq.Eq{"id": termID}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		_, err = exec(qry, args, "archiving term")
		return err
	})
	if err != nil {
		return academic.ArchiveResult{}, err
	}
	return res, nil
}
