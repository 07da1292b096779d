package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/swaaagray/saoms/core/application"
)

var applicationColumns = []string{
	"id", "kind", "org_code", "name", "email", "form_data", "status",
	"submitted_at", "reviewed_at", "reviewed_by", "reject_reason",
}

type applicationRow struct {
	ID           string      `db:"id"`
	Kind         string      `db:"kind"`
	OrgCode      string      `db:"org_code"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	FormData     []byte      `db:"form_data"`
	Status       string      `db:"status"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	ReviewedAt   null.Time   `db:"reviewed_at"`
	ReviewedBy   null.String `db:"reviewed_by"`
	RejectReason null.String `db:"reject_reason"`
}

func (r applicationRow) model() application.OrganizationApplication {
	return application.OrganizationApplication{
		ID:           r.ID,
		Kind:         r.Kind,
		OrgCode:      r.OrgCode,
		Name:         r.Name,
		Email:        r.Email,
		FormData:     r.FormData,
		Status:       r.Status,
		SubmittedAt:  r.SubmittedAt,
		ReviewedAt:   r.ReviewedAt.Time,
		ReviewedBy:   r.ReviewedBy.String,
		RejectReason: r.RejectReason.String,
	}
}

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sqlx.DB) *applicationRepository {
	return &applicationRepository{db: db}
}

func (repo *applicationRepository) UpsertVerification(ctx context.Context, v application.EmailVerification, cooldown time.Duration) (application.EmailVerification, error) {
	v.ID = uuid.New().String()

	// single-statement upsert: the conflicting row only yields when outside
	// the cooldown window, so two racing requests cannot both send a code
	qry := `
		INSERT INTO email_verification (id, email, code, form_data, expires_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code, form_data = EXCLUDED.form_data,
		    expires_at = EXCLUDED.expires_at, sent_at = EXCLUDED.sent_at
		WHERE email_verification.sent_at <= $7
		RETURNING id`
	cutoff := v.SentAt.UTC().Add(-cooldown)

	var id string
	err := repo.db.GetContext(ctx, &id, qry,
		v.ID, v.Email, v.Code, v.FormData, v.ExpiresAt.UTC(), v.SentAt.UTC(), cutoff)
	if errors.Is(err, sql.ErrNoRows) {
		// still cooling down; report how long is left
		var sentAt time.Time
		if err := repo.db.GetContext(ctx, &sentAt,
			"SELECT sent_at FROM email_verification WHERE email = $1", v.Email); err != nil {
			return application.EmailVerification{}, errors.Wrap(err, "checking cooldown")
		}
		remaining := cooldown - v.SentAt.UTC().Sub(sentAt)
		if remaining < time.Second {
			remaining = time.Second
		}
		return application.EmailVerification{}, &application.CooldownError{Remaining: int(remaining.Seconds())}
	}
	if err != nil {
		return application.EmailVerification{}, errors.Wrap(err, "upserting verification")
	}
	v.ID = id
	return v, nil
}

func (repo *applicationRepository) GetVerificationByEmail(ctx context.Context, email string) (application.EmailVerification, error) {
	qry, args, err := psql.Select("id", "email", "code", "form_data", "expires_at", "sent_at").
		From("email_verification").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return application.EmailVerification{}, errors.Wrap(err, "building query")
	}
	var row struct {
		ID        string    `db:"id"`
		Email     string    `db:"email"`
		Code      string    `db:"code"`
		FormData  []byte    `db:"form_data"`
		ExpiresAt time.Time `db:"expires_at"`
		SentAt    time.Time `db:"sent_at"`
	}
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return application.EmailVerification{}, trapNoRowsErr(err, application.ErrNotFound, "finding verification")
	}
	return application.EmailVerification(row), nil
}

func (repo *applicationRepository) DeleteVerification(ctx context.Context, email string) error {
	qry, args, err := psql.Delete("email_verification").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return errors.Wrap(err, "deleting verification")
	}
	return nil
}

func (repo *applicationRepository) HasPendingCode(ctx context.Context, code string) (bool, error) {
	qry, args, err := psql.Select().Column(sq.Expr(
		"EXISTS (SELECT 1 FROM organization_application WHERE org_code = ? AND status = ?)",
		code, application.StatusPending)).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, qry, args...); err != nil {
		return false, errors.Wrap(err, "checking pending code")
	}
	return exists, nil
}

func (repo *applicationRepository) SubmitApplication(ctx context.Context, email string, app application.OrganizationApplication) (application.OrganizationApplication, error) {
	app.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		qry, args, err := psql.Delete("email_verification").Where(sq.Eq{"email": email}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
			return errors.Wrap(err, "deleting verification")
		}

		qry, args, err = psql.Insert("organization_application").Columns(applicationColumns...).Values(
			app.ID, app.Kind, app.OrgCode, app.Name, app.Email, app.FormData, app.Status,
			app.SubmittedAt.UTC(),
			null.NewTime(app.ReviewedAt.UTC(), !app.ReviewedAt.IsZero()),
			null.NewString(app.ReviewedBy, app.ReviewedBy != ""),
			null.NewString(app.RejectReason, app.RejectReason != ""),
		).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
			return errors.Wrap(err, "inserting application")
		}
		return nil
	})
	if err != nil {
		return application.OrganizationApplication{}, err
	}
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.OrganizationApplication, error) {
	if !validUUID(id) {
		return application.OrganizationApplication{}, application.ErrNotFound
	}
	qry, args, err := psql.Select(applicationColumns...).From("organization_application").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return application.OrganizationApplication{}, errors.Wrap(err, "building query")
	}
	var row applicationRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return application.OrganizationApplication{}, trapNoRowsErr(err, application.ErrNotFound, "finding application")
	}
	return row.model(), nil
}

func (repo *applicationRepository) QueryPendingApplications(ctx context.Context) ([]application.OrganizationApplication, error) {
	qry, args, err := psql.Select(applicationColumns...).From("organization_application").
		Where(sq.Eq{"status": application.StatusPending}).
		OrderBy("submitted_at").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []applicationRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	apps := make([]application.OrganizationApplication, 0, len(rows))
	for _, r := range rows {
		apps = append(apps, r.model())
	}
	return apps, nil
}

func (repo *applicationRepository) MarkReviewed(ctx context.Context, app application.OrganizationApplication) (application.OrganizationApplication, error) {
	qry, args, err := psql.Update("organization_application").
		Set("status", app.Status).
		Set("reviewed_at", null.NewTime(app.ReviewedAt.UTC(), !app.ReviewedAt.IsZero())).
		Set("reviewed_by", null.NewString(app.ReviewedBy, app.ReviewedBy != "")).
		Set("reject_reason", null.NewString(app.RejectReason, app.RejectReason != "")).
		Where(sq.Eq{"id": app.ID}).ToSql()
	if err != nil {
		return application.OrganizationApplication{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, qry, args...)
	if err != nil {
		return application.OrganizationApplication{}, errors.Wrap(err, "marking application reviewed")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return application.OrganizationApplication{}, application.ErrNotFound
	}
	return app, nil
}
