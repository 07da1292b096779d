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

	"github.com/swaaagray/saoms/core/user"
)

var userColumns = []string{
	"id", "name", "username", "email", "role", "is_active", "password_hash",
	"organization_id", "council_id", "college_id", "created_at", "updated_at", "last_login",
}

type userRow struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Username       string      `db:"username"`
	Email          string      `db:"email"`
	Role           string      `db:"role"`
	IsActive       bool        `db:"is_active"`
	PasswordHash   []byte      `db:"password_hash"`
	OrganizationID null.String `db:"organization_id"`
	CouncilID      null.String `db:"council_id"`
	CollegeID      null.String `db:"college_id"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	LastLogin      null.Time   `db:"last_login"`
}

func (r userRow) model() user.User {
	return user.User{
		ID:             r.ID,
		Name:           r.Name,
		Username:       r.Username,
		Email:          r.Email,
		Role:           r.Role,
		IsActive:       r.IsActive,
		PasswordHash:   r.PasswordHash,
		OrganizationID: r.OrganizationID.String,
		CouncilID:      r.CouncilID.String,
		CollegeID:      r.CollegeID.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		LastLogin:      r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) values(usr user.User) []interface{} {
	return []interface{}{
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash,
		null.NewString(usr.OrganizationID, usr.OrganizationID != ""),
		null.NewString(usr.CouncilID, usr.CouncilID != ""),
		null.NewString(usr.CollegeID, usr.CollegeID != ""),
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	pred := sq.And{sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		pred = append(pred, sq.NotEq{"id": ids})
	}

	qry, args, err := psql.Select("username", "email").From(`"user"`).Where(pred).Limit(1).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var row struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err = repo.db.GetContext(ctx, &row, qry, args...)
	switch {
	case err == nil:
		if row.Username == username {
			return user.ErrUsernameExists
		}
		return user.ErrEmailExists
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return errors.Wrap(err, "checking user uniqueness")
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	qry, args, err := psql.Insert(`"user"`).Columns(userColumns...).Values(repo.values(usr)...).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if !validUUID(id) {
		return user.User{}, user.ErrNotFound
	}
	qry, args, err := psql.Select(userColumns...).From(`"user"`).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return row.model(), nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	qry, args, err := psql.Select(userColumns...).From(`"user"`).
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": username}}).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.model(), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	qry, args, err := psql.Update(`"user"`).
		Set("name", usr.Name).
		Set("username", usr.Username).
		Set("email", usr.Email).
		Set("role", usr.Role).
		Set("is_active", usr.IsActive).
		Set("password_hash", usr.PasswordHash).
		Set("organization_id", null.NewString(usr.OrganizationID, usr.OrganizationID != "")).
		Set("council_id", null.NewString(usr.CouncilID, usr.CouncilID != "")).
		Set("college_id", null.NewString(usr.CollegeID, usr.CollegeID != "")).
		Set("updated_at", usr.UpdatedAt.UTC()).
		Where(sq.Eq{"id": usr.ID}).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	qry, args, err := psql.Update(`"user"`).
		Set("last_login", usr.LastLogin.UTC()).
		Where(sq.Eq{"id": usr.ID}).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}
