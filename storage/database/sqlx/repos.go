// Package sqlxrepos implements the core repository interfaces on PostgreSQL
// with sqlx scanning and squirrel query building.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func joinColumns(cols []string) string { return strings.Join(cols, ", ") }

func prefixColumns(alias string, cols []string) []string {
	prefixed := make([]string, 0, len(cols))
	for _, c := range cols {
		prefixed = append(prefixed, alias+"."+c)
	}
	return prefixed
}

// validUUID guards lookups by externally-provided ids; a malformed id can
// never match a row so it is treated as such instead of erroring the query.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on failure or panic.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// trapNoRowsErr maps psql "no rows" err to the given domain sentinel.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}
