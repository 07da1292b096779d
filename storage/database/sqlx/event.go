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
	"github.com/swaaagray/saoms/core/event"
)

var eventColumns = []string{
	"id", "owner_kind", "owner_id", "term_id", "title", "date", "venue",
	"description", "created_at", "updated_at",
}

type eventRow struct {
	ID          string      `db:"id"`
	OwnerKind   string      `db:"owner_kind"`
	OwnerID     string      `db:"owner_id"`
	TermID      string      `db:"term_id"`
	Title       string      `db:"title"`
	Date        time.Time   `db:"date"`
	Venue       string      `db:"venue"`
	Description null.String `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r eventRow) model() event.Event {
	return event.Event{
		ID:          r.ID,
		OwnerKind:   core.OwnerKind(r.OwnerKind),
		OwnerID:     r.OwnerID,
		TermID:      r.TermID,
		Title:       r.Title,
		Date:        r.Date,
		Venue:       r.Venue,
		Description: r.Description.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	ev.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		qry, args, err := psql.Insert("event").Columns(eventColumns...).Values(
			ev.ID, string(ev.OwnerKind), ev.OwnerID, ev.TermID, ev.Title, ev.Date.UTC(),
			ev.Venue, null.NewString(ev.Description, ev.Description != ""),
			ev.CreatedAt.UTC(), ev.UpdatedAt.UTC(),
		).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
			return errors.Wrap(err, "inserting event")
		}

		for i := range ev.Images {
			ev.Images[i].ID = uuid.New().String()
			ev.Images[i].EventID = ev.ID
			qry, args, err = psql.Insert("event_image").Columns("id", "event_id", "path").
				Values(ev.Images[i].ID, ev.ID, ev.Images[i].Path).ToSql()
			if err != nil {
				return errors.Wrap(err, "building query")
			}
			if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
				return errors.Wrap(err, "inserting event image")
			}
		}

		for i := range ev.Participants {
			ev.Participants[i].ID = uuid.New().String()
			ev.Participants[i].EventID = ev.ID
			p := ev.Participants[i]
			qry, args, err = psql.Insert("event_participant").
				Columns("id", "event_id", "name", "course", "year_section").
				Values(p.ID, ev.ID, p.Name,
					null.NewString(p.Course, p.Course != ""),
					null.NewString(p.YearSection, p.YearSection != "")).ToSql()
			if err != nil {
				return errors.Wrap(err, "building query")
			}
			if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
				return errors.Wrap(err, "inserting event participant")
			}
		}
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}
	return ev, nil
}

func (repo *eventRepository) loadRelated(ctx context.Context, ev *event.Event) error {
	qry, args, err := psql.Select("id", "event_id", "path").From("event_image").
		Where(sq.Eq{"event_id": ev.ID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var imgRows []struct {
		ID      string `db:"id"`
		EventID string `db:"event_id"`
		Path    string `db:"path"`
	}
	if err = repo.db.SelectContext(ctx, &imgRows, qry, args...); err != nil {
		return errors.Wrap(err, "querying event images")
	}
	ev.Images = make([]event.Image, 0, len(imgRows))
	for _, r := range imgRows {
		ev.Images = append(ev.Images, event.Image(r))
	}

	qry, args, err = psql.Select("id", "event_id", "name",
		"COALESCE(course, '') AS course", "COALESCE(year_section, '') AS year_section").
		From("event_participant").Where(sq.Eq{"event_id": ev.ID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var prtRows []struct {
		ID          string `db:"id"`
		EventID     string `db:"event_id"`
		Name        string `db:"name"`
		Course      string `db:"course"`
		YearSection string `db:"year_section"`
	}
	if err = repo.db.SelectContext(ctx, &prtRows, qry, args...); err != nil {
		return errors.Wrap(err, "querying event participants")
	}
	ev.Participants = make([]event.Participant, 0, len(prtRows))
	for _, r := range prtRows {
		ev.Participants = append(ev.Participants, event.Participant(r))
	}
	return nil
}

func (repo *eventRepository) GetEventOwned(ctx context.Context, ownerKind core.OwnerKind, ownerID, id string) (event.Event, error) {
	if !validUUID(id) {
		return event.Event{}, event.ErrNotFound
	}
	qry, args, err := psql.Select(eventColumns...).From("event").
		Where(sq.Eq{"id": id, "owner_kind": string(ownerKind), "owner_id": ownerID}).ToSql()
	if err != nil {
		return event.Event{}, errors.Wrap(err, "building query")
	}
	var row eventRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "finding event")
	}
	ev := row.model()
	if err = repo.loadRelated(ctx, &ev); err != nil {
		return event.Event{}, err
	}
	return ev, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]event.Event, error) {
	qry, args, err := psql.Select(eventColumns...).From("event").
		Where(sq.Eq{"owner_kind": string(ownerKind), "owner_id": ownerID, "term_id": termID}).
		OrderBy("date DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []eventRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.model())
	}
	return events, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, ownerKind core.OwnerKind, ownerID, id string) error {
	if !validUUID(id) {
		return event.ErrNotFound
	}
	qry, args, err := psql.Delete("event").
		Where(sq.Eq{"id": id, "owner_kind": string(ownerKind), "owner_id": ownerID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, qry, args...)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return event.ErrNotFound
	}
	return nil
}

func (repo *eventRepository) CreateAward(ctx context.Context, aw event.Award) (event.Award, error) {
	aw.ID = uuid.New().String()
	qry, args, err := psql.Insert("award").
		Columns("id", "owner_kind", "owner_id", "term_id", "title", "date_awarded", "given_by", "description", "created_at").
		Values(aw.ID, string(aw.OwnerKind), aw.OwnerID, aw.TermID, aw.Title, aw.DateAwarded.UTC(),
			aw.GivenBy, null.NewString(aw.Description, aw.Description != ""), aw.CreatedAt.UTC()).ToSql()
	if err != nil {
		return event.Award{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return event.Award{}, errors.Wrap(err, "inserting award")
	}
	return aw, nil
}

func (repo *eventRepository) QueryAwards(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]event.Award, error) {
	qry, args, err := psql.Select("id", "owner_kind", "owner_id", "term_id", "title", "date_awarded", "given_by",
		"COALESCE(description, '') AS description", "created_at").
		From("award").
		Where(sq.Eq{"owner_kind": string(ownerKind), "owner_id": ownerID, "term_id": termID}).
		OrderBy("date_awarded DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []struct {
		ID          string    `db:"id"`
		OwnerKind   string    `db:"owner_kind"`
		OwnerID     string    `db:"owner_id"`
		TermID      string    `db:"term_id"`
		Title       string    `db:"title"`
		DateAwarded time.Time `db:"date_awarded"`
		GivenBy     string    `db:"given_by"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
	}
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying awards")
	}
	awards := make([]event.Award, 0, len(rows))
	for _, r := range rows {
		awards = append(awards, event.Award{
			ID:          r.ID,
			OwnerKind:   core.OwnerKind(r.OwnerKind),
			OwnerID:     r.OwnerID,
			TermID:      r.TermID,
			Title:       r.Title,
			DateAwarded: r.DateAwarded,
			GivenBy:     r.GivenBy,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	}
	return awards, nil
}
