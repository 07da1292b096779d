package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/event"
)

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev.ID = uuid.New().String()
	for i := range ev.Images {
		ev.Images[i].ID = uuid.New().String()
		ev.Images[i].EventID = ev.ID
	}
	for i := range ev.Participants {
		ev.Participants[i].ID = uuid.New().String()
		ev.Participants[i].EventID = ev.ID
	}
	repo.db.events[ev.ID] = &ev
	return ev, nil
}

func (repo *eventRepository) GetEventOwned(ctx context.Context, ownerKind core.OwnerKind, ownerID, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ev, ok := repo.db.events[id]
	if !ok || ev.OwnerKind != ownerKind || ev.OwnerID != ownerID {
		return event.Event{}, event.ErrNotFound
	}
	return *ev, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var events []event.Event
	for _, ev := range repo.db.events {
		if ev.OwnerKind == ownerKind && ev.OwnerID == ownerID && ev.TermID == termID {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	return events, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, ownerKind core.OwnerKind, ownerID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev, ok := repo.db.events[id]
	if !ok || ev.OwnerKind != ownerKind || ev.OwnerID != ownerID {
		return event.ErrNotFound
	}
	delete(repo.db.events, id)
	return nil
}

func (repo *eventRepository) CreateAward(ctx context.Context, aw event.Award) (event.Award, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	aw.ID = uuid.New().String()
	repo.db.awards[aw.ID] = &aw
	return aw, nil
}

func (repo *eventRepository) QueryAwards(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]event.Award, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var awards []event.Award
	for _, aw := range repo.db.awards {
		if aw.OwnerKind == ownerKind && aw.OwnerID == ownerID && aw.TermID == termID {
			awards = append(awards, *aw)
		}
	}
	sort.Slice(awards, func(i, j int) bool { return awards[i].DateAwarded.After(awards[j].DateAwarded) })
	return awards, nil
}
