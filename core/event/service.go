package event

import (
	"context"
	"errors"
	"time"

	"github.com/swaaagray/saoms/core"
)

var ErrNotFound = errors.New("event not found")

type (
	Repository interface {
		CreateEvent(ctx context.Context, ev Event) (Event, error)
		GetEventOwned(ctx context.Context, ownerKind core.OwnerKind, ownerID, id string) (Event, error)
		QueryEvents(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]Event, error)
		DeleteEvent(ctx context.Context, ownerKind core.OwnerKind, ownerID, id string) error

		CreateAward(ctx context.Context, aw Award) (Award, error)
		QueryAwards(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]Award, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, p core.Principal, termID string, ne NewEvent) (Event, error) {
	ownerKind, ownerID, err := ownedEntity(p)
	if err != nil {
		return Event{}, err
	}
	now := time.Now().UTC()
	ev := Event{
		OwnerKind:   ownerKind,
		OwnerID:     ownerID,
		TermID:      termID,
		Title:       ne.Title,
		Date:        ne.Date,
		Venue:       ne.Venue,
		Description: ne.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, path := range ne.ImagePaths {
		ev.Images = append(ev.Images, Image{Path: path})
	}
	for _, np := range ne.Participants {
		ev.Participants = append(ev.Participants, Participant{
			Name:        np.Name,
			Course:      np.Course,
			YearSection: np.YearSection,
		})
	}
	return svc.repo.CreateEvent(ctx, ev)
}

func (svc *Service) Get(ctx context.Context, p core.Principal, id string) (Event, error) {
	ownerKind, ownerID, err := ownedEntity(p)
	if err != nil {
		return Event{}, err
	}
	return svc.repo.GetEventOwned(ctx, ownerKind, ownerID, id)
}

// List returns the owner's events for a term; events are retained across
// archival and become archived by their term reference.
func (svc *Service) List(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, ownerKind, ownerID, termID)
}

func (svc *Service) Delete(ctx context.Context, p core.Principal, id string) error {
	ownerKind, ownerID, err := ownedEntity(p)
	if err != nil {
		return err
	}
	return svc.repo.DeleteEvent(ctx, ownerKind, ownerID, id)
}

func (svc *Service) CreateAward(ctx context.Context, p core.Principal, termID string, na NewAward) (Award, error) {
	ownerKind, ownerID, err := ownedEntity(p)
	if err != nil {
		return Award{}, err
	}
	aw := Award{
		OwnerKind:   ownerKind,
		OwnerID:     ownerID,
		TermID:      termID,
		Title:       na.Title,
		DateAwarded: na.DateAwarded,
		GivenBy:     na.GivenBy,
		Description: na.Description,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateAward(ctx, aw)
}

func (svc *Service) ListAwards(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]Award, error) {
	return svc.repo.QueryAwards(ctx, ownerKind, ownerID, termID)
}

func ownedEntity(p core.Principal) (core.OwnerKind, string, error) {
	switch {
	case p.IsOrgScoped() && p.OrganizationID != "":
		return core.OwnerOrganization, p.OrganizationID, nil
	case p.IsCouncilScoped() && p.CouncilID != "":
		return core.OwnerCouncil, p.CouncilID, nil
	}
	return "", "", core.ErrPermissionDenied
}
