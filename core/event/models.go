package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swaaagray/saoms/core"
)

type Event struct {
	ID          string         `json:"id"`
	OwnerKind   core.OwnerKind `json:"owner_kind"` // organization XOR council
	OwnerID     string         `json:"owner_id"`
	TermID      string         `json:"term_id"`
	Title       string         `json:"title"`
	Date        time.Time      `json:"date"`
	Venue       string         `json:"venue"`
	Description string         `json:"description"`
	Images      []Image        `json:"images,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt   time.Time      `json:"created_at"` // UTC
	UpdatedAt   time.Time      `json:"updated_at"` // UTC
}

type Image struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Path    string `json:"path"`
}

type Participant struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Course      string `json:"course"`
	YearSection string `json:"year_section"`
}

type Award struct {
	ID          string         `json:"id"`
	OwnerKind   core.OwnerKind `json:"owner_kind"`
	OwnerID     string         `json:"owner_id"`
	TermID      string         `json:"term_id"`
	Title       string         `json:"title"`
	DateAwarded time.Time      `json:"date_awarded"`
	GivenBy     string         `json:"given_by"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"` // UTC
}

// NewEvent contains information needed to record an event.
type NewEvent struct {
	Title        string    `json:"title" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	Venue        string    `json:"venue" validate:"required"`
	Description  string    `json:"description"`
	ImagePaths   []string  `json:"image_paths"`
	Participants []NewParticipant `json:"participants" validate:"omitempty,dive"`
}

type NewParticipant struct {
	Name        string `json:"name" validate:"required"`
	Course      string `json:"course"`
	YearSection string `json:"year_section"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Venue = core.CleanString(ne.Venue)
	ne.Description = core.CleanString(ne.Description)
	return validate.Struct(ne)
}

// NewAward contains information needed to record an award.
type NewAward struct {
	Title       string    `json:"title" validate:"required"`
	DateAwarded time.Time `json:"date_awarded" validate:"required"`
	GivenBy     string    `json:"given_by" validate:"required"`
	Description string    `json:"description"`
}

func (na *NewAward) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.GivenBy = core.CleanString(na.GivenBy)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}
