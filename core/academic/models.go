package academic

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swaaagray/saoms/core"
)

// Term/Semester statuses
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

type Term struct {
	ID              string    `json:"id"`
	SchoolYear      string    `json:"school_year"` // e.g. "2025-2026"
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	SubmissionOpen  time.Time `json:"submission_open"`
	SubmissionClose time.Time `json:"submission_close"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (t Term) IsActive() bool { return t.Status == StatusActive }

// Expired reports whether an active term's end date has passed.
func (t Term) Expired(now time.Time) bool {
	return t.IsActive() && t.EndDate.Before(now)
}

type Semester struct {
	ID        string    `json:"id"`
	TermID    string    `json:"term_id"`
	Name      string    `json:"name"` // e.g. "1st Semester"
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewTerm contains information needed to create a new Term.
type NewTerm struct {
	SchoolYear      string    `json:"school_year" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	SubmissionOpen  time.Time `json:"submission_open" validate:"required"`
	SubmissionClose time.Time `json:"submission_close" validate:"required,gtfield=SubmissionOpen"`
}

func (nt *NewTerm) Validate(validate *validator.Validate) error {
	nt.SchoolYear = core.CleanString(nt.SchoolYear)
	return validate.Struct(nt)
}

// NewSemester contains information needed to create a new Semester.
type NewSemester struct {
	TermID string `json:"term_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// ArchiveResult reports affected row counts per category for operator feedback.
type ArchiveResult struct {
	TermID                string `json:"term_id"`
	SchoolYear            string `json:"school_year"`
	SemestersArchived     int    `json:"semesters_archived"`
	OrganizationsReset    int    `json:"organizations_reset"`
	CouncilsReset         int    `json:"councils_reset"`
	StudentRowsDeleted    int    `json:"student_rows_deleted"`
	DocumentsDeleted      int    `json:"documents_deleted"`
}
