package membership

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swaaagray/saoms/core"
)

// Membership scopes and status values
const (
	ScopeOrg     = "org"
	ScopeCouncil = "council"

	StatusMember    = "Member"
	StatusNonMember = "Non-Member"
)

// PageSize is the fixed roster page size.
const PageSize = 25

func ValidStatus(v string) bool { return v == StatusMember || v == StatusNonMember }
func ValidScope(v string) bool  { return v == ScopeOrg || v == ScopeCouncil }

// StudentData is one roster row per student per organization, carrying two
// independent membership flags, scoped to a semester.
type StudentData struct {
	ID             string    `json:"id"`
	StudentNumber  string    `json:"student_number"`
	Name           string    `json:"name"`
	Course         string    `json:"course"`
	Section        string    `json:"section"`
	Sex            string    `json:"sex"`
	OrganizationID string    `json:"organization_id"`
	SemesterID     string    `json:"semester_id"`
	OrgStatus      string    `json:"org_status"`     // Member | Non-Member within the organization
	CouncilStatus  string    `json:"council_status"` // Member | Non-Member within the college council
	CreatedAt      time.Time `json:"created_at"`     // UTC
	UpdatedAt      time.Time `json:"updated_at"`     // UTC
}

// NewStudent contains one roster upload row.
type NewStudent struct {
	StudentNumber string `json:"student_number" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Course        string `json:"course" validate:"required"`
	Section       string `json:"section" validate:"required"`
	Sex           string `json:"sex" validate:"omitempty,oneof=Male Female"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.Name = core.CleanString(ns.Name)
	ns.Course = core.CleanString(ns.Course)
	ns.Section = core.CleanString(ns.Section)
	ns.Sex = core.CleanString(ns.Sex)
	return validate.Struct(ns)
}

// Filter carries the independently-optional roster filters.
type Filter struct {
	Course  string `query:"course"`
	Section string `query:"section"`
	Status  string `query:"status"`
	Search  string `query:"search"` // substring match on student number or name
}

func (f *Filter) Clean() {
	f.Course = core.CleanString(f.Course)
	f.Section = core.CleanString(f.Section)
	f.Status = core.CleanString(f.Status)
	f.Search = core.CleanString(f.Search)
}

// Query is a fully-resolved roster query: the caller's ownership scope plus
// the request filters.
type Query struct {
	Scope          string // org | council
	OrganizationID string // set for org-scoped callers
	CollegeID      string // set for council-scoped callers
	SemesterID     string
	Filter         Filter
	Page           int // 1-based
}

// StatusCounts are the summary badges, computed over the full filtered set,
// never just the current page.
type StatusCounts struct {
	Members    int `json:"members"`
	NonMembers int `json:"non_members"`
	Total      int `json:"total"`
}

// Page is one roster listing page with its pagination-independent counts.
type Page struct {
	Students []StudentData `json:"students"`
	Counts   StatusCounts  `json:"counts"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
