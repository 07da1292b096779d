package membership

import (
	"context"
	"errors"
	"time"

	"github.com/swaaagray/saoms/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found") // also covers unowned and malformed ids
	ErrInvalidStatus = errors.New("status must be Member or Non-Member")
	ErrInvalidScope  = errors.New("scope must be org or council")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s StudentData) (StudentData, error)
		GetStudentByID(ctx context.Context, id string) (StudentData, error)
		// GetStudentCollege resolves the college of the student's organization,
		// for the council-scope ownership check.
		GetStudentCollege(ctx context.Context, studentID string) (string, error)
		SetStudentStatus(ctx context.Context, studentID, scope, value string) (StudentData, error)
		// FilterStudents applies AND over the available Filter fields, orders by
		// student name, pages by PageSize, and computes StatusCounts over the
		// same predicate independently of pagination.
		FilterStudents(ctx context.Context, q Query) ([]StudentData, StatusCounts, error)
		DistinctSections(ctx context.Context, q Query) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddStudents bulk-inserts roster rows for the principal's organization in the
// current semester; everyone starts as Non-Member in both scopes.
func (svc *Service) AddStudents(ctx context.Context, p core.Principal, semesterID string, rows []NewStudent) ([]StudentData, error) {
	if p.Role != core.RoleOrgPresident || p.OrganizationID == "" {
		return nil, core.ErrPermissionDenied
	}
	now := time.Now().UTC()
	students := make([]StudentData, 0, len(rows))
	for _, row := range rows {
		s := StudentData{
			StudentNumber:  row.StudentNumber,
			Name:           row.Name,
			Course:         row.Course,
			Section:        row.Section,
			Sex:            row.Sex,
			OrganizationID: p.OrganizationID,
			SemesterID:     semesterID,
			OrgStatus:      StatusNonMember,
			CouncilStatus:  StatusNonMember,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		created, err := svc.repo.CreateStudent(ctx, s)
		if err != nil {
			return students, err
		}
		students = append(students, created)
	}
	return students, nil
}

// SetStatus mutates one of the two independent membership flags after a
// scope-specific ownership check; the row is left untouched on any failure.
func (svc *Service) SetStatus(ctx context.Context, p core.Principal, studentID, scope, value string) (StudentData, error) {
	if !ValidScope(scope) {
		return StudentData{}, ErrInvalidScope
	}
	if !ValidStatus(value) {
		return StudentData{}, ErrInvalidStatus
	}

	student, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return StudentData{}, err
	}

	switch scope {
	case ScopeOrg:
		// organization presidents may only mutate their own organization's students
		if p.Role != core.RoleOrgPresident || p.OrganizationID != student.OrganizationID {
			return StudentData{}, ErrNotFound
		}
	case ScopeCouncil:
		// council presidents may only mutate council_status for students whose
		// organization belongs to their council's college
		if p.Role != core.RoleCouncilPresident {
			return StudentData{}, ErrNotFound
		}
		collegeID, err := svc.repo.GetStudentCollege(ctx, studentID)
		if err != nil {
			return StudentData{}, err
		}
		if p.CollegeID == "" || p.CollegeID != collegeID {
			return StudentData{}, ErrNotFound
		}
	}

	return svc.repo.SetStudentStatus(ctx, studentID, scope, value)
}

// ListStudents returns one page of the filtered roster plus status counts
// over the full filtered set. A section filter that no longer exists under
// the selected course silently resets to all-sections.
func (svc *Service) ListStudents(ctx context.Context, p core.Principal, semesterID string, filter Filter, page int) (Page, error) {
	q, err := scopedQuery(p, semesterID)
	if err != nil {
		return Page{}, err
	}
	filter.Clean()
	q.Filter = filter
	if page < 1 {
		page = 1
	}
	q.Page = page

	if q.Filter.Course != "" && q.Filter.Section != "" {
		sections, err := svc.repo.DistinctSections(ctx, q)
		if err != nil {
			return Page{}, err
		}
		if !contains(sections, q.Filter.Section) {
			q.Filter.Section = "" // stale section under the new course: reset to All
		}
	}

	students, counts, err := svc.repo.FilterStudents(ctx, q)
	if err != nil {
		return Page{}, err
	}
	if students == nil {
		students = []StudentData{}
	}
	return Page{Students: students, Counts: counts, Page: page, PageSize: PageSize}, nil
}

// SectionsForCourse keeps dependent dropdowns consistent when the course
// filter changes.
func (svc *Service) SectionsForCourse(ctx context.Context, p core.Principal, semesterID, course string) ([]string, error) {
	q, err := scopedQuery(p, semesterID)
	if err != nil {
		return nil, err
	}
	q.Filter.Course = core.CleanString(course)
	return svc.repo.DistinctSections(ctx, q)
}

func scopedQuery(p core.Principal, semesterID string) (Query, error) {
	switch {
	case p.IsOrgScoped() && p.OrganizationID != "":
		return Query{Scope: ScopeOrg, OrganizationID: p.OrganizationID, SemesterID: semesterID}, nil
	case p.IsCouncilScoped() && p.CollegeID != "":
		return Query{Scope: ScopeCouncil, CollegeID: p.CollegeID, SemesterID: semesterID}, nil
	case p.HasAnyRole(core.RoleOsas, core.RoleMisCoordinator):
		q := Query{Scope: ScopeCouncil, SemesterID: semesterID}
		q.CollegeID = p.CollegeID // empty for osas: all colleges
		return q, nil
	}
	return Query{}, core.ErrPermissionDenied
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
