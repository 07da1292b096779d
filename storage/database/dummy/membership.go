package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swaaagray/saoms/core/membership"
)

// membershipRepository resolves a student's college through the org tables.
type membershipRepository struct {
	db *DB
}

var _ membership.Repository = (*membershipRepository)(nil) // interface compliance check

func NewMembershipRepository(db *DB) *membershipRepository {
	return &membershipRepository{db: db}
}

func (repo *membershipRepository) CreateStudent(ctx context.Context, s membership.StudentData) (membership.StudentData, error) {
	repo.db.membership.Lock()
	defer repo.db.membership.Unlock()

	s.ID = uuid.New().String()
	repo.db.membership.students[s.ID] = &s
	return s, nil
}

func (repo *membershipRepository) GetStudentByID(ctx context.Context, id string) (membership.StudentData, error) {
	repo.db.membership.RLock()
	defer repo.db.membership.RUnlock()

	if s, ok := repo.db.membership.students[id]; ok {
		return *s, nil
	}
	return membership.StudentData{}, membership.ErrNotFound
}

func (repo *membershipRepository) collegeOf(organizationID string) string {
	repo.db.org.RLock()
	defer repo.db.org.RUnlock()

	o, ok := repo.db.org.orgs[organizationID]
	if !ok {
		return ""
	}
	c, ok := repo.db.org.courses[o.CourseID]
	if !ok {
		return ""
	}
	return c.CollegeID
}

func (repo *membershipRepository) GetStudentCollege(ctx context.Context, studentID string) (string, error) {
	repo.db.membership.RLock()
	s, ok := repo.db.membership.students[studentID]
	repo.db.membership.RUnlock()
	if !ok {
		return "", membership.ErrNotFound
	}

	collegeID := repo.collegeOf(s.OrganizationID)
	if collegeID == "" {
		return "", membership.ErrNotFound
	}
	return collegeID, nil
}

func (repo *membershipRepository) SetStudentStatus(ctx context.Context, studentID, scope, value string) (membership.StudentData, error) {
	repo.db.membership.Lock()
	defer repo.db.membership.Unlock()

	s, ok := repo.db.membership.students[studentID]
	if !ok {
		return membership.StudentData{}, membership.ErrNotFound
	}
	if scope == membership.ScopeCouncil {
		s.CouncilStatus = value
	} else {
		s.OrgStatus = value
	}
	s.UpdatedAt = time.Now().UTC()
	return *s, nil
}

func (repo *membershipRepository) inScope(q membership.Query, s *membership.StudentData) bool {
	if s.SemesterID != q.SemesterID {
		return false
	}
	if q.Scope == membership.ScopeCouncil {
		// no college means no restriction (OSAS/MIS)
		return q.CollegeID == "" || repo.collegeOf(s.OrganizationID) == q.CollegeID
	}
	return s.OrganizationID == q.OrganizationID
}

func (repo *membershipRepository) filtered(q membership.Query) []membership.StudentData {
	var students []membership.StudentData
	for _, s := range repo.db.membership.students {
		if !repo.inScope(q, s) {
			continue
		}
		if q.Filter.Course != "" && s.Course != q.Filter.Course {
			continue
		}
		if q.Filter.Section != "" && s.Section != q.Filter.Section {
			continue
		}
		if q.Filter.Status != "" {
			status := s.OrgStatus
			if q.Scope == membership.ScopeCouncil {
				status = s.CouncilStatus
			}
			if status != q.Filter.Status {
				continue
			}
		}
		if q.Filter.Search != "" {
			kw := strings.ToLower(q.Filter.Search)
			if !strings.Contains(strings.ToLower(s.StudentNumber), kw) &&
				!strings.Contains(strings.ToLower(s.Name), kw) {
				continue
			}
		}
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}

func (repo *membershipRepository) FilterStudents(ctx context.Context, q membership.Query) ([]membership.StudentData, membership.StatusCounts, error) {
	repo.db.membership.RLock()
	defer repo.db.membership.RUnlock()

	all := repo.filtered(q)

	var counts membership.StatusCounts
	counts.Total = len(all)
	for _, s := range all {
		status := s.OrgStatus
		if q.Scope == membership.ScopeCouncil {
			status = s.CouncilStatus
		}
		if status == membership.StatusMember {
			counts.Members++
		} else {
			counts.NonMembers++
		}
	}

	start := (q.Page - 1) * membership.PageSize
	if start >= len(all) {
		return nil, counts, nil
	}
	end := start + membership.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], counts, nil
}

func (repo *membershipRepository) DistinctSections(ctx context.Context, q membership.Query) ([]string, error) {
	repo.db.membership.RLock()
	defer repo.db.membership.RUnlock()

	seen := make(map[string]bool)
	var sections []string
	for _, s := range repo.db.membership.students {
		if !repo.inScope(q, s) {
			continue
		}
		if q.Filter.Course != "" && s.Course != q.Filter.Course {
			continue
		}
		if !seen[s.Section] {
			seen[s.Section] = true
			sections = append(sections, s.Section)
		}
	}
	sort.Strings(sections)
	return sections, nil
}
