package membership_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	dummydb "github.com/swaaagray/saoms/storage/database/dummy"
)

const semesterID = "sem1"

type fixture struct {
	svc        *membership.Service
	db         *dummydb.DB
	org        org.Organization
	college    org.College
	president  core.Principal
	councilPre core.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	ctx := context.Background()
	orgRepo := dummydb.NewOrgRepository(db)

	college, err := orgRepo.CreateCollege(ctx, org.College{Name: "College of Computing"})
	require.NoError(t, err)
	course, err := orgRepo.CreateCourse(ctx, org.Course{Name: "BSIT", CollegeID: college.ID})
	require.NoError(t, err)
	o, err := orgRepo.CreateOrganization(ctx, org.Organization{
		Code: "itsc", Name: "IT Student Circle", CourseID: course.ID,
		RecognitionStatus: org.RecognitionRecognized, TermID: "term1",
	})
	require.NoError(t, err)

	return fixture{
		svc:        membership.NewService(dummydb.NewMembershipRepository(db)),
		db:         db,
		org:        o,
		college:    college,
		president:  core.Principal{UserID: "u-pres", Role: core.RoleOrgPresident, OrganizationID: o.ID},
		councilPre: core.Principal{UserID: "u-cpres", Role: core.RoleCouncilPresident, CouncilID: "c1", CollegeID: college.ID},
	}
}

func (f fixture) addStudents(t *testing.T, n int) []membership.StudentData {
	t.Helper()
	rows := make([]membership.NewStudent, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, membership.NewStudent{
			StudentNumber: fmt.Sprintf("2021-%04d", i+1),
			Name:          fmt.Sprintf("Student %04d", i+1),
			Course:        "BSIT",
			Section:       "3A",
			Sex:           "Female",
		})
	}
	students, err := f.svc.AddStudents(context.Background(), f.president, semesterID, rows)
	require.NoError(t, err)
	return students
}

func TestService_AddStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rows := []membership.NewStudent{{StudentNumber: "2021-0001", Name: "Ana", Course: "BSIT", Section: "3A"}}
	if _, err := f.svc.AddStudents(ctx, f.councilPre, semesterID, rows); err != core.ErrPermissionDenied {
		t.Errorf("AddStudents() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	students := f.addStudents(t, 3)
	require.Len(t, students, 3)
	for _, s := range students {
		// both flags start independent and unset
		assert.Equal(t, membership.StatusNonMember, s.OrgStatus)
		assert.Equal(t, membership.StatusNonMember, s.CouncilStatus)
		assert.Equal(t, f.org.ID, s.OrganizationID)
		assert.Equal(t, semesterID, s.SemesterID)
	}
}

func TestService_SetStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s := f.addStudents(t, 1)[0]

	if _, err := f.svc.SetStatus(ctx, f.president, s.ID, "club", membership.StatusMember); err != membership.ErrInvalidScope {
		t.Errorf("SetStatus() error = %v, want %v", err, membership.ErrInvalidScope)
	}
	if _, err := f.svc.SetStatus(ctx, f.president, s.ID, membership.ScopeOrg, "Active"); err != membership.ErrInvalidStatus {
		t.Errorf("SetStatus() error = %v, want %v", err, membership.ErrInvalidStatus)
	}

	// another organization's president sees nothing, not a 403
	foreign := core.Principal{UserID: "u-x", Role: core.RoleOrgPresident, OrganizationID: "org-x"}
	if _, err := f.svc.SetStatus(ctx, foreign, s.ID, membership.ScopeOrg, membership.StatusMember); err != membership.ErrNotFound {
		t.Errorf("SetStatus() error = %v, want %v", err, membership.ErrNotFound)
	}

	updated, err := f.svc.SetStatus(ctx, f.president, s.ID, membership.ScopeOrg, membership.StatusMember)
	require.NoError(t, err)
	assert.Equal(t, membership.StatusMember, updated.OrgStatus)
	// the council flag is untouched
	assert.Equal(t, membership.StatusNonMember, updated.CouncilStatus)

	// council presidents flip only the council flag, and only in their college
	updated, err = f.svc.SetStatus(ctx, f.councilPre, s.ID, membership.ScopeCouncil, membership.StatusMember)
	require.NoError(t, err)
	assert.Equal(t, membership.StatusMember, updated.CouncilStatus)
	assert.Equal(t, membership.StatusMember, updated.OrgStatus)

	otherCollege := core.Principal{UserID: "u-y", Role: core.RoleCouncilPresident, CouncilID: "c2", CollegeID: "college-y"}
	if _, err := f.svc.SetStatus(ctx, otherCollege, s.ID, membership.ScopeCouncil, membership.StatusMember); err != membership.ErrNotFound {
		t.Errorf("SetStatus() error = %v, want %v", err, membership.ErrNotFound)
	}

	// org presidents cannot reach the council flag
	if _, err := f.svc.SetStatus(ctx, f.president, s.ID, membership.ScopeCouncil, membership.StatusMember); err != membership.ErrNotFound {
		t.Errorf("SetStatus() error = %v, want %v", err, membership.ErrNotFound)
	}
}

func TestService_ListStudents_paging(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addStudents(t, membership.PageSize+5)

	page, err := f.svc.ListStudents(ctx, f.president, semesterID, membership.Filter{}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Students, membership.PageSize)
	assert.Equal(t, membership.PageSize+5, page.Counts.Total)
	assert.Equal(t, membership.PageSize+5, page.Counts.NonMembers)
	assert.Equal(t, 0, page.Counts.Members)

	page2, err := f.svc.ListStudents(ctx, f.president, semesterID, membership.Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Students, 5)
	// counts cover the full filtered set, not the page
	assert.Equal(t, page.Counts, page2.Counts)
}

func TestService_ListStudents_filters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	students := f.addStudents(t, 4)

	_, err := f.svc.SetStatus(ctx, f.president, students[0].ID, membership.ScopeOrg, membership.StatusMember)
	require.NoError(t, err)

	page, err := f.svc.ListStudents(ctx, f.president, semesterID, membership.Filter{Status: membership.StatusMember}, 1)
	require.NoError(t, err)
	require.Len(t, page.Students, 1)
	assert.Equal(t, students[0].ID, page.Students[0].ID)
	assert.Equal(t, 1, page.Counts.Total)

	page, err = f.svc.ListStudents(ctx, f.president, semesterID, membership.Filter{Search: "0003"}, 1)
	require.NoError(t, err)
	require.Len(t, page.Students, 1)
	assert.Equal(t, "2021-0003", page.Students[0].StudentNumber)

	// a section that does not exist under the course resets to all sections
	page, err = f.svc.ListStudents(ctx, f.president, semesterID, membership.Filter{Course: "BSIT", Section: "9Z"}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Students, 4)
}

func TestService_ListStudents_councilScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addStudents(t, 2)

	page, err := f.svc.ListStudents(ctx, f.councilPre, semesterID, membership.Filter{}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Students, 2)

	otherCollege := core.Principal{UserID: "u-y", Role: core.RoleCouncilPresident, CouncilID: "c2", CollegeID: "college-y"}
	page, err = f.svc.ListStudents(ctx, otherCollege, semesterID, membership.Filter{}, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Students)
}

func TestService_ListStudents_unscopedRoles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addStudents(t, 3)

	// osas and mis carry no college: they see every roster
	osas := core.Principal{UserID: "u-osas", Role: core.RoleOsas}
	page, err := f.svc.ListStudents(ctx, osas, semesterID, membership.Filter{}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Students, 3)
	assert.Equal(t, 3, page.Counts.NonMembers)

	mis := core.Principal{UserID: "u-mis", Role: core.RoleMisCoordinator}
	page, err = f.svc.ListStudents(ctx, mis, semesterID, membership.Filter{}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Students, 3)

	// a mis coordinator pinned to a college keeps the college restriction
	misScoped := core.Principal{UserID: "u-mis2", Role: core.RoleMisCoordinator, CollegeID: "college-y"}
	page, err = f.svc.ListStudents(ctx, misScoped, semesterID, membership.Filter{}, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Students)
}

func TestService_SectionsForCourse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addStudents(t, 2)

	sections, err := f.svc.SectionsForCourse(ctx, f.president, semesterID, "BSIT")
	require.NoError(t, err)
	assert.Equal(t, []string{"3A"}, sections)

	sections, err = f.svc.SectionsForCourse(ctx, f.president, semesterID, "BSCS")
	require.NoError(t, err)
	assert.Empty(t, sections)
}
