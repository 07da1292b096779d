package org_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/org"
	dummydb "github.com/swaaagray/saoms/storage/database/dummy"
)

type orgFixture struct {
	svc     *org.Service
	repo    org.Repository
	college org.College
	course  org.Course
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewOrgRepository(db)

	ctx := context.Background()
	college, err := repo.CreateCollege(ctx, org.College{Name: "College of Computing"})
	require.NoError(t, err)
	course, err := repo.CreateCourse(ctx, org.Course{Name: "BSIT", CollegeID: college.ID})
	require.NoError(t, err)

	return &orgFixture{svc: org.NewService(repo), repo: repo, college: college, course: course}
}

func Test_orgService_CreateOrganization(t *testing.T) {
	fix := newOrgFixture(t)
	ctx := context.Background()

	o, err := fix.svc.CreateOrganization(ctx, "ITSC", "IT Student Circle", fix.course.ID, "term1")
	require.NoError(t, err)
	assert.Equal(t, "itsc", o.Code) // lowered
	assert.Equal(t, org.RecognitionRecognized, o.RecognitionStatus)

	// code taken, by an organization
	course2, err := fix.repo.CreateCourse(ctx, org.Course{Name: "BSCS", CollegeID: fix.college.ID})
	require.NoError(t, err)
	_, err = fix.svc.CreateOrganization(ctx, "itsc", "Impostor", course2.ID, "term1")
	assert.Equal(t, org.ErrCodeExists, err)

	// course already owned
	_, err = fix.svc.CreateOrganization(ctx, "other", "Other", fix.course.ID, "term1")
	assert.Equal(t, org.ErrCourseHasOrg, err)

	// codes are shared across organizations and councils
	_, err = fix.svc.CreateCouncil(ctx, "ITSC", "Computing Council", fix.college.ID, "term1")
	assert.Equal(t, org.ErrCodeExists, err)
}

func Test_orgService_CreateCouncil(t *testing.T) {
	fix := newOrgFixture(t)
	ctx := context.Background()

	c, err := fix.svc.CreateCouncil(ctx, "CCSC", "Computing Student Council", fix.college.ID, "term1")
	require.NoError(t, err)
	assert.Equal(t, "ccsc", c.Code)

	// one council per college
	_, err = fix.svc.CreateCouncil(ctx, "ccsc2", "Second Council", fix.college.ID, "term1")
	assert.Equal(t, org.ErrCollegeHasCouncil, err)
}

func Test_orgService_RefreshOwnerInfo(t *testing.T) {
	fix := newOrgFixture(t)
	ctx := context.Background()

	o, err := fix.svc.CreateOrganization(ctx, "itsc", "IT Student Circle", fix.course.ID, "term1")
	require.NoError(t, err)
	president := core.Principal{UserID: "u1", Role: core.RoleOrgPresident, OrganizationID: o.ID}

	// names are empty right after creation
	needs, err := fix.svc.NeedsInfoRefresh(ctx, president)
	require.NoError(t, err)
	assert.True(t, needs)

	// non-owner roles cannot refresh
	osas := core.Principal{UserID: "u2", Role: core.RoleOsas}
	err = fix.svc.RefreshOwnerInfo(ctx, osas, org.OwnerInfoUpdate{PresidentName: "Ana Cruz", AdviserName: "Prof. Reyes"})
	assert.Equal(t, core.ErrPermissionDenied, err)

	err = fix.svc.RefreshOwnerInfo(ctx, president, org.OwnerInfoUpdate{PresidentName: "Ana Cruz", AdviserName: "Prof. Reyes"})
	require.NoError(t, err)

	needs, err = fix.svc.NeedsInfoRefresh(ctx, president)
	require.NoError(t, err)
	assert.False(t, needs)

	got, err := fix.svc.GetOrganization(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", got.PresidentName)
	assert.Equal(t, "Prof. Reyes", got.AdviserName)
}

func Test_orgService_Officials(t *testing.T) {
	fix := newOrgFixture(t)
	ctx := context.Background()

	o, err := fix.svc.CreateOrganization(ctx, "itsc", "IT Student Circle", fix.course.ID, "term1")
	require.NoError(t, err)
	president := core.Principal{UserID: "u1", Role: core.RoleOrgPresident, OrganizationID: o.ID}

	add := func(number, name, position string) (org.StudentOfficial, error) {
		return fix.svc.AddOfficial(ctx, president, "term1", org.NewOfficial{
			StudentNumber: number,
			Name:          name,
			Position:      position,
		})
	}

	_, err = add("2021-0001", "Ana Cruz", "Chief Vibes Officer")
	assert.Equal(t, org.ErrUnknownPosition, err)

	_, err = add("2021-0003", "Mia Lopez", "Treasurer")
	require.NoError(t, err)
	_, err = add("2021-0002", "Ben Reyes", "Secretary")
	require.NoError(t, err)
	_, err = add("2021-0001", "Ana Cruz", "President")
	require.NoError(t, err)

	// listing is rank-ordered, not insertion-ordered
	officials, err := fix.svc.ListOfficials(ctx, core.OwnerOrganization, o.ID, "term1")
	require.NoError(t, err)
	require.Len(t, officials, 3)
	assert.Equal(t, "President", officials[0].Position)
	assert.Equal(t, "Secretary", officials[1].Position)
	assert.Equal(t, "Treasurer", officials[2].Position)

	// the president of this org cannot also be president of another
	course2, err := fix.repo.CreateCourse(ctx, org.Course{Name: "BSCS", CollegeID: fix.college.ID})
	require.NoError(t, err)
	o2, err := fix.svc.CreateOrganization(ctx, "css", "CS Society", course2.ID, "term1")
	require.NoError(t, err)
	president2 := core.Principal{UserID: "u2", Role: core.RoleOrgPresident, OrganizationID: o2.ID}
	_, err = fix.svc.AddOfficial(ctx, president2, "term1", org.NewOfficial{
		StudentNumber: "2021-0001",
		Name:          "Ana Cruz",
		Position:      "President",
	})
	assert.Equal(t, org.ErrAlreadyPresident, err)

	// a different term starts from a clean slate
	_, err = fix.svc.AddOfficial(ctx, president2, "term2", org.NewOfficial{
		StudentNumber: "2021-0001",
		Name:          "Ana Cruz",
		Position:      "President",
	})
	require.NoError(t, err)

	// removal is owner-scoped
	err = fix.svc.RemoveOfficial(ctx, president2, officials[0].ID)
	assert.Equal(t, org.ErrNotFound, err)
	require.NoError(t, fix.svc.RemoveOfficial(ctx, president, officials[0].ID))
	officials, err = fix.svc.ListOfficials(ctx, core.OwnerOrganization, o.ID, "term1")
	require.NoError(t, err)
	assert.Len(t, officials, 2)
}
