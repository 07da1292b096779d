package org

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/swaaagray/saoms/core"
)

var (
	// errors
	ErrNotFound          = errors.New("organization not found")
	ErrCodeExists        = errors.New("an organization or council with this code already exists")
	ErrCourseHasOrg      = errors.New("this course already has an organization")
	ErrCollegeHasCouncil = errors.New("this college already has a council")
	ErrAlreadyPresident  = errors.New("this student is already a president of another organization")
	ErrUnknownPosition   = errors.New("unknown officer position")
)

type (
	Repository interface {
		QueryColleges(ctx context.Context) ([]College, error)
		CreateCollege(ctx context.Context, c College) (College, error)
		QueryCoursesByCollege(ctx context.Context, collegeID string) ([]Course, error)
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)

		CreateOrganization(ctx context.Context, o Organization) (Organization, error)
		GetOrganizationByID(ctx context.Context, id string) (Organization, error)
		GetOrganizationByCourse(ctx context.Context, courseID string) (Organization, error)
		QueryOrganizations(ctx context.Context) ([]Organization, error)
		UpdateOrganizationInfo(ctx context.Context, id, presidentName, adviserName string) (Organization, error)

		CreateCouncil(ctx context.Context, c Council) (Council, error)
		GetCouncilByID(ctx context.Context, id string) (Council, error)
		GetCouncilByCollege(ctx context.Context, collegeID string) (Council, error)
		QueryCouncils(ctx context.Context) ([]Council, error)
		UpdateCouncilInfo(ctx context.Context, id, presidentName, adviserName string) (Council, error)

		// CheckCodeUniqueness fails with ErrCodeExists when the code is taken by
		// any organization or council.
		CheckCodeUniqueness(ctx context.Context, code string) error
		// IsPresidentElsewhere reports whether the student number already holds a
		// President position under a different owner for the given term.
		IsPresidentElsewhere(ctx context.Context, studentNumber, ownerID, termID string) (bool, error)

		CreateOfficial(ctx context.Context, o StudentOfficial) (StudentOfficial, error)
		QueryOfficials(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]StudentOfficial, error)
		DeleteOfficial(ctx context.Context, ownerKind core.OwnerKind, ownerID, officialID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryColleges(ctx context.Context) ([]College, error) {
	return svc.repo.QueryColleges(ctx)
}

func (svc *Service) QueryCoursesByCollege(ctx context.Context, collegeID string) ([]Course, error) {
	return svc.repo.QueryCoursesByCollege(ctx, collegeID)
}

// CreateOrganization registers a recognized organization; called by the
// application review flow after OSAS approval. Business-rule conflicts are
// surfaced as named errors before any write occurs.
func (svc *Service) CreateOrganization(ctx context.Context, code, name, courseID, termID string) (Organization, error) {
	code = core.CleanString(code, true /* lower */)
	if err := svc.repo.CheckCodeUniqueness(ctx, code); err != nil {
		return Organization{}, err
	}
	if _, err := svc.repo.GetOrganizationByCourse(ctx, courseID); err == nil {
		return Organization{}, ErrCourseHasOrg
	} else if err != ErrNotFound {
		return Organization{}, err
	}
	now := time.Now().UTC()
	o := Organization{
		Code:              code,
		Name:              core.CleanString(name),
		CourseID:          courseID,
		RecognitionStatus: RecognitionRecognized,
		TermID:            termID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateOrganization(ctx, o)
}

// CreateCouncil registers the (single) recognized council of a college.
func (svc *Service) CreateCouncil(ctx context.Context, code, name, collegeID, termID string) (Council, error) {
	code = core.CleanString(code, true /* lower */)
	if err := svc.repo.CheckCodeUniqueness(ctx, code); err != nil {
		return Council{}, err
	}
	if _, err := svc.repo.GetCouncilByCollege(ctx, collegeID); err == nil {
		return Council{}, ErrCollegeHasCouncil
	} else if err != ErrNotFound {
		return Council{}, err
	}
	now := time.Now().UTC()
	c := Council{
		Code:              code,
		Name:              core.CleanString(name),
		CollegeID:         collegeID,
		RecognitionStatus: RecognitionRecognized,
		TermID:            termID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateCouncil(ctx, c)
}

func (svc *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	return svc.repo.GetOrganizationByID(ctx, id)
}

func (svc *Service) GetCouncil(ctx context.Context, id string) (Council, error) {
	return svc.repo.GetCouncilByID(ctx, id)
}

func (svc *Service) QueryOrganizations(ctx context.Context) ([]Organization, error) {
	return svc.repo.QueryOrganizations(ctx)
}

func (svc *Service) QueryCouncils(ctx context.Context) ([]Council, error) {
	return svc.repo.QueryCouncils(ctx)
}

// NeedsInfoRefresh reports whether the principal's owned entity carries
// cleared name fields from a prior rollover.
func (svc *Service) NeedsInfoRefresh(ctx context.Context, p core.Principal) (bool, error) {
	switch {
	case p.IsOrgScoped() && p.OrganizationID != "":
		o, err := svc.repo.GetOrganizationByID(ctx, p.OrganizationID)
		if err != nil {
			return false, err
		}
		return o.NeedsInfoRefresh(), nil
	case p.IsCouncilScoped() && p.CouncilID != "":
		c, err := svc.repo.GetCouncilByID(ctx, p.CouncilID)
		if err != nil {
			return false, err
		}
		return c.NeedsInfoRefresh(), nil
	}
	return false, nil
}

// RefreshOwnerInfo is the mandatory post-rollover info update. Presidents and
// advisers may only refresh their own entity.
func (svc *Service) RefreshOwnerInfo(ctx context.Context, p core.Principal, up OwnerInfoUpdate) error {
	switch {
	case p.IsOrgScoped() && p.OrganizationID != "":
		_, err := svc.repo.UpdateOrganizationInfo(ctx, p.OrganizationID, up.PresidentName, up.AdviserName)
		return err
	case p.IsCouncilScoped() && p.CouncilID != "":
		_, err := svc.repo.UpdateCouncilInfo(ctx, p.CouncilID, up.PresidentName, up.AdviserName)
		return err
	}
	return core.ErrPermissionDenied
}

// AddOfficial records an officer for the principal's owned entity in the
// current term. A student may be President of at most one owner per term.
func (svc *Service) AddOfficial(ctx context.Context, p core.Principal, termID string, no NewOfficial) (StudentOfficial, error) {
	ownerKind, ownerID, err := ownedEntity(p)
	if err != nil {
		return StudentOfficial{}, err
	}
	if PositionRank(no.Position) > len(PositionRanks) {
		return StudentOfficial{}, ErrUnknownPosition
	}
	if no.Position == "President" {
		taken, err := svc.repo.IsPresidentElsewhere(ctx, no.StudentNumber, ownerID, termID)
		if err != nil {
			return StudentOfficial{}, err
		}
		if taken {
			return StudentOfficial{}, ErrAlreadyPresident
		}
	}
	official := StudentOfficial{
		OwnerKind:     ownerKind,
		OwnerID:       ownerID,
		TermID:        termID,
		StudentNumber: no.StudentNumber,
		Name:          no.Name,
		Position:      no.Position,
		PicturePath:   no.PicturePath,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateOfficial(ctx, official)
}

// ListOfficials returns the owner's officer roster in deterministic
// position-rank order.
func (svc *Service) ListOfficials(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]StudentOfficial, error) {
	officials, err := svc.repo.QueryOfficials(ctx, ownerKind, ownerID, termID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(officials, func(i, j int) bool {
		ri, rj := PositionRank(officials[i].Position), PositionRank(officials[j].Position)
		if ri != rj {
			return ri < rj
		}
		return officials[i].Name < officials[j].Name
	})
	return officials, nil
}

func (svc *Service) RemoveOfficial(ctx context.Context, p core.Principal, officialID string) error {
	ownerKind, ownerID, err := ownedEntity(p)
	if err != nil {
		return err
	}
	return svc.repo.DeleteOfficial(ctx, ownerKind, ownerID, officialID)
}

// ownedEntity resolves the principal's owned owner; non-owner roles get
// permission denied.
func ownedEntity(p core.Principal) (core.OwnerKind, string, error) {
	switch {
	case p.IsOrgScoped() && p.OrganizationID != "":
		return core.OwnerOrganization, p.OrganizationID, nil
	case p.IsCouncilScoped() && p.CouncilID != "":
		return core.OwnerCouncil, p.CouncilID, nil
	}
	return "", "", core.ErrPermissionDenied
}
