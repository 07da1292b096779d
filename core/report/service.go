package report

import (
	"context"

	"github.com/swaaagray/saoms/core"
)

type (
	Repository interface {
		MembershipSummary(ctx context.Context, collegeID, semesterID string) ([]MembershipRow, error)
		DocumentStatuses(ctx context.Context, collegeID, termID string) ([]DocumentStatusRow, error)
		EventSummaries(ctx context.Context, collegeID, termID string) ([]EventSummaryRow, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Reporting roles: OSAS sees everything; the MIS coordinator is college-scoped
// read/report only.
func (svc *Service) scope(p core.Principal) (string, error) {
	switch p.Role {
	case core.RoleOsas:
		return "", nil // all colleges
	case core.RoleMisCoordinator:
		if p.CollegeID == "" {
			return "", core.ErrPermissionDenied
		}
		return p.CollegeID, nil
	}
	return "", core.ErrPermissionDenied
}

func (svc *Service) MembershipSummary(ctx context.Context, p core.Principal, semesterID string) ([]MembershipRow, error) {
	collegeID, err := svc.scope(p)
	if err != nil {
		return nil, err
	}
	return svc.repo.MembershipSummary(ctx, collegeID, semesterID)
}

func (svc *Service) DocumentStatuses(ctx context.Context, p core.Principal, termID string) ([]DocumentStatusRow, error) {
	collegeID, err := svc.scope(p)
	if err != nil {
		return nil, err
	}
	return svc.repo.DocumentStatuses(ctx, collegeID, termID)
}

func (svc *Service) EventSummaries(ctx context.Context, p core.Principal, termID string) ([]EventSummaryRow, error) {
	collegeID, err := svc.scope(p)
	if err != nil {
		return nil, err
	}
	return svc.repo.EventSummaries(ctx, collegeID, termID)
}
