package academic

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
)

var (
	// errors
	ErrNotFound         = errors.New("academic term not found")
	ErrNoActiveTerm     = errors.New("no active academic year")
	ErrNoActiveSemester = errors.New("no active semester")
	ErrAlreadyArchived  = errors.New("academic term is already archived")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateTerm(ctx context.Context, term Term) (Term, error)
		GetTermByID(ctx context.Context, id string) (Term, error)
		QueryAllTerms(ctx context.Context) ([]Term, error)
		GetActiveTerm(ctx context.Context) (Term, error)
		// ActivateTerm flips the given term to active and archives any previously
		// active term in the same transaction, preserving the single-active invariant.
		ActivateTerm(ctx context.Context, id string) (Term, error)

		CreateSemester(ctx context.Context, sem Semester) (Semester, error)
		GetSemesterByID(ctx context.Context, id string) (Semester, error)
		GetActiveSemester(ctx context.Context) (Semester, error)
		ActivateSemester(ctx context.Context, id string) (Semester, error)

		// ArchiveTermCascade runs the whole archival cascade in one transaction:
		// term + semesters flipped to archived, owner recognition reset and names
		// cleared, student rosters and owner documents of the term deleted.
		// Any step's failure rolls back everything.
		ArchiveTermCascade(ctx context.Context, termID string) (ArchiveResult, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) CreateTerm(ctx context.Context, p core.Principal, nt NewTerm) (Term, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return Term{}, core.ErrPermissionDenied
	}
	now := nowFunc().UTC()
	term := Term{
		SchoolYear:      nt.SchoolYear,
		StartDate:       nt.StartDate,
		EndDate:         nt.EndDate,
		SubmissionOpen:  nt.SubmissionOpen,
		SubmissionClose: nt.SubmissionClose,
		Status:          StatusArchived, // created inactive; activation is explicit
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateTerm(ctx, term)
}

func (svc *Service) ActivateTerm(ctx context.Context, p core.Principal, id string) (Term, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return Term{}, core.ErrPermissionDenied
	}
	return svc.repo.ActivateTerm(ctx, id)
}

func (svc *Service) CreateSemester(ctx context.Context, p core.Principal, ns NewSemester) (Semester, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return Semester{}, core.ErrPermissionDenied
	}
	if _, err := svc.repo.GetTermByID(ctx, ns.TermID); err != nil {
		return Semester{}, err
	}
	now := nowFunc().UTC()
	sem := Semester{
		TermID:    ns.TermID,
		Name:      ns.Name,
		Status:    StatusArchived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSemester(ctx, sem)
}

func (svc *Service) ActivateSemester(ctx context.Context, p core.Principal, id string) (Semester, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return Semester{}, core.ErrPermissionDenied
	}
	return svc.repo.ActivateSemester(ctx, id)
}

func (svc *Service) QueryAllTerms(ctx context.Context) ([]Term, error) {
	return svc.repo.QueryAllTerms(ctx)
}

// CurrentTermID scopes every roster/document query to "current" data.
// Absence of an active term is a recognized, handled condition.
func (svc *Service) CurrentTermID(ctx context.Context) (string, error) {
	term, err := svc.repo.GetActiveTerm(ctx)
	if err != nil {
		if err == ErrNotFound {
			return "", ErrNoActiveTerm
		}
		return "", err
	}
	return term.ID, nil
}

func (svc *Service) CurrentSemesterID(ctx context.Context) (string, error) {
	sem, err := svc.repo.GetActiveSemester(ctx)
	if err != nil {
		if err == ErrNotFound {
			return "", ErrNoActiveSemester
		}
		return "", err
	}
	return sem.ID, nil
}

// ArchiveTerm archives one academic year and cascades the consequences.
func (svc *Service) ArchiveTerm(ctx context.Context, p core.Principal, termID string) (ArchiveResult, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return ArchiveResult{}, core.ErrPermissionDenied
	}
	term, err := svc.repo.GetTermByID(ctx, termID)
	if err != nil {
		return ArchiveResult{}, err
	}
	if !term.IsActive() {
		return ArchiveResult{}, ErrAlreadyArchived
	}
	res, err := svc.repo.ArchiveTermCascade(ctx, termID)
	if err != nil {
		return ArchiveResult{}, pkgerrors.Wrap(err, "archiving term "+term.SchoolYear)
	}
	svc.logger.Info("archived academic year "+term.SchoolYear, res)
	return res, nil
}

// ArchiveExpired archives every active term whose end date has passed.
// Runs inline on login and behind the operator's "run now" action.
func (svc *Service) ArchiveExpired(ctx context.Context) ([]ArchiveResult, error) {
	terms, err := svc.repo.QueryAllTerms(ctx)
	if err != nil {
		return nil, err
	}
	now := nowFunc().UTC()

	var results []ArchiveResult
	for _, term := range terms {
		if !term.Expired(now) {
			continue
		}
		res, err := svc.repo.ArchiveTermCascade(ctx, term.ID)
		if err != nil {
			return results, pkgerrors.Wrap(err, "archiving expired term "+term.SchoolYear)
		}
		svc.logger.Info("archived expired academic year "+term.SchoolYear, res)
		results = append(results, res)
	}
	return results, nil
}
