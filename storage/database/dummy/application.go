package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swaaagray/saoms/core/application"
)

type applicationRepository struct {
	db *applicationTable
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db.application}
}

func (repo *applicationRepository) UpsertVerification(ctx context.Context, v application.EmailVerification, cooldown time.Duration) (application.EmailVerification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.verifications[v.Email]; ok {
		elapsed := v.SentAt.Sub(existing.SentAt)
		if elapsed < cooldown {
			remaining := int((cooldown - elapsed).Seconds())
			if remaining < 1 {
				remaining = 1
			}
			return application.EmailVerification{}, &application.CooldownError{Remaining: remaining}
		}
	}

	v.ID = uuid.New().String()
	repo.db.verifications[v.Email] = &v
	return v, nil
}

func (repo *applicationRepository) GetVerificationByEmail(ctx context.Context, email string) (application.EmailVerification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.verifications[email]; ok {
		return *v, nil
	}
	return application.EmailVerification{}, application.ErrNotFound
}

func (repo *applicationRepository) DeleteVerification(ctx context.Context, email string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.verifications, email)
	return nil
}

func (repo *applicationRepository) HasPendingCode(ctx context.Context, code string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, app := range repo.db.applications {
		if app.OrgCode == code && app.Status == application.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (repo *applicationRepository) SubmitApplication(ctx context.Context, email string, app application.OrganizationApplication) (application.OrganizationApplication, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.verifications, email)
	app.ID = uuid.New().String()
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id string) (application.OrganizationApplication, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return application.OrganizationApplication{}, application.ErrNotFound
}

func (repo *applicationRepository) QueryPendingApplications(ctx context.Context) ([]application.OrganizationApplication, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var apps []application.OrganizationApplication
	for _, app := range repo.db.applications {
		if app.Status == application.StatusPending {
			apps = append(apps, *app)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].SubmittedAt.Before(apps[j].SubmittedAt) })
	return apps, nil
}

func (repo *applicationRepository) MarkReviewed(ctx context.Context, app application.OrganizationApplication) (application.OrganizationApplication, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.applications[app.ID]; !ok {
		return application.OrganizationApplication{}, application.ErrNotFound
	}
	repo.db.applications[app.ID] = &app
	return app, nil
}
