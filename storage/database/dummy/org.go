package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/org"
)

type orgRepository struct {
	db *orgTable
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *DB) *orgRepository {
	return &orgRepository{db: db.org}
}

func (repo *orgRepository) QueryColleges(ctx context.Context) ([]org.College, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	colleges := make([]org.College, 0, len(repo.db.colleges))
	for _, c := range repo.db.colleges {
		colleges = append(colleges, *c)
	}
	sort.Slice(colleges, func(i, j int) bool { return colleges[i].Name < colleges[j].Name })
	return colleges, nil
}

func (repo *orgRepository) CreateCollege(ctx context.Context, c org.College) (org.College, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.colleges[c.ID] = &c
	return c, nil
}

func (repo *orgRepository) QueryCoursesByCollege(ctx context.Context, collegeID string) ([]org.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courses []org.Course
	for _, c := range repo.db.courses {
		if c.CollegeID == collegeID {
			courses = append(courses, *c)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *orgRepository) CreateCourse(ctx context.Context, c org.Course) (org.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *orgRepository) GetCourseByID(ctx context.Context, id string) (org.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return org.Course{}, org.ErrNotFound
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	o.ID = uuid.New().String()
	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) GetOrganizationByID(ctx context.Context, id string) (org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.orgs[id]; ok {
		return *o, nil
	}
	return org.Organization{}, org.ErrNotFound
}

func (repo *orgRepository) GetOrganizationByCourse(ctx context.Context, courseID string) (org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, o := range repo.db.orgs {
		if o.CourseID == courseID {
			return *o, nil
		}
	}
	return org.Organization{}, org.ErrNotFound
}

func (repo *orgRepository) QueryOrganizations(ctx context.Context) ([]org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	orgs := make([]org.Organization, 0, len(repo.db.orgs))
	for _, o := range repo.db.orgs {
		orgs = append(orgs, *o)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func (repo *orgRepository) UpdateOrganizationInfo(ctx context.Context, id, presidentName, adviserName string) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	o, ok := repo.db.orgs[id]
	if !ok {
		return org.Organization{}, org.ErrNotFound
	}
	o.PresidentName = presidentName
	o.AdviserName = adviserName
	o.UpdatedAt = time.Now().UTC()
	return *o, nil
}

func (repo *orgRepository) CreateCouncil(ctx context.Context, c org.Council) (org.Council, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.councils[c.ID] = &c
	return c, nil
}

func (repo *orgRepository) GetCouncilByID(ctx context.Context, id string) (org.Council, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.councils[id]; ok {
		return *c, nil
	}
	return org.Council{}, org.ErrNotFound
}

func (repo *orgRepository) GetCouncilByCollege(ctx context.Context, collegeID string) (org.Council, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.councils {
		if c.CollegeID == collegeID {
			return *c, nil
		}
	}
	return org.Council{}, org.ErrNotFound
}

func (repo *orgRepository) QueryCouncils(ctx context.Context) ([]org.Council, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	councils := make([]org.Council, 0, len(repo.db.councils))
	for _, c := range repo.db.councils {
		councils = append(councils, *c)
	}
	sort.Slice(councils, func(i, j int) bool { return councils[i].Name < councils[j].Name })
	return councils, nil
}

func (repo *orgRepository) UpdateCouncilInfo(ctx context.Context, id, presidentName, adviserName string) (org.Council, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.councils[id]
	if !ok {
		return org.Council{}, org.ErrNotFound
	}
	c.PresidentName = presidentName
	c.AdviserName = adviserName
	c.UpdatedAt = time.Now().UTC()
	return *c, nil
}

func (repo *orgRepository) CheckCodeUniqueness(ctx context.Context, code string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, o := range repo.db.orgs {
		if o.Code == code {
			return org.ErrCodeExists
		}
	}
	for _, c := range repo.db.councils {
		if c.Code == code {
			return org.ErrCodeExists
		}
	}
	return nil
}

func (repo *orgRepository) IsPresidentElsewhere(ctx context.Context, studentNumber, ownerID, termID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, o := range repo.db.officials {
		if o.StudentNumber == studentNumber && o.Position == "President" && o.OwnerID != ownerID && o.TermID == termID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *orgRepository) CreateOfficial(ctx context.Context, o org.StudentOfficial) (org.StudentOfficial, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	o.ID = uuid.New().String()
	repo.db.officials[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) QueryOfficials(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]org.StudentOfficial, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var officials []org.StudentOfficial
	for _, o := range repo.db.officials {
		if o.OwnerKind == ownerKind && o.OwnerID == ownerID && o.TermID == termID {
			officials = append(officials, *o)
		}
	}
	return officials, nil
}

func (repo *orgRepository) DeleteOfficial(ctx context.Context, ownerKind core.OwnerKind, ownerID, officialID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	o, ok := repo.db.officials[officialID]
	if !ok || o.OwnerKind != ownerKind || o.OwnerID != ownerID {
		return org.ErrNotFound
	}
	delete(repo.db.officials, officialID)
	return nil
}
