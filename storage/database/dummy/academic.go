package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/org"
)

// academicRepository spans several tables: archival cascades across owners,
// rosters and documents.
type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateTerm(ctx context.Context, term academic.Term) (academic.Term, error) {
	repo.db.academic.Lock()
	defer repo.db.academic.Unlock()

	term.ID = uuid.New().String()
	repo.db.academic.terms[term.ID] = &term
	return term, nil
}

func (repo *academicRepository) GetTermByID(ctx context.Context, id string) (academic.Term, error) {
	repo.db.academic.RLock()
	defer repo.db.academic.RUnlock()

	if term, ok := repo.db.academic.terms[id]; ok {
		return *term, nil
	}
	return academic.Term{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryAllTerms(ctx context.Context) ([]academic.Term, error) {
	repo.db.academic.RLock()
	defer repo.db.academic.RUnlock()

	terms := make([]academic.Term, 0, len(repo.db.academic.terms))
	for _, term := range repo.db.academic.terms {
		terms = append(terms, *term)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].StartDate.After(terms[j].StartDate) })
	return terms, nil
}

func (repo *academicRepository) GetActiveTerm(ctx context.Context) (academic.Term, error) {
	repo.db.academic.RLock()
	defer repo.db.academic.RUnlock()

	for _, term := range repo.db.academic.terms {
		if term.Status == academic.StatusActive {
			return *term, nil
		}
	}
	return academic.Term{}, academic.ErrNoActiveTerm
}

func (repo *academicRepository) ActivateTerm(ctx context.Context, id string) (academic.Term, error) {
	repo.db.academic.Lock()
	defer repo.db.academic.Unlock()

	term, ok := repo.db.academic.terms[id]
	if !ok {
		return academic.Term{}, academic.ErrNotFound
	}

	now := time.Now().UTC()
	for _, t := range repo.db.academic.terms {
		if t.Status == academic.StatusActive {
			t.Status = academic.StatusArchived
			t.UpdatedAt = now
		}
	}
	for _, s := range repo.db.academic.semesters {
		if s.Status == academic.StatusActive {
			s.Status = academic.StatusArchived
			s.UpdatedAt = now
		}
	}
	term.Status = academic.StatusActive
	term.UpdatedAt = now
	return *term, nil
}

func (repo *academicRepository) CreateSemester(ctx context.Context, sem academic.Semester) (academic.Semester, error) {
	repo.db.academic.Lock()
	defer repo.db.academic.Unlock()

	sem.ID = uuid.New().String()
	repo.db.academic.semesters[sem.ID] = &sem
	return sem, nil
}

func (repo *academicRepository) GetSemesterByID(ctx context.Context, id string) (academic.Semester, error) {
	repo.db.academic.RLock()
	defer repo.db.academic.RUnlock()

	if sem, ok := repo.db.academic.semesters[id]; ok {
		return *sem, nil
	}
	return academic.Semester{}, academic.ErrNotFound
}

func (repo *academicRepository) GetActiveSemester(ctx context.Context) (academic.Semester, error) {
	repo.db.academic.RLock()
	defer repo.db.academic.RUnlock()

	for _, sem := range repo.db.academic.semesters {
		if sem.Status == academic.StatusActive {
			return *sem, nil
		}
	}
	return academic.Semester{}, academic.ErrNoActiveSemester
}

func (repo *academicRepository) ActivateSemester(ctx context.Context, id string) (academic.Semester, error) {
	repo.db.academic.Lock()
	defer repo.db.academic.Unlock()

	sem, ok := repo.db.academic.semesters[id]
	if !ok {
		return academic.Semester{}, academic.ErrNotFound
	}

	now := time.Now().UTC()
	for _, s := range repo.db.academic.semesters {
		if s.Status == academic.StatusActive {
			s.Status = academic.StatusArchived
			s.UpdatedAt = now
		}
	}
	sem.Status = academic.StatusActive
	sem.UpdatedAt = now
	return *sem, nil
}

func (repo *academicRepository) ArchiveTermCascade(ctx context.Context, termID string) (academic.ArchiveResult, error) {
	repo.db.academic.Lock()
	defer repo.db.academic.Unlock()
	repo.db.org.Lock()
	defer repo.db.org.Unlock()
	repo.db.membership.Lock()
	defer repo.db.membership.Unlock()
	repo.db.document.Lock()
	defer repo.db.document.Unlock()

	term, ok := repo.db.academic.terms[termID]
	if !ok {
		return academic.ArchiveResult{}, academic.ErrNotFound
	}
	if term.Status == academic.StatusArchived {
		return academic.ArchiveResult{}, academic.ErrAlreadyArchived
	}

	now := time.Now().UTC()
	res := academic.ArchiveResult{TermID: term.ID, SchoolYear: term.SchoolYear}

	// org/council compliance documents only; event-owned documents are retained
	for id, doc := range repo.db.document.documents {
		if doc.TermID == termID && doc.OwnerKind != core.OwnerEvent {
			delete(repo.db.document.documents, id)
			res.DocumentsDeleted++
		}
	}

	termSemesters := make(map[string]bool)
	for _, sem := range repo.db.academic.semesters {
		if sem.TermID == termID {
			termSemesters[sem.ID] = true
		}
	}
	for id, s := range repo.db.membership.students {
		if termSemesters[s.SemesterID] {
			delete(repo.db.membership.students, id)
			res.StudentRowsDeleted++
		}
	}

	for _, o := range repo.db.org.orgs {
		if o.TermID != termID {
			continue
		}
		o.RecognitionStatus = org.RecognitionUnrecognized
		o.PresidentName = ""
		o.AdviserName = ""
		o.UpdatedAt = now
		res.OrganizationsReset++
	}
	for _, c := range repo.db.org.councils {
		if c.TermID != termID {
			continue
		}
		c.RecognitionStatus = org.RecognitionUnrecognized
		c.PresidentName = ""
		c.AdviserName = ""
		c.UpdatedAt = now
		res.CouncilsReset++
	}

	for _, sem := range repo.db.academic.semesters {
		if sem.TermID == termID {
			sem.Status = academic.StatusArchived
			sem.UpdatedAt = now
			res.SemestersArchived++
		}
	}
	term.Status = academic.StatusArchived
	term.UpdatedAt = now
	return res, nil
}
