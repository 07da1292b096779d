package academic_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/document"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	dummydb "github.com/swaaagray/saoms/storage/database/dummy"
)

var (
	osas      = core.Principal{UserID: "u-osas", Role: core.RoleOsas}
	president = core.Principal{UserID: "u-pres", Role: core.RoleOrgPresident}
)

func setup(t *testing.T) (*academic.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	logger := core.StdLogger{Std: log.New(io.Discard, "", 0)}
	return academic.NewService(dummydb.NewAcademicRepository(db), logger), db
}

func newTerm(year string, end time.Time) academic.NewTerm {
	return academic.NewTerm{
		SchoolYear:      year,
		StartDate:       end.AddDate(-1, 0, 0),
		EndDate:         end,
		SubmissionOpen:  end.AddDate(-1, 0, 0),
		SubmissionClose: end,
	}
}

func TestService_CreateTerm(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	end := time.Now().UTC().AddDate(0, 6, 0)

	if _, err := svc.CreateTerm(ctx, president, newTerm("2025-2026", end)); err != core.ErrPermissionDenied {
		t.Errorf("CreateTerm() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	term, err := svc.CreateTerm(ctx, osas, newTerm("2025-2026", end))
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", term.SchoolYear)
	// activation is a separate, explicit step
	assert.Equal(t, academic.StatusArchived, term.Status)

	if _, err = svc.CurrentTermID(ctx); err != academic.ErrNoActiveTerm {
		t.Errorf("CurrentTermID() error = %v, want %v", err, academic.ErrNoActiveTerm)
	}
}

func TestService_ActivateTerm_singleActive(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	end := time.Now().UTC().AddDate(0, 6, 0)

	t1, err := svc.CreateTerm(ctx, osas, newTerm("2024-2025", end))
	require.NoError(t, err)
	t2, err := svc.CreateTerm(ctx, osas, newTerm("2025-2026", end.AddDate(1, 0, 0)))
	require.NoError(t, err)

	_, err = svc.ActivateTerm(ctx, osas, t1.ID)
	require.NoError(t, err)
	id, err := svc.CurrentTermID(ctx)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, id)

	// activating another term demotes the previous one
	_, err = svc.ActivateTerm(ctx, osas, t2.ID)
	require.NoError(t, err)
	id, err = svc.CurrentTermID(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2.ID, id)

	terms, err := svc.QueryAllTerms(ctx)
	require.NoError(t, err)
	active := 0
	for _, term := range terms {
		if term.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestService_Semesters(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	end := time.Now().UTC().AddDate(0, 6, 0)

	if _, err := svc.CreateSemester(ctx, osas, academic.NewSemester{TermID: "nope", Name: "1st Semester"}); err != academic.ErrNotFound {
		t.Errorf("CreateSemester() error = %v, want %v", err, academic.ErrNotFound)
	}

	term, err := svc.CreateTerm(ctx, osas, newTerm("2025-2026", end))
	require.NoError(t, err)
	s1, err := svc.CreateSemester(ctx, osas, academic.NewSemester{TermID: term.ID, Name: "1st Semester"})
	require.NoError(t, err)
	s2, err := svc.CreateSemester(ctx, osas, academic.NewSemester{TermID: term.ID, Name: "2nd Semester"})
	require.NoError(t, err)

	if _, err = svc.CurrentSemesterID(ctx); err != academic.ErrNoActiveSemester {
		t.Errorf("CurrentSemesterID() error = %v, want %v", err, academic.ErrNoActiveSemester)
	}

	_, err = svc.ActivateSemester(ctx, osas, s1.ID)
	require.NoError(t, err)
	_, err = svc.ActivateSemester(ctx, osas, s2.ID)
	require.NoError(t, err)

	id, err := svc.CurrentSemesterID(ctx)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, id)
}

// seedYearData populates one recognized organization with roster rows and a
// submitted document under the given term/semester.
func seedYearData(t *testing.T, db *dummydb.DB, termID, semesterID string) org.Organization {
	t.Helper()
	ctx := context.Background()
	orgRepo := dummydb.NewOrgRepository(db)

	college, err := orgRepo.CreateCollege(ctx, org.College{Name: "College of Computing"})
	require.NoError(t, err)
	course, err := orgRepo.CreateCourse(ctx, org.Course{Name: "BSIT", CollegeID: college.ID})
	require.NoError(t, err)
	o, err := orgRepo.CreateOrganization(ctx, org.Organization{
		Code:              "itsc",
		Name:              "IT Student Circle",
		CourseID:          course.ID,
		RecognitionStatus: org.RecognitionRecognized,
		PresidentName:     "Ana Cruz",
		AdviserName:       "Prof. Reyes",
		TermID:            termID,
	})
	require.NoError(t, err)

	memRepo := dummydb.NewMembershipRepository(db)
	for _, num := range []string{"2021-0001", "2021-0002", "2021-0003"} {
		_, err = memRepo.CreateStudent(ctx, membership.StudentData{
			StudentNumber:  num,
			Name:           "Student " + num,
			Course:         "BSIT",
			Section:        "3A",
			OrganizationID: o.ID,
			SemesterID:     semesterID,
			OrgStatus:      membership.StatusNonMember,
			CouncilStatus:  membership.StatusNonMember,
		})
		require.NoError(t, err)
	}

	docRepo := dummydb.NewDocumentRepository(db)
	_, err = docRepo.CreateDocument(ctx, document.Document{
		OwnerKind: core.OwnerOrganization,
		OwnerID:   o.ID,
		TermID:    termID,
		TypeID:    "type1",
		FilePath:  "uploads/cbl.pdf",
		Status:    document.StatusPending,
	})
	require.NoError(t, err)
	return o
}

func TestService_ArchiveTerm_cascade(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	end := time.Now().UTC().AddDate(0, 6, 0)

	term, err := svc.CreateTerm(ctx, osas, newTerm("2025-2026", end))
	require.NoError(t, err)
	term, err = svc.ActivateTerm(ctx, osas, term.ID)
	require.NoError(t, err)
	sem, err := svc.CreateSemester(ctx, osas, academic.NewSemester{TermID: term.ID, Name: "1st Semester"})
	require.NoError(t, err)
	sem, err = svc.ActivateSemester(ctx, osas, sem.ID)
	require.NoError(t, err)

	o := seedYearData(t, db, term.ID, sem.ID)

	// an organization registered under the following term, outside the cascade
	nextTerm, err := svc.CreateTerm(ctx, osas, newTerm("2026-2027", end.AddDate(1, 0, 0)))
	require.NoError(t, err)
	orgRepo := dummydb.NewOrgRepository(db)
	course2, err := orgRepo.CreateCourse(ctx, org.Course{Name: "BSCS", CollegeID: ""})
	require.NoError(t, err)
	nextOrg, err := orgRepo.CreateOrganization(ctx, org.Organization{
		Code:              "css",
		Name:              "CS Society",
		CourseID:          course2.ID,
		RecognitionStatus: org.RecognitionRecognized,
		PresidentName:     "Ben Reyes",
		AdviserName:       "Prof. Lim",
		TermID:            nextTerm.ID,
	})
	require.NoError(t, err)

	// an event requirement document under the archived term, outside the purge
	docRepo := dummydb.NewDocumentRepository(db)
	eventDoc, err := docRepo.CreateDocument(ctx, document.Document{
		OwnerKind: core.OwnerEvent,
		OwnerID:   "event1",
		TermID:    term.ID,
		TypeID:    "type1",
		FilePath:  "uploads/event-permit.pdf",
		Status:    document.StatusPending,
	})
	require.NoError(t, err)

	if _, err = svc.ArchiveTerm(ctx, president, term.ID); err != core.ErrPermissionDenied {
		t.Errorf("ArchiveTerm() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	res, err := svc.ArchiveTerm(ctx, osas, term.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", res.SchoolYear)
	assert.Equal(t, 1, res.SemestersArchived)
	assert.Equal(t, 1, res.OrganizationsReset)
	assert.Equal(t, 3, res.StudentRowsDeleted)
	assert.Equal(t, 1, res.DocumentsDeleted)

	// the organization survives but loses recognition and contact names
	reset, err := orgRepo.GetOrganizationByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, org.RecognitionUnrecognized, reset.RecognitionStatus)
	assert.Empty(t, reset.PresidentName)
	assert.Empty(t, reset.AdviserName)
	assert.True(t, reset.NeedsInfoRefresh())

	// the next term's organization is untouched by the cascade
	untouched, err := orgRepo.GetOrganizationByID(ctx, nextOrg.ID)
	require.NoError(t, err)
	assert.Equal(t, org.RecognitionRecognized, untouched.RecognitionStatus)
	assert.Equal(t, "Ben Reyes", untouched.PresidentName)
	assert.Equal(t, "Prof. Lim", untouched.AdviserName)

	// event documents of the term are retained
	eventDocs, err := docRepo.QueryDocuments(ctx, core.OwnerEvent, eventDoc.OwnerID, term.ID)
	require.NoError(t, err)
	assert.Len(t, eventDocs, 1)

	if _, err = svc.CurrentTermID(ctx); err != academic.ErrNoActiveTerm {
		t.Errorf("CurrentTermID() error = %v, want %v", err, academic.ErrNoActiveTerm)
	}

	// archiving twice is a recognized error, not a second cascade
	if _, err = svc.ArchiveTerm(ctx, osas, term.ID); err != academic.ErrAlreadyArchived {
		t.Errorf("ArchiveTerm() error = %v, want %v", err, academic.ErrAlreadyArchived)
	}
}

func TestService_ArchiveExpired(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	expired, err := svc.CreateTerm(ctx, osas, newTerm("2023-2024", time.Now().UTC().AddDate(0, 6, 0)))
	require.NoError(t, err)
	_, err = svc.ActivateTerm(ctx, osas, expired.ID)
	require.NoError(t, err)

	// nothing expired yet
	results, err := svc.ArchiveExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)

	// backdate the end through the repo-facing surface: re-create and activate
	// an already-ended term
	ended, err := svc.CreateTerm(ctx, osas, newTerm("2022-2023", time.Now().UTC().AddDate(0, 0, -1)))
	require.NoError(t, err)
	_, err = svc.ActivateTerm(ctx, osas, ended.ID)
	require.NoError(t, err)

	results, err = svc.ArchiveExpired(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ended.ID, results[0].TermID)

	if _, err = svc.CurrentTermID(ctx); err != academic.ErrNoActiveTerm {
		t.Errorf("CurrentTermID() error = %v, want %v", err, academic.ErrNoActiveTerm)
	}
}
