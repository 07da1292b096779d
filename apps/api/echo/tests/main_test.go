package tests

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/swaaagray/saoms/apps/api/echo"
	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/application"
	"github.com/swaaagray/saoms/core/document"
	"github.com/swaaagray/saoms/core/event"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	"github.com/swaaagray/saoms/core/report"
	"github.com/swaaagray/saoms/core/user"
	emailsvc "github.com/swaaagray/saoms/services/email"
	dummydb "github.com/swaaagray/saoms/storage/database/dummy"
)

var (
	conf *core.Config
	app  *echoapi.Server
	db   *dummydb.DB

	usrSvc *user.Service

	// fixture data seeded once in TestMain
	activeTerm     academic.Term
	activeSemester academic.Semester
	fixtureOrg     org.Organization
	fixtureDocType document.DocumentType
	osasUser       user.User
	presidentUser  user.User
	adviserUser    user.User
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "SAOMS",
		SecretKey:        []byte("test-secret"),
		WorkDir:          "../../../..",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "SAOMS", Address: "noreply@localhost"},
		OTPExpiry:        10 * time.Minute,
		OTPCooldown:      30 * time.Second,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	var err error
	if db, err = dummydb.Open(); err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}

	logger := core.StdLogger{Std: log.New(io.Discard, "", 0)}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	orgRepo := dummydb.NewOrgRepository(db)
	orgSvc := org.NewService(orgRepo)
	usrSvc = user.NewService(dummydb.NewUserRepository(db))

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		AcademicSvc:    academic.NewService(dummydb.NewAcademicRepository(db), logger),
		OrgSvc:         orgSvc,
		DocumentSvc:    document.NewService(dummydb.NewDocumentRepository(db)),
		MembershipSvc:  membership.NewService(dummydb.NewMembershipRepository(db)),
		EventSvc:       event.NewService(dummydb.NewEventRepository(db)),
		ApplicationSvc: application.NewService(conf, dummydb.NewApplicationRepository(db), orgRepo, orgSvc, mailSvc, logger),
		ReportSvc:      report.NewService(dummydb.NewReportRepository(db)),
		Validate:       validate,
		Translator:     translator,
	})

	if err = seedFixtures(); err != nil {
		fmt.Printf("seedFixtures(): %v", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func seedFixtures() error {
	ctx := context.Background()
	osas := core.Principal{UserID: "seed", Role: core.RoleOsas}

	academicSvc := academic.NewService(dummydb.NewAcademicRepository(db), core.StdLogger{Std: log.New(io.Discard, "", 0)})
	end := time.Now().UTC().AddDate(0, 6, 0)
	term, err := academicSvc.CreateTerm(ctx, osas, academic.NewTerm{
		SchoolYear:      "2025-2026",
		StartDate:       end.AddDate(-1, 0, 0),
		EndDate:         end,
		SubmissionOpen:  end.AddDate(-1, 0, 0),
		SubmissionClose: end,
	})
	if err != nil {
		return err
	}
	if activeTerm, err = academicSvc.ActivateTerm(ctx, osas, term.ID); err != nil {
		return err
	}
	sem, err := academicSvc.CreateSemester(ctx, osas, academic.NewSemester{TermID: term.ID, Name: "1st Semester"})
	if err != nil {
		return err
	}
	if activeSemester, err = academicSvc.ActivateSemester(ctx, osas, sem.ID); err != nil {
		return err
	}

	orgRepo := dummydb.NewOrgRepository(db)
	college, err := orgRepo.CreateCollege(ctx, org.College{Name: "College of Computing"})
	if err != nil {
		return err
	}
	course, err := orgRepo.CreateCourse(ctx, org.Course{Name: "BSIT", CollegeID: college.ID})
	if err != nil {
		return err
	}
	if fixtureOrg, err = orgRepo.CreateOrganization(ctx, org.Organization{
		Code:              "itsc",
		Name:              "IT Student Circle",
		CourseID:          course.ID,
		RecognitionStatus: org.RecognitionRecognized,
		PresidentName:     "Ana Cruz",
		AdviserName:       "Prof. Reyes",
		TermID:            term.ID,
	}); err != nil {
		return err
	}

	if osasUser, err = createUser("osas", "osas@test.test", core.RoleOsas, ""); err != nil {
		return err
	}
	if presidentUser, err = createUser("president", "pres@test.test", core.RoleOrgPresident, fixtureOrg.ID); err != nil {
		return err
	}
	if adviserUser, err = createUser("adviser", "adviser@test.test", core.RoleOrgAdviser, fixtureOrg.ID); err != nil {
		return err
	}

	fixtureDocType = dummydb.NewDocumentRepository(db).AddType(document.DocumentType{
		Name:      "Constitution and By-Laws",
		Required:  true,
		AppliesTo: core.OwnerOrganization,
	})
	return nil
}

func createUser(uname, email, role, orgID string) (user.User, error) {
	return usrSvc.Create(context.Background(), user.NewUser{
		Name:            uname,
		Username:        uname,
		Email:           email,
		Role:            role,
		OrganizationID:  orgID,
		Password:        "Str0ngPassw0rd!",
		PasswordConfirm: "Str0ngPassw0rd!",
	})
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
