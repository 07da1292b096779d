package application_test

import (
	"context"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/application"
	"github.com/swaaagray/saoms/core/org"
	emailsvc "github.com/swaaagray/saoms/services/email"
	dummydb "github.com/swaaagray/saoms/storage/database/dummy"
)

var osas = core.Principal{UserID: "u-osas", Role: core.RoleOsas}

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "SAOMS",
		WorkDir:          "../..",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "SAOMS", Address: "noreply@localhost"},
		OTPExpiry:        10 * time.Minute,
		OTPCooldown:      30 * time.Second,
	}
}

func setup(t *testing.T, conf *core.Config) (*application.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	orgRepo := dummydb.NewOrgRepository(db)
	orgSvc := org.NewService(orgRepo)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := core.StdLogger{Std: log.New(io.Discard, "", 0)}

	emailsvc.ClearSentMessages()
	svc := application.NewService(conf, dummydb.NewApplicationRepository(db), orgRepo, orgSvc, mailSvc, logger)
	return svc, db
}

func newApplication(email string) application.NewApplication {
	return application.NewApplication{
		Kind:          application.KindOrganization,
		OrgCode:       "itsc",
		Name:          "IT Student Circle",
		Email:         email,
		CourseID:      "course1",
		PresidentName: "Ana Cruz",
		AdviserName:   "Prof. Reyes",
	}
}

// issuedCode fetches the code the way the applicant reads it from their inbox.
func issuedCode(t *testing.T, db *dummydb.DB, email string) string {
	t.Helper()
	v, err := dummydb.NewApplicationRepository(db).GetVerificationByEmail(context.Background(), email)
	require.NoError(t, err)
	require.Len(t, v.Code, 6)
	return v.Code
}

func TestService_RequestOTP(t *testing.T) {
	svc, db := setup(t, testConfig())
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, newApplication("ana@test.test")))

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "Your verification code", msg.Subject)
	assert.Contains(t, msg.TextContent, issuedCode(t, db, "ana@test.test"))

	// a second request inside the cooldown window is refused
	err := svc.RequestOTP(ctx, newApplication("ana@test.test"))
	var cdErr *application.CooldownError
	require.ErrorAs(t, err, &cdErr)
	assert.Greater(t, cdErr.Remaining, 0)
}

func TestService_RequestOTP_duplicateCode(t *testing.T) {
	svc, db := setup(t, testConfig())
	ctx := context.Background()

	// the code is already held by a recognized organization
	_, err := org.NewService(dummydb.NewOrgRepository(db)).CreateOrganization(ctx, "itsc", "Existing Org", "course9", "term1")
	require.NoError(t, err)

	err = svc.RequestOTP(ctx, newApplication("ana@test.test"))
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, emailsvc.SentMessages)
}

func TestService_VerifyAndSubmit(t *testing.T) {
	svc, db := setup(t, testConfig())
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, newApplication("ana@test.test")))
	code := issuedCode(t, db, "ana@test.test")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if _, err := svc.VerifyAndSubmit(ctx, "ana@test.test", wrong); err != application.ErrInvalidCode {
		t.Errorf("VerifyAndSubmit() error = %v, want %v", err, application.ErrInvalidCode)
	}
	if _, err := svc.VerifyAndSubmit(ctx, "unknown@test.test", code); err != application.ErrInvalidCode {
		t.Errorf("VerifyAndSubmit() error = %v, want %v", err, application.ErrInvalidCode)
	}

	app, err := svc.VerifyAndSubmit(ctx, "ana@test.test", code)
	require.NoError(t, err)
	assert.Equal(t, application.StatusPending, app.Status)
	assert.Equal(t, "itsc", app.OrgCode)

	// the code is consumed with the submission
	if _, err = svc.VerifyAndSubmit(ctx, "ana@test.test", code); err != application.ErrInvalidCode {
		t.Errorf("VerifyAndSubmit() error = %v, want %v", err, application.ErrInvalidCode)
	}

	apps, err := svc.ListPending(ctx, osas)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, app.ID, apps[0].ID)
}

func TestService_VerifyAndSubmit_expiredCode(t *testing.T) {
	conf := testConfig()
	conf.OTPExpiry = -time.Minute // issued already expired
	svc, db := setup(t, conf)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, newApplication("late@test.test")))
	code := issuedCode(t, db, "late@test.test")

	if _, err := svc.VerifyAndSubmit(ctx, "late@test.test", code); err != application.ErrInvalidCode {
		t.Errorf("VerifyAndSubmit() error = %v, want %v", err, application.ErrInvalidCode)
	}
}

func TestService_Approve(t *testing.T) {
	svc, db := setup(t, testConfig())
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, newApplication("ana@test.test")))
	app, err := svc.VerifyAndSubmit(ctx, "ana@test.test", issuedCode(t, db, "ana@test.test"))
	require.NoError(t, err)

	if _, err = svc.Approve(ctx, core.Principal{Role: core.RoleOrgPresident}, app.ID, "term1"); err != core.ErrPermissionDenied {
		t.Errorf("Approve() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	emailsvc.ClearSentMessages()
	app, err = svc.Approve(ctx, osas, app.ID, "term1")
	require.NoError(t, err)
	assert.Equal(t, application.StatusApproved, app.Status)
	assert.Equal(t, osas.UserID, app.ReviewedBy)

	// the recognized organization now exists under the given term
	orgs, err := dummydb.NewOrgRepository(db).QueryOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "itsc", orgs[0].Code)
	assert.Equal(t, "term1", orgs[0].TermID)
	assert.Equal(t, org.RecognitionRecognized, orgs[0].RecognitionStatus)

	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "Application approved", emailsvc.SentMessages[0].Subject)

	// a reviewed application cannot be reviewed again
	if _, err = svc.Approve(ctx, osas, app.ID, "term1"); err != application.ErrNotPending {
		t.Errorf("Approve() error = %v, want %v", err, application.ErrNotPending)
	}
}

func TestService_Reject(t *testing.T) {
	svc, db := setup(t, testConfig())
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, newApplication("ana@test.test")))
	app, err := svc.VerifyAndSubmit(ctx, "ana@test.test", issuedCode(t, db, "ana@test.test"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, osas, app.ID, "   ")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	emailsvc.ClearSentMessages()
	app, err = svc.Reject(ctx, osas, app.ID, "incomplete requirements")
	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, app.Status)
	assert.Equal(t, "incomplete requirements", app.RejectReason)

	// no organization was registered
	orgs, err := dummydb.NewOrgRepository(db).QueryOrganizations(ctx)
	require.NoError(t, err)
	assert.Empty(t, orgs)

	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "Application rejected", emailsvc.SentMessages[0].Subject)
}
