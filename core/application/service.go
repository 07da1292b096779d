package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/org"
)

var (
	// errors
	ErrNotFound       = errors.New("application not found")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrDuplicateCode  = errors.New("an organization or council with this code already exists or is pending review")
	ErrNotPending     = errors.New("application has already been reviewed")
	errReasonRequired = errors.New("a rejection reason is required")

	nowFunc  = time.Now // mockable
	randRead = rand.Read
)

type (
	Repository interface {
		// UpsertVerification stores the verification atomically: when a row for
		// the email exists with SentAt inside the cooldown window the upsert is
		// refused with *CooldownError and no second row is created.
		UpsertVerification(ctx context.Context, v EmailVerification, cooldown time.Duration) (EmailVerification, error)
		GetVerificationByEmail(ctx context.Context, email string) (EmailVerification, error)
		DeleteVerification(ctx context.Context, email string) error
		// HasPendingCode reports whether a pending application already claims the code.
		HasPendingCode(ctx context.Context, code string) (bool, error)
		// SubmitApplication deletes the verification row and creates the
		// application in a single transaction.
		SubmitApplication(ctx context.Context, email string, app OrganizationApplication) (OrganizationApplication, error)
		GetApplicationByID(ctx context.Context, id string) (OrganizationApplication, error)
		QueryPendingApplications(ctx context.Context) ([]OrganizationApplication, error)
		MarkReviewed(ctx context.Context, app OrganizationApplication) (OrganizationApplication, error)
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		orgRepo org.Repository
		orgSvc  *org.Service
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(conf *core.Config, repo Repository, orgRepo org.Repository, orgSvc *org.Service, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		conf:    conf,
		repo:    repo,
		orgRepo: orgRepo,
		orgSvc:  orgSvc,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// checkCodeAvailable surfaces the duplicate-code conflict before any write:
// taken when any organization/council holds the code, or a pending
// application claims it.
func (svc *Service) checkCodeAvailable(ctx context.Context, code string) error {
	if err := svc.orgRepo.CheckCodeUniqueness(ctx, code); err != nil {
		if err == org.ErrCodeExists {
			return core.NewValidationError(ErrDuplicateCode, core.FieldError{Field: "org_code", Error: ErrDuplicateCode.Error()})
		}
		return err
	}
	pending, err := svc.repo.HasPendingCode(ctx, code)
	if err != nil {
		return err
	}
	if pending {
		return core.NewValidationError(ErrDuplicateCode, core.FieldError{Field: "org_code", Error: ErrDuplicateCode.Error()})
	}
	return nil
}

// RequestOTP validates the application form, stores it against a fresh
// 6-digit code and mails the code. A mail failure rolls the verification row
// back so no orphaned unusable code remains.
func (svc *Service) RequestOTP(ctx context.Context, na NewApplication) error {
	if err := svc.checkCodeAvailable(ctx, na.OrgCode); err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return pkgerrors.Wrap(err, "generating verification code")
	}
	form, err := na.Marshal()
	if err != nil {
		return pkgerrors.Wrap(err, "serializing application form")
	}

	now := nowFunc().UTC()
	v := EmailVerification{
		Email:     na.Email,
		Code:      code,
		FormData:  form,
		ExpiresAt: now.Add(svc.conf.OTPExpiry),
		SentAt:    now,
	}
	if v, err = svc.repo.UpsertVerification(ctx, v, svc.conf.OTPCooldown); err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: na.Name, Address: na.Email}},
		Subject:      "Your verification code",
		TemplateName: "otp-code",
		TemplateData: struct {
			Name    string
			Code    string
			Minutes int
		}{na.PresidentName, code, int(svc.conf.OTPExpiry.Minutes())},
	}
	if err := msg.Render(svc.conf); err != nil {
		_ = svc.repo.DeleteVerification(ctx, na.Email)
		return pkgerrors.Wrap(err, "rendering verification email")
	}
	if err := svc.mailSvc.SendMessage(msg); err != nil {
		// no orphaned unusable codes
		if delErr := svc.repo.DeleteVerification(ctx, na.Email); delErr != nil {
			svc.logger.Error("rolling back verification row", delErr)
		}
		return pkgerrors.Wrap(err, "sending verification email")
	}
	return nil
}

// VerifyAndSubmit consumes a code: valid only within its expiry window and
// only once. On success the code row is deleted and the application is queued
// for OSAS review in the same transaction.
func (svc *Service) VerifyAndSubmit(ctx context.Context, email, code string) (OrganizationApplication, error) {
	email = core.CleanString(email, true /* lower */)
	code = core.CleanString(code)

	v, err := svc.repo.GetVerificationByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return OrganizationApplication{}, ErrInvalidCode
		}
		return OrganizationApplication{}, err
	}
	if v.Expired(nowFunc().UTC()) {
		return OrganizationApplication{}, ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(code)) == 0 {
		return OrganizationApplication{}, ErrInvalidCode
	}

	form, err := UnmarshalForm(v.FormData)
	if err != nil {
		return OrganizationApplication{}, pkgerrors.Wrap(err, "deserializing application form")
	}
	// code could have been taken while the verification sat in the inbox
	if err := svc.checkCodeAvailable(ctx, form.OrgCode); err != nil {
		return OrganizationApplication{}, err
	}

	app := OrganizationApplication{
		Kind:        form.Kind,
		OrgCode:     form.OrgCode,
		Name:        form.Name,
		Email:       email,
		FormData:    v.FormData,
		Status:      StatusPending,
		SubmittedAt: nowFunc().UTC(),
	}
	return svc.repo.SubmitApplication(ctx, email, app)
}

func (svc *Service) ListPending(ctx context.Context, p core.Principal) ([]OrganizationApplication, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryPendingApplications(ctx)
}

// Approve accepts an application and registers the recognized owner entity
// under the given active term.
func (svc *Service) Approve(ctx context.Context, p core.Principal, appID, termID string) (OrganizationApplication, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return OrganizationApplication{}, core.ErrPermissionDenied
	}
	app, err := svc.repo.GetApplicationByID(ctx, appID)
	if err != nil {
		return OrganizationApplication{}, err
	}
	if app.Status != StatusPending {
		return OrganizationApplication{}, ErrNotPending
	}
	form, err := UnmarshalForm(app.FormData)
	if err != nil {
		return OrganizationApplication{}, pkgerrors.Wrap(err, "deserializing application form")
	}

	switch app.Kind {
	case KindCouncil:
		if _, err := svc.orgSvc.CreateCouncil(ctx, app.OrgCode, app.Name, form.CollegeID, termID); err != nil {
			return OrganizationApplication{}, err
		}
	default:
		if _, err := svc.orgSvc.CreateOrganization(ctx, app.OrgCode, app.Name, form.CourseID, termID); err != nil {
			return OrganizationApplication{}, err
		}
	}

	app.Status = StatusApproved
	app.ReviewedAt = nowFunc().UTC()
	app.ReviewedBy = p.UserID
	app, err = svc.repo.MarkReviewed(ctx, app)
	if err != nil {
		return OrganizationApplication{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: form.PresidentName, Address: app.Email}},
		Subject:      "Application approved",
		TemplateName: "application-approved",
		TemplateData: struct {
			Name    string
			OrgName string
		}{form.PresidentName, app.Name},
	})
	return app, nil
}

func (svc *Service) Reject(ctx context.Context, p core.Principal, appID, reason string) (OrganizationApplication, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return OrganizationApplication{}, core.ErrPermissionDenied
	}
	reason = core.CleanString(reason)
	if reason == "" {
		return OrganizationApplication{}, core.NewValidationError(errReasonRequired,
			core.FieldError{Field: "reason", Error: errReasonRequired.Error()})
	}
	app, err := svc.repo.GetApplicationByID(ctx, appID)
	if err != nil {
		return OrganizationApplication{}, err
	}
	if app.Status != StatusPending {
		return OrganizationApplication{}, ErrNotPending
	}
	app.Status = StatusRejected
	app.RejectReason = reason
	app.ReviewedAt = nowFunc().UTC()
	app.ReviewedBy = p.UserID
	app, err = svc.repo.MarkReviewed(ctx, app)
	if err != nil {
		return OrganizationApplication{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: app.Email}},
		Subject:      "Application rejected",
		TemplateName: "application-rejected",
		TemplateData: struct {
			OrgName string
			Reason  string
		}{app.Name, reason},
	})
	return app, nil
}

// generateCode returns a 6-digit numeric code.
func generateCode() (string, error) {
	var b [4]byte
	if _, err := randRead(b[:]); err != nil {
		return "", err
	}
	n := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}
