package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/application"
)

func (s *Server) registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ag := g.Group("/applications")

	// un-authed endpoints; verification codes gate the actual submission
	ag.POST("/request-code", s.requestApplicationCode)
	ag.POST("/verify", s.verifyApplication)

	og := ag.Group("", jwt, roleMiddleware(core.RoleOsas))
	og.GET("", s.listPendingApplications)
	og.POST("/:id/approve", s.approveApplication)
	og.POST("/:id/reject", s.rejectApplication)
}

type (
	verifyApplicationRequest struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}

	rejectApplicationRequest struct {
		Reason string `json:"reason" validate:"required"`
	}
)

func (r *verifyApplicationRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Code = core.CleanString(r.Code)
	return validate.Struct(r)
}

func (r *rejectApplicationRequest) Validate(validate *validator.Validate) error {
	r.Reason = core.CleanString(r.Reason)
	return validate.Struct(r)
}

func (s *Server) requestApplicationCode(ctx echo.Context) error {
	var data application.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	if err := s.deps.ApplicationSvc.RequestOTP(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "requesting verification code")
	}
	return respondMessage(ctx, http.StatusOK, "A verification code has been sent to your email address.")
}

func (s *Server) verifyApplication(ctx echo.Context) error {
	var data verifyApplicationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to verifyApplicationRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	app, err := s.deps.ApplicationSvc.VerifyAndSubmit(ctx.Request().Context(), data.Email, data.Code)
	if err != nil {
		return errors.Wrap(err, "verifying application")
	}
	return respond(ctx, http.StatusCreated, echo.Map{
		"message":     "Application submitted for review.",
		"application": app,
	})
}

func (s *Server) listPendingApplications(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	apps, err := s.deps.ApplicationSvc.ListPending(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	if apps == nil {
		apps = []application.OrganizationApplication{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"applications": apps})
}

func (s *Server) approveApplication(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	termID, err := s.deps.AcademicSvc.CurrentTermID(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resolving current term")
	}

	app, err := s.deps.ApplicationSvc.Approve(ctx.Request().Context(), p, ctx.Param("id"), termID)
	if err != nil {
		return errors.Wrap(err, "approving application")
	}
	return respond(ctx, http.StatusOK, echo.Map{"application": app})
}

func (s *Server) rejectApplication(ctx echo.Context) error {
	var data rejectApplicationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to rejectApplicationRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	app, err := s.deps.ApplicationSvc.Reject(ctx.Request().Context(), p, ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "rejecting application")
	}
	return respond(ctx, http.StatusOK, echo.Map{"application": app})
}
