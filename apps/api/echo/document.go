package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/document"
)

func (s *Server) registerDocumentAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	dg := g.Group("/documents", jwt)

	dg.GET("", s.listDocuments)
	dg.GET("/pending", s.listPendingDocuments, roleMiddleware(core.RoleOsas))
	dg.GET("/types", s.queryDocumentTypes)
	dg.GET("/:id/transitions", s.documentTransitions)

	dg.POST("", s.submitDocument, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))
	dg.POST("/:id/resubmit", s.resubmitDocument, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))

	// advisers clear the first stage, OSAS the second; either may reject
	rg := dg.Group("", roleMiddleware(core.RoleOrgAdviser, core.RoleCouncilAdviser, core.RoleOsas))
	rg.POST("/:id/approve", s.approveDocument)
	rg.POST("/:id/reject", s.rejectDocument)
}

type (
	submitDocumentRequest struct {
		TypeID   string `json:"type_id" validate:"required"`
		FilePath string `json:"file_path" validate:"required"`
		EventID  string `json:"event_id"` // set for event requirement documents
	}

	rejectDocumentRequest struct {
		Reason           string    `json:"reason" validate:"required"`
		ResubmitDeadline time.Time `json:"resubmit_deadline"` // zero means no deadline
	}

	resubmitDocumentRequest struct {
		FilePath string `json:"file_path" validate:"required"`
	}
)

func (r *submitDocumentRequest) Validate(validate *validator.Validate) error {
	r.FilePath = core.CleanString(r.FilePath)
	return validate.Struct(r)
}

func (r *rejectDocumentRequest) Validate(validate *validator.Validate) error {
	r.Reason = core.CleanString(r.Reason)
	return validate.Struct(r)
}

func (r *resubmitDocumentRequest) Validate(validate *validator.Validate) error {
	r.FilePath = core.CleanString(r.FilePath)
	return validate.Struct(r)
}

func (s *Server) submitDocument(ctx echo.Context) error {
	var data submitDocumentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to submitDocumentRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	kind, ownerID, err := resolveOwner(ctx, p)
	if err != nil {
		return err
	}
	if data.EventID != "" {
		kind, ownerID = core.OwnerEvent, data.EventID
	}
	termID, err := s.deps.AcademicSvc.CurrentTermID(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resolving current term")
	}

	doc, err := s.deps.DocumentSvc.Submit(ctx.Request().Context(), p, kind, ownerID, termID, data.TypeID, data.FilePath)
	if err != nil {
		return errors.Wrap(err, "submitting document")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"document": doc})
}

func (s *Server) approveDocument(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	doc, err := s.deps.DocumentSvc.Approve(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving document")
	}
	return respond(ctx, http.StatusOK, echo.Map{"document": doc})
}

func (s *Server) rejectDocument(ctx echo.Context) error {
	var data rejectDocumentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to rejectDocumentRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	doc, err := s.deps.DocumentSvc.Reject(ctx.Request().Context(), p, ctx.Param("id"), data.Reason, data.ResubmitDeadline)
	if err != nil {
		return errors.Wrap(err, "rejecting document")
	}
	return respond(ctx, http.StatusOK, echo.Map{"document": doc})
}

func (s *Server) resubmitDocument(ctx echo.Context) error {
	var data resubmitDocumentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to resubmitDocumentRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	doc, err := s.deps.DocumentSvc.Resubmit(ctx.Request().Context(), p, ctx.Param("id"), data.FilePath)
	if err != nil {
		return errors.Wrap(err, "resubmitting document")
	}
	return respond(ctx, http.StatusOK, echo.Map{"document": doc})
}

func (s *Server) listDocuments(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	kind, ownerID, err := resolveOwner(ctx, p)
	if err != nil {
		return err
	}
	termID, err := s.termIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving term")
	}

	docs, err := s.deps.DocumentSvc.ListForOwner(ctx.Request().Context(), kind, ownerID, termID)
	if err != nil {
		return errors.Wrap(err, "listing documents")
	}
	if docs == nil {
		docs = []document.ListedDocument{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"documents": docs})
}

func (s *Server) listPendingDocuments(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	termID, err := s.termIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving term")
	}

	docs, err := s.deps.DocumentSvc.ListPendingForOsas(ctx.Request().Context(), p, termID)
	if err != nil {
		return errors.Wrap(err, "listing pending documents")
	}
	if docs == nil {
		docs = []document.ListedDocument{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"documents": docs})
}

func (s *Server) documentTransitions(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	transitions, err := s.deps.DocumentSvc.Transitions(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing document transitions")
	}
	if transitions == nil {
		transitions = []document.Transition{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"transitions": transitions})
}

func (s *Server) queryDocumentTypes(ctx echo.Context) error {
	appliesTo := core.OwnerKind(ctx.QueryParam("applies_to"))
	if appliesTo != "" && !appliesTo.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown applies_to value")
	}
	types, err := s.deps.DocumentSvc.QueryTypes(ctx.Request().Context(), appliesTo)
	if err != nil {
		return errors.Wrap(err, "querying document types")
	}
	if types == nil {
		types = []document.DocumentType{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"types": types})
}
