package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
)

func (s *Server) registerAcademicAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ag := g.Group("/academic", jwt)

	ag.GET("/terms", s.queryTerms)
	ag.GET("/current", s.currentPeriod)

	og := ag.Group("", roleMiddleware(core.RoleOsas))
	og.POST("/terms", s.createTerm)
	og.POST("/terms/:id/activate", s.activateTerm)
	og.POST("/terms/:id/archive", s.archiveTerm)
	og.POST("/terms/archive-expired", s.archiveExpired)
	og.POST("/semesters", s.createSemester)
	og.POST("/semesters/:id/activate", s.activateSemester)
}

func (s *Server) queryTerms(ctx echo.Context) error {
	terms, err := s.deps.AcademicSvc.QueryAllTerms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying terms")
	}
	if terms == nil {
		terms = []academic.Term{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"terms": terms})
}

// currentPeriod resolves the active term and semester, the implicit scope of
// every submission and roster operation.
func (s *Server) currentPeriod(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	termID, err := s.deps.AcademicSvc.CurrentTermID(rctx)
	if err != nil {
		return errors.Wrap(err, "resolving current term")
	}
	semesterID, err := s.deps.AcademicSvc.CurrentSemesterID(rctx)
	if err != nil && errors.Cause(err) != academic.ErrNoActiveSemester {
		return errors.Wrap(err, "resolving current semester")
	}
	return respond(ctx, http.StatusOK, echo.Map{"term_id": termID, "semester_id": semesterID})
}

func (s *Server) createTerm(ctx echo.Context) error {
	var data academic.NewTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTerm")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	term, err := s.deps.AcademicSvc.CreateTerm(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating term")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"term": term})
}

func (s *Server) activateTerm(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	term, err := s.deps.AcademicSvc.ActivateTerm(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "activating term")
	}
	return respond(ctx, http.StatusOK, echo.Map{"term": term})
}

func (s *Server) archiveTerm(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	res, err := s.deps.AcademicSvc.ArchiveTerm(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "archiving term")
	}
	return respond(ctx, http.StatusOK, echo.Map{"result": res})
}

// archiveExpired sweeps every active term whose end date has passed.
func (s *Server) archiveExpired(ctx echo.Context) error {
	results, err := s.deps.AcademicSvc.ArchiveExpired(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "archiving expired terms")
	}
	if results == nil {
		results = []academic.ArchiveResult{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"results": results})
}

func (s *Server) createSemester(ctx echo.Context) error {
	var data academic.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	sem, err := s.deps.AcademicSvc.CreateSemester(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"semester": sem})
}

func (s *Server) activateSemester(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	sem, err := s.deps.AcademicSvc.ActivateSemester(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "activating semester")
	}
	return respond(ctx, http.StatusOK, echo.Map{"semester": sem})
}
