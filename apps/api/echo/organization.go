package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/org"
)

func (s *Server) registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ag := g.Group("", jwt)

	ag.GET("/colleges", s.queryColleges)
	ag.GET("/colleges/:id/courses", s.queryCourses)
	ag.GET("/organizations", s.queryOrganizations, roleMiddleware(core.RoleOsas, core.RoleMisCoordinator))
	ag.GET("/organizations/:id", s.getOrganization, roleMiddleware(core.RoleOsas, core.RoleMisCoordinator))
	ag.GET("/councils", s.queryCouncils, roleMiddleware(core.RoleOsas, core.RoleMisCoordinator))
	ag.GET("/councils/:id", s.getCouncil, roleMiddleware(core.RoleOsas, core.RoleMisCoordinator))

	// the mandatory post-rollover info refresh
	ag.PUT("/owner/info", s.refreshOwnerInfo, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))

	og := ag.Group("/officials")
	og.GET("", s.listOfficials)
	og.POST("", s.addOfficial, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))
	og.DELETE("/:id", s.removeOfficial, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))
}

// resolveOwner derives the target owner from the caller's own scope. OSAS and
// MIS coordinators carry no owned entity and name the target via query
// params instead.
func resolveOwner(ctx echo.Context, p core.Principal) (core.OwnerKind, string, error) {
	switch {
	case p.OrganizationID != "":
		return core.OwnerOrganization, p.OrganizationID, nil
	case p.CouncilID != "":
		return core.OwnerCouncil, p.CouncilID, nil
	case p.Role == core.RoleOsas || p.Role == core.RoleMisCoordinator:
		kind := core.OwnerKind(ctx.QueryParam("owner_kind"))
		id := ctx.QueryParam("owner_id")
		if (kind == core.OwnerOrganization || kind == core.OwnerCouncil) && id != "" {
			return kind, id, nil
		}
	}
	return "", "", errHttpForbidden
}

// termIDParam resolves the term scope, defaulting to the active term.
func (s *Server) termIDParam(ctx echo.Context) (string, error) {
	if termID := ctx.QueryParam("term_id"); termID != "" {
		return termID, nil
	}
	return s.deps.AcademicSvc.CurrentTermID(ctx.Request().Context())
}

func (s *Server) queryColleges(ctx echo.Context) error {
	colleges, err := s.deps.OrgSvc.QueryColleges(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying colleges")
	}
	if colleges == nil {
		colleges = []org.College{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"colleges": colleges})
}

func (s *Server) queryCourses(ctx echo.Context) error {
	courses, err := s.deps.OrgSvc.QueryCoursesByCollege(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []org.Course{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"courses": courses})
}

func (s *Server) queryOrganizations(ctx echo.Context) error {
	orgs, err := s.deps.OrgSvc.QueryOrganizations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying organizations")
	}
	if orgs == nil {
		orgs = []org.Organization{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"organizations": orgs})
}

func (s *Server) getOrganization(ctx echo.Context) error {
	o, err := s.deps.OrgSvc.GetOrganization(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding organization")
	}
	return respond(ctx, http.StatusOK, echo.Map{"organization": o})
}

func (s *Server) queryCouncils(ctx echo.Context) error {
	councils, err := s.deps.OrgSvc.QueryCouncils(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying councils")
	}
	if councils == nil {
		councils = []org.Council{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"councils": councils})
}

func (s *Server) getCouncil(ctx echo.Context) error {
	c, err := s.deps.OrgSvc.GetCouncil(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding council")
	}
	return respond(ctx, http.StatusOK, echo.Map{"council": c})
}

func (s *Server) refreshOwnerInfo(ctx echo.Context) error {
	var data org.OwnerInfoUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OwnerInfoUpdate")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.OrgSvc.RefreshOwnerInfo(ctx.Request().Context(), p, data); err != nil {
		return errors.Wrap(err, "refreshing owner info")
	}
	return respondMessage(ctx, http.StatusOK, "Information updated.")
}

func (s *Server) listOfficials(ctx echo.Context) error {
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

	officials, err := s.deps.OrgSvc.ListOfficials(ctx.Request().Context(), kind, ownerID, termID)
	if err != nil {
		return errors.Wrap(err, "listing officials")
	}
	if officials == nil {
		officials = []org.StudentOfficial{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"officials": officials})
}

func (s *Server) addOfficial(ctx echo.Context) error {
	var data org.NewOfficial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOfficial")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	termID, err := s.deps.AcademicSvc.CurrentTermID(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resolving current term")
	}

	official, err := s.deps.OrgSvc.AddOfficial(ctx.Request().Context(), p, termID, data)
	if err != nil {
		return errors.Wrap(err, "adding official")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"official": official})
}

func (s *Server) removeOfficial(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.OrgSvc.RemoveOfficial(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing official")
	}
	return ctx.NoContent(http.StatusNoContent)
}
