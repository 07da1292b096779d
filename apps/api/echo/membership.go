package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/membership"
)

func (s *Server) registerMembershipAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	mg := g.Group("/students", jwt)

	// org presidents own their roster; council presidents see every roster
	// in their college
	mg.GET("", s.listStudents, roleMiddleware(
		core.RoleOrgPresident, core.RoleOrgAdviser, core.RoleCouncilPresident, core.RoleCouncilAdviser))
	mg.GET("/sections", s.listSections, roleMiddleware(
		core.RoleOrgPresident, core.RoleOrgAdviser, core.RoleCouncilPresident, core.RoleCouncilAdviser))
	mg.POST("", s.addStudents, roleMiddleware(core.RoleOrgPresident))
	mg.PUT("/:id/status", s.setStudentStatus, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))
}

type (
	addStudentsRequest struct {
		Students []membership.NewStudent `json:"students" validate:"required,min=1,dive"`
	}

	setStatusRequest struct {
		Scope  string `json:"scope" validate:"required"`
		Status string `json:"status" validate:"required"`
	}
)

func (r *addStudentsRequest) Validate(validate *validator.Validate) error {
	for i := range r.Students {
		if err := r.Students[i].Validate(validate); err != nil {
			return err
		}
	}
	return validate.Struct(r)
}

// semesterIDParam resolves the semester scope, defaulting to the active one.
func (s *Server) semesterIDParam(ctx echo.Context) (string, error) {
	if semID := ctx.QueryParam("semester_id"); semID != "" {
		return semID, nil
	}
	return s.deps.AcademicSvc.CurrentSemesterID(ctx.Request().Context())
}

func (s *Server) addStudents(ctx echo.Context) error {
	var data addStudentsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to addStudentsRequest")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	semesterID, err := s.deps.AcademicSvc.CurrentSemesterID(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resolving current semester")
	}

	students, err := s.deps.MembershipSvc.AddStudents(ctx.Request().Context(), p, semesterID, data.Students)
	if err != nil {
		return errors.Wrap(err, "adding students")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"students": students, "count": len(students)})
}

func (s *Server) setStudentStatus(ctx echo.Context) error {
	var data setStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to setStatusRequest")
	}
	if err := s.deps.Validate.Struct(&data); err != nil {
		return err
	}

	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	student, err := s.deps.MembershipSvc.SetStatus(ctx.Request().Context(), p, ctx.Param("id"), data.Scope, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting student status")
	}
	return respond(ctx, http.StatusOK, echo.Map{"student": student})
}

func (s *Server) listStudents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	semesterID, err := s.semesterIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving semester")
	}

	filter := new(membership.Filter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	filter.Clean()

	page, err := s.deps.MembershipSvc.ListStudents(ctx.Request().Context(), p, semesterID, *filter, pageParam(ctx))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	if page.Students == nil {
		page.Students = []membership.StudentData{}
	}
	return respond(ctx, http.StatusOK, echo.Map{
		"students":  page.Students,
		"counts":    page.Counts,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

func (s *Server) listSections(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	semesterID, err := s.semesterIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving semester")
	}

	sections, err := s.deps.MembershipSvc.SectionsForCourse(ctx.Request().Context(), p, semesterID, ctx.QueryParam("course"))
	if err != nil {
		return errors.Wrap(err, "listing sections")
	}
	if sections == nil {
		sections = []string{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"sections": sections})
}
