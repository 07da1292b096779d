package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/event"
)

func (s *Server) registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	eg := g.Group("/events", jwt)
	eg.GET("", s.listEvents)
	eg.GET("/:id", s.getEvent)
	eg.POST("", s.createEvent, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))
	eg.DELETE("/:id", s.deleteEvent, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))

	wg := g.Group("/awards", jwt)
	wg.GET("", s.listAwards)
	wg.POST("", s.createAward, roleMiddleware(core.RoleOrgPresident, core.RoleCouncilPresident))
}

func (s *Server) createEvent(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
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

	evt, err := s.deps.EventSvc.Create(ctx.Request().Context(), p, termID, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"event": evt})
}

func (s *Server) getEvent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	evt, err := s.deps.EventSvc.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event")
	}
	return respond(ctx, http.StatusOK, echo.Map{"event": evt})
}

func (s *Server) listEvents(ctx echo.Context) error {
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

	events, err := s.deps.EventSvc.List(ctx.Request().Context(), kind, ownerID, termID)
	if err != nil {
		return errors.Wrap(err, "listing events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"events": events})
}

func (s *Server) deleteEvent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.EventSvc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) createAward(ctx echo.Context) error {
	var data event.NewAward
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAward")
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

	award, err := s.deps.EventSvc.CreateAward(ctx.Request().Context(), p, termID, data)
	if err != nil {
		return errors.Wrap(err, "creating award")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"award": award})
}

func (s *Server) listAwards(ctx echo.Context) error {
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

	awards, err := s.deps.EventSvc.ListAwards(ctx.Request().Context(), kind, ownerID, termID)
	if err != nil {
		return errors.Wrap(err, "listing awards")
	}
	if awards == nil {
		awards = []event.Award{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"awards": awards})
}
