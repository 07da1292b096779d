package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	reportsvc "github.com/swaaagray/saoms/services/report"
)

// Report export formats.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatPDF  = "pdf"
)

var reportContentTypes = map[string]string{
	formatCSV:  "text/csv",
	formatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	formatPDF:  "application/pdf",
}

func (s *Server) registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	rg := g.Group("/reports", jwt, roleMiddleware(core.RoleOsas, core.RoleMisCoordinator))

	rg.GET("/membership", s.membershipReport)
	rg.GET("/documents", s.documentStatusReport)
	rg.GET("/events", s.eventSummaryReport)
}

func formatParam(ctx echo.Context) (string, error) {
	format := ctx.QueryParam("format")
	if format == "" {
		format = formatJSON
	}
	switch format {
	case formatJSON, formatCSV, formatXLSX, formatPDF:
		return format, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "unknown report format")
}

// sendFile streams a rendered report with a download filename.
func sendFile(ctx echo.Context, name, format string, buf *bytes.Buffer) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	return ctx.Blob(http.StatusOK, reportContentTypes[format], buf.Bytes())
}

func (s *Server) membershipReport(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	format, err := formatParam(ctx)
	if err != nil {
		return err
	}
	semesterID, err := s.semesterIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving semester")
	}

	rows, err := s.deps.ReportSvc.MembershipSummary(ctx.Request().Context(), p, semesterID)
	if err != nil {
		return errors.Wrap(err, "building membership summary")
	}

	if format == formatJSON {
		return respond(ctx, http.StatusOK, echo.Map{"rows": rows})
	}
	var buf bytes.Buffer
	switch format {
	case formatCSV:
		err = reportsvc.MembershipCSV(&buf, rows)
	case formatXLSX:
		err = reportsvc.MembershipXLSX(&buf, rows)
	case formatPDF:
		err = reportsvc.MembershipPDF(&buf, rows)
	}
	if err != nil {
		return errors.Wrap(err, "rendering membership report")
	}
	return sendFile(ctx, "membership-summary", format, &buf)
}

func (s *Server) documentStatusReport(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	format, err := formatParam(ctx)
	if err != nil {
		return err
	}
	termID, err := s.termIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving term")
	}

	rows, err := s.deps.ReportSvc.DocumentStatuses(ctx.Request().Context(), p, termID)
	if err != nil {
		return errors.Wrap(err, "building document status report")
	}

	if format == formatJSON {
		return respond(ctx, http.StatusOK, echo.Map{"rows": rows})
	}
	var buf bytes.Buffer
	switch format {
	case formatCSV:
		err = reportsvc.DocumentStatusCSV(&buf, rows)
	case formatXLSX:
		err = reportsvc.DocumentStatusXLSX(&buf, rows)
	case formatPDF:
		err = reportsvc.DocumentStatusPDF(&buf, rows)
	}
	if err != nil {
		return errors.Wrap(err, "rendering document status report")
	}
	return sendFile(ctx, "document-status", format, &buf)
}

func (s *Server) eventSummaryReport(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	format, err := formatParam(ctx)
	if err != nil {
		return err
	}
	termID, err := s.termIDParam(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving term")
	}

	rows, err := s.deps.ReportSvc.EventSummaries(ctx.Request().Context(), p, termID)
	if err != nil {
		return errors.Wrap(err, "building event summary report")
	}

	if format == formatJSON {
		return respond(ctx, http.StatusOK, echo.Map{"rows": rows})
	}
	var buf bytes.Buffer
	switch format {
	case formatCSV:
		err = reportsvc.EventSummaryCSV(&buf, rows)
	case formatXLSX:
		err = reportsvc.EventSummaryXLSX(&buf, rows)
	case formatPDF:
		err = reportsvc.EventSummaryPDF(&buf, rows)
	}
	if err != nil {
		return errors.Wrap(err, "rendering event summary report")
	}
	return sendFile(ctx, "event-summary", format, &buf)
}
