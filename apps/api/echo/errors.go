package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/application"
	"github.com/swaaagray/saoms/core/document"
	"github.com/swaaagray/saoms/core/event"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	"github.com/swaaagray/saoms/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errInfoUpdateRequired   = echo.NewHTTPError(http.StatusForbidden, "information update required; submit it via /v1/owner/info")
)

// notFoundErrs collapses every domain's not-found sentinel to 404. Unowned
// entities surface through these too, so a caller probing foreign ids gets
// the same answer as for ids that never existed.
var notFoundErrs = []error{
	user.ErrNotFound,
	academic.ErrNotFound,
	org.ErrNotFound,
	document.ErrNotFound,
	membership.ErrNotFound,
	event.ErrNotFound,
	application.ErrNotFound,
}

// conflictErrs are business-rule conflicts detected before any write.
var conflictErrs = []error{
	user.ErrEmailExists,
	user.ErrUsernameExists,
	org.ErrCodeExists,
	org.ErrCourseHasOrg,
	org.ErrCollegeHasCouncil,
	org.ErrAlreadyPresident,
	application.ErrDuplicateCode,
}

// badStateErrs are requests that are well-formed but invalid in the
// entity's current state.
var badStateErrs = []error{
	academic.ErrNoActiveTerm,
	academic.ErrNoActiveSemester,
	academic.ErrAlreadyArchived,
	application.ErrInvalidCode,
	application.ErrNotPending,
	document.ErrNotPending,
	document.ErrNotRejected,
	document.ErrDeadlinePassed,
	membership.ErrInvalidStatus,
	membership.ErrInvalidScope,
	org.ErrUnknownPosition,
}

func errIn(err error, errs []error) bool {
	for _, e := range errs {
		if err == e {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var body echo.Map

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				body = echo.Map{"success": false, "message": origErr.Message}
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body = echo.Map{"success": false, "message": origErr.Message}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			body = echo.Map{"success": false, "errors": fldErrs}
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				body = echo.Map{"success": false, "errors": fldErrs}
			} else {
				body = echo.Map{"success": false, "message": origErr.Error()}
			}
		case *application.CooldownError:
			code = http.StatusTooManyRequests
			body = echo.Map{"success": false, "message": origErr.Error(), "retry_after": origErr.Remaining}
		default:
			cause := errors.Cause(err)
			switch {
			case cause == core.ErrPermissionDenied:
				code = http.StatusForbidden
				body = echo.Map{"success": false, "message": cause.Error()}
			case errIn(cause, notFoundErrs):
				code = http.StatusNotFound
				body = echo.Map{"success": false, "message": cause.Error()}
			case errIn(cause, conflictErrs):
				code = http.StatusConflict
				body = echo.Map{"success": false, "message": cause.Error()}
			case errIn(cause, badStateErrs):
				code = http.StatusBadRequest
				body = echo.Map{"success": false, "message": cause.Error()}
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				body = echo.Map{"success": false, "message": msg}

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Username = claims.Username
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			body["message"] = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
