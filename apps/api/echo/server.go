package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/application"
	"github.com/swaaagray/saoms/core/document"
	"github.com/swaaagray/saoms/core/event"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	"github.com/swaaagray/saoms/core/report"
	"github.com/swaaagray/saoms/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc        *user.Service
		AcademicSvc    *academic.Service
		OrgSvc         *org.Service
		DocumentSvc    *document.Service
		MembershipSvc  *membership.Service
		EventSvc       *event.Service
		ApplicationSvc *application.Service
		ReportSvc      *report.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwtMW := middleware.JWTWithConfig(newJWTConfig(conf))
	jwt := func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMW(requireCurrentInfo(next))
	}

	s.registerUserAPI(v1, jwt)
	s.registerAcademicAPI(v1, jwt)
	s.registerOrgAPI(v1, jwt)
	s.registerDocumentAPI(v1, jwt)
	s.registerMembershipAPI(v1, jwt)
	s.registerEventAPI(v1, jwt)
	s.registerApplicationAPI(v1, jwt)
	s.registerReportAPI(v1, jwt)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s.errs <- s.app.Start(s.deps.Conf.Server.Address())
	}()
}

// Errors reports a fatal server error; the listener is no longer serving.
func (s *Server) Errors() <-chan error { return s.errs }

// ShutdownSignal is closed over by the error handler and OS signals alike.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown requests a graceful shutdown, typically on an integrity error.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to SAOMS API!")
}
