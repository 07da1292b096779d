package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/swaaagray/saoms/apps/api/echo"
	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/application"
	"github.com/swaaagray/saoms/core/document"
	"github.com/swaaagray/saoms/core/event"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	"github.com/swaaagray/saoms/core/report"
	"github.com/swaaagray/saoms/core/user"
	emailsvc "github.com/swaaagray/saoms/services/email"
	logsvc "github.com/swaaagray/saoms/services/logger"
	"github.com/swaaagray/saoms/storage/database"
	sqlxrepos "github.com/swaaagray/saoms/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	workDir, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	conf := core.NewConfig(workDir)

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	orgSvc := org.NewService(sqlxrepos.NewOrgRepository(db))
	deps := echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        user.NewService(sqlxrepos.NewUserRepository(db)),
		AcademicSvc:    academic.NewService(sqlxrepos.NewAcademicRepository(db), logger),
		OrgSvc:         orgSvc,
		DocumentSvc:    document.NewService(sqlxrepos.NewDocumentRepository(db)),
		MembershipSvc:  membership.NewService(sqlxrepos.NewMembershipRepository(db)),
		EventSvc:       event.NewService(sqlxrepos.NewEventRepository(db)),
		ApplicationSvc: application.NewService(conf, sqlxrepos.NewApplicationRepository(db), sqlxrepos.NewOrgRepository(db), orgSvc, mailSvc, logger),
		ReportSvc:      report.NewService(sqlxrepos.NewReportRepository(db)),
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	deps.Validate = validator.New()
	deps.Translator = newTranslator()
	core.InitValidators(deps.Validate, deps.Translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(deps)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
