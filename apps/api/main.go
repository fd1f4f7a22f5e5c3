package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/edubridge/backoffice/apps/api/echo"
	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/assignment"
	"github.com/edubridge/backoffice/core/brochure"
	"github.com/edubridge/backoffice/core/user"
	appfs "github.com/edubridge/backoffice/fs"
	emailsvc "github.com/edubridge/backoffice/services/email"
	logsvc "github.com/edubridge/backoffice/services/logger"
	"github.com/edubridge/backoffice/storage/database"
	inmemdb "github.com/edubridge/backoffice/storage/database/inmem"
	sqlxrepos "github.com/edubridge/backoffice/storage/database/sqlx"
	filestore "github.com/edubridge/backoffice/storage/files"
)

const inmemEngine = "inmem"

type repositories struct {
	users       user.Repository
	assignments assignment.Repository
	catalogue   brochure.Repository
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up file storage
	store, err := filestore.NewLocalStore(conf.Storage.Root)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "", 0), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validator := core.NewValidator()
	asgSvc := assignment.NewService(repos.assignments, validator, logger)
	usrSvc := user.NewService(repos.users, asgSvc, mailSvc, validator, conf, logger)
	brcSvc := brochure.NewService(
		repos.catalogue,
		asgSvc,
		brochure.NewFileManager(store, logger),
		validator,
		logger,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validator:     validator,
			UserSvc:       usrSvc,
			AssignmentSvc: asgSvc,
			BrochureSvc:   brcSvc,
		},
	)

	go func() {
		server.Start()
	}()

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

// setUpRepositories opens Postgres, or an in-memory store when database.engine is "inmem".
func setUpRepositories(conf *core.Config) (repositories, error) {
	if conf.Database.Engine == inmemEngine {
		db := inmemdb.Open()
		return repositories{
			users:       inmemdb.NewUserRepository(db),
			assignments: inmemdb.NewAssignmentRepository(db),
			catalogue:   inmemdb.NewCatalogueRepository(db),
			close:       func() error { return nil },
		}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		users:       sqlxrepos.NewUserRepository(db),
		assignments: sqlxrepos.NewAssignmentRepository(db),
		catalogue:   sqlxrepos.NewCatalogueRepository(db),
		close:       db.Close,
	}, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout*6)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
