package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/nexushq/nexus/internal/http"
	"github.com/nexushq/nexus/internal/mailer"
	"github.com/nexushq/nexus/internal/service"
	"github.com/nexushq/nexus/internal/storage"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/internal/store/drivers/sqlite"
	"github.com/nexushq/nexus/pkg/cryptox"
	"github.com/nexushq/nexus/pkg/jwtx"
	"github.com/nexushq/nexus/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	avatarURLPrefix = "/api/users/avatars/"
)

// Application wires the user service together: database, signing keys,
// mailer, file storage, business services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   *jwtx.EdDSASigner
	keys     *jwtx.KeySet
	verifier jwtx.Verifier
	files    storage.FileStore
	mail     mailer.Mailer

	authService         *service.AuthService
	userService         *service.UserService
	twoFactorService    *service.TwoFactorService
	rolesService        *service.RolesService
	auditService        *service.AuditService
	reportsService      *service.ReportsService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized and the
// default roles (and optional admin account) seeded.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "nexus-userd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initStorage(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initMailer()
	app.initServices()

	if err := app.bootstrapService.Ensure(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("user service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the
// database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down user service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("user service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initKeys loads the signing key from the configured seed file, or mints
// an ephemeral key when none is configured. Ephemeral keys invalidate all
// tokens on restart, which is acceptable outside prod.
func (app *Application) initKeys() error {
	var (
		signer *jwtx.EdDSASigner
		err    error
	)
	if app.cfg.KeySeedFile != "" {
		seed, readErr := os.ReadFile(app.cfg.KeySeedFile)
		if readErr != nil {
			return fmt.Errorf("failed to read key seed file: %w", readErr)
		}
		signer, err = jwtx.NewSignerFromSeed("primary", seed)
	} else {
		app.logger.Warn("no key seed configured, using ephemeral signing key")
		signer, err = jwtx.NewEphemeralSigner("primary")
	}
	if err != nil {
		return fmt.Errorf("failed to initialize signing key: %w", err)
	}

	app.signer = signer
	app.keys = jwtx.NewKeySet()
	app.keys.AddSigner(signer)
	app.verifier = jwtx.NewVerifier(app.keys, app.cfg.Issuer)
	return nil
}

func (app *Application) initStorage() error {
	files, err := storage.NewDisk(app.cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}
	app.files = files
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.BrevoAPIKey == "" {
		app.logger.Warn("no Brevo API key configured, outbound email disabled")
		app.mail = mailer.Noop{}
		return
	}
	app.mail = mailer.NewBrevo(app.cfg.BrevoAPIKey, app.cfg.MailName, app.cfg.MailFrom)
}

func (app *Application) initServices() {
	app.auditService = &service.AuditService{Store: app.db}

	app.authService = &service.AuthService{
		Store:        app.db,
		Signer:       app.signer,
		Verifier:     app.verifier,
		Audit:        app.auditService,
		Mailer:       app.mail,
		Issuer:       app.cfg.Issuer,
		AccessTTL:    app.cfg.AccessTokenTTL,
		PendingTTL:   app.cfg.PendingTokenTTL,
		ResetBaseURL: app.cfg.ResetURL,
	}

	app.userService = &service.UserService{
		Store:           app.db,
		Audit:           app.auditService,
		Files:           app.files,
		AvatarURLPrefix: avatarURLPrefix,
	}

	app.twoFactorService = &service.TwoFactorService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}

	app.rolesService = &service.RolesService{Store: app.db}
	app.reportsService = &service.ReportsService{Store: app.db}

	app.bootstrapService = &service.BootstrapService{
		Store:         app.db,
		AdminEmail:    app.cfg.AdminEmail,
		AdminPassword: app.cfg.AdminPassword,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.TwoFactorService = app.twoFactorService
	router.RolesService = app.rolesService
	router.AuditService = app.auditService
	router.ReportsService = app.reportsService
	router.Files = app.files
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
