package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // Timezone database for scratch container

	"golang.org/x/crypto/bcrypt"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/fleetcert/internal/adapter/driven/filestore"
	"github.com/ericfisherdev/fleetcert/internal/adapter/driven/spreadsheet"
	sqliteadapter "github.com/ericfisherdev/fleetcert/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/fleetcert/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/fleetcert/internal/adapter/driving/web"
	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/config"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
	"github.com/ericfisherdev/fleetcert/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"storage_backend", cfg.StorageBackend,
		"timezone", cfg.Timezone,
		"sweep_interval", cfg.SweepInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	userStore := sqliteadapter.NewUserRepo(db)
	vesselStore := sqliteadapter.NewVesselRepo(db)
	certStore := sqliteadapter.NewCertificateRepo(db)
	auditStore := sqliteadapter.NewAuditRepo(db)
	dbStore := sqliteadapter.NewDatabaseRepo(db, "")

	files, err := openFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}
	m := metrics.New()
	clock := application.NewClock(cfg.Location())

	// 6. Create application services.
	auditSvc := application.NewAuditService(auditStore, enforcer, clock, cfg.AuditLogLimit)
	authSvc, err := application.NewAuthService(userStore, auditSvc, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fleetSvc := application.NewFleetService(vesselStore, certStore, enforcer, clock)
	services := webhandler.Services{
		Auth:         authSvc,
		Fleet:        fleetSvc,
		Vessels:      application.NewVesselService(vesselStore, certStore, files, auditSvc, enforcer),
		Certificates: application.NewCertificateService(vesselStore, certStore, files, auditSvc, enforcer),
		Users:        application.NewUserService(userStore, authSvc, auditSvc, enforcer),
		Audit:        auditSvc,
		Export:       application.NewExportService(fleetSvc, spreadsheet.NewExcelWriter(), auditSvc, enforcer),
		Maintenance:  application.NewMaintenanceService(dbStore, auditSvc, enforcer, clock),
	}

	// 7. Bootstrap the protected admin account.
	generated, err := authSvc.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if generated != "" {
		slog.Warn("default admin created with a generated password; it is not shown again",
			"username", cfg.AdminUsername,
			"password", generated,
		)
	}

	secret, err := sessionKey(cfg.SecretKey)
	if err != nil {
		return err
	}
	sessions := webhandler.NewSessions(secret, cfg.SessionTTL, cfg.CookieSecure, authSvc)

	// 8. Create and start the expiry sweep.
	sweepSvc := application.NewSweepService(fleetSvc, m, cfg.SweepInterval)
	go sweepSvc.Start(ctx)

	// 9. Register API, GUI and metrics routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(sessions, fleetSvc, slog.Default()))

	webHandler := webhandler.NewHandler(services, sessions, enforcer, m, webhandler.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		LoginRateLimit: cfg.LoginRateLimit,
		CookieSecure:   cfg.CookieSecure,
	}, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)
	mux.Handle("GET /metrics", m.Handler())

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default(), m)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("fleetcert started", "listen_addr", cfg.ListenAddr)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openFileStore returns the configured upload store.
func openFileStore(ctx context.Context, cfg *config.Config) (driven.FileStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		store, err := filestore.NewS3(ctx, filestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("file store ready", "backend", "s3", "bucket", cfg.S3Bucket)
		return store, nil
	default:
		store, err := filestore.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		slog.Info("file store ready", "backend", "local", "dir", cfg.UploadDir)
		return store, nil
	}
}

// sessionKey returns the configured signing key, or a random one when none is
// configured.
func sessionKey(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	slog.Warn("no secret key configured; generated a random one, sessions end on restart",
		"env", config.EnvPrefix+"SECRET_KEY",
	)
	return key, nil
}
