package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/repository"
	"fintrack/internal/repository/migrations"
	"fintrack/internal/repository/postgres"
	"fintrack/internal/repository/sqlite"
	"fintrack/internal/service"
	"fintrack/internal/storage"
	"fintrack/internal/telemetry"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Personal finance tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			if err := prepareDatabase(cfg); err != nil {
				return err
			}
			logger.Infof("%s schema is up to date", cfg.Database.Driver)
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Fatal(err)
	}
}

func loadConfig(logger *logrus.Logger) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return cfg, nil
}

// prepareDatabase makes sure the sqlite directory exists before migrating.
func prepareDatabase(cfg config.Config) error {
	if cfg.Database.Driver == migrations.DriverSQLite {
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db.Close()
	}
	if err := migrations.Up(cfg.Database.Driver, cfg.MigrationDSN()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func openRepositories(cfg config.Config) (*sql.DB, repository.UserRepository, repository.TransactionRepository, error) {
	switch cfg.Database.Driver {
	case migrations.DriverPostgres:
		db, err := postgres.Open(cfg.Database.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		return db, postgres.NewUserRepository(db), postgres.NewTransactionRepository(db), nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		return db, sqlite.NewUserRepository(db), sqlite.NewTransactionRepository(db), nil
	}
}

func serve(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if err := prepareDatabase(cfg); err != nil {
		return err
	}

	db, userRepo, txRepo, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	provider := auth.NewProvider(userRepo, cfg.Auth.JWTSecret, cfg.TokenTTL())
	userService := service.NewUserService(userRepo, provider)
	transactionService := service.NewTransactionService(txRepo)

	var exportService service.ExportService
	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}
	if storageSvc != nil {
		exportService = service.NewExportService(txRepo, storageSvc, service.ExportOptions{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			URLExpiry: time.Duration(cfg.Storage.URLExpiryMinutes) * time.Minute,
		})
	} else {
		logger.Warn("storage bucket not set, statement exports are disabled")
	}

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Telemetry.Environment,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("telemetry shutdown: %v", err)
		}
	}()

	handlerOpts := apphttp.Options{
		Exports:     exportService,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
		Meter:       tel.Meter("fintrack/http"),
		Tracer:      tel.Tracer("fintrack/http"),
	}
	if cfg.Telemetry.MetricsEnabled {
		handlerOpts.Metrics = tel.Handler()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, transactionService, provider, handlerOpts)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}

// buildStorage returns nil when no bucket is configured.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
