package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/auth"
	authPostgres "github.com/frahmantamala/crm-access/internal/auth/postgres"
	"github.com/frahmantamala/crm-access/internal/core/events"
	directoryPostgres "github.com/frahmantamala/crm-access/internal/directory/postgres"
	"github.com/frahmantamala/crm-access/internal/rbac"
	"github.com/frahmantamala/crm-access/internal/task"
	taskPostgres "github.com/frahmantamala/crm-access/internal/task/postgres"
	"github.com/frahmantamala/crm-access/internal/transport/middleware"
	"github.com/frahmantamala/crm-access/internal/transport/rest"
	"github.com/frahmantamala/crm-access/internal/user"
	userPostgres "github.com/frahmantamala/crm-access/internal/user/postgres"
	"github.com/frahmantamala/crm-access/pkg/logger"
)

const openAPIPath = "./api/openapi.yml"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
		// Handlers still running after the last response may touch the database.
		if err := deps.Bus.Drain(ctx); err != nil {
			lg.Error("Event bus drain error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			lg.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	lg.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)

	if err := validateOpenAPI(openAPIPath); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := openGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeTaskAssigned, events.AssignmentAuditLog(lg))

	router := chi.NewRouter()
	handlers, opts := buildHandlers(config, db, gdb, bus, lg)
	rest.RegisterAllRoutes(router, handlers, opts, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		Bus:    bus,
		Router: router,
		Logger: lg,
	}, nil
}

func buildHandlers(cfg *internal.Config, db *sqlx.DB, gdb *gorm.DB, bus *events.EventBus, lg *slog.Logger) (rest.Handlers, rest.Options) {
	metrics := rbac.NewMetrics(prometheus.DefaultRegisterer)
	evaluator := rbac.NewEvaluator()
	directory := rbac.WithLookupTimeout(directoryPostgres.NewUserDirectory(gdb), cfg.Directory.LookupTimeout)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, cfg.Security.BCryptCost, lg)

	userService := user.NewService(userPostgres.NewRepository(db), directory, rbac.NewHierarchyResolver(directory), lg)

	taskService := task.NewService(
		taskPostgres.NewTaskRepository(gdb),
		rbac.NewAssignmentService(directory, evaluator, metrics, lg),
		rbac.NewVisibilityBuilder(directory, metrics, lg),
		bus,
		lg,
	)

	handlers := rest.Handlers{
		Health: rest.NewHealthHandler(map[string]rest.Pinger{"postgres": db}),
		Auth:   auth.NewHandler(authService),
		Guard:  auth.NewRBACAuthorization(evaluator, lg),
		Users:  user.NewHandler(userService),
		Tasks:  task.NewHandler(taskService),
	}
	opts := rest.Options{
		AllowedOrigins: cfg.Server.AllowedOriginList(),
		OpenAPIPath:    openAPIPath,
	}

	if cfg.Observability.Metrics.Enabled {
		handlers.Metrics = promhttp.Handler()
		opts.MetricsPath = cfg.Observability.Metrics.Path
		opts.HTTPMetrics = middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)
	}

	return handlers, opts
}

// validateOpenAPI refuses to start with a contract that does not parse.
func validateOpenAPI(path string) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("invalid openapi document: %w", err)
	}
	return nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm shares the sqlx pool with gorm so both see the same connections.
func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
