package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/locvowork/employee_directory/internal/config"
	"github.com/locvowork/employee_directory/internal/database"
	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/handler"
	"github.com/locvowork/employee_directory/internal/logger"
	"github.com/locvowork/employee_directory/internal/metrics"
	"github.com/locvowork/employee_directory/internal/service"
	"github.com/locvowork/employee_directory/internal/store"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Echo    *echo.Echo
	Config  *config.EnvConfig
	KV      domain.KVStore
	Store   *store.RecordStore
	Metrics *metrics.Metrics
	Live    *handler.LiveHandler
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &App{Echo: e}
}

// Initialize loads the configuration from the environment (and envFiles),
// opens the configured backend and wires the HTTP surface.
func (a *App) Initialize(ctx context.Context, envFiles ...string) error {
	cfg, err := config.LoadEnvConfig(envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	logger.InitLogging(cfg.LogFilePath, cfg.LogLevel)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	kv, err := database.New(ctx, cfg.DatabaseConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", cfg.Store.Backend, err)
	}
	logger.InfoLog(ctx, "Store backend %q ready", cfg.Store.Backend)

	return a.Setup(ctx, cfg, kv)
}

// Setup wires the app over an already opened backend.
func (a *App) Setup(ctx context.Context, cfg *config.EnvConfig, kv domain.KVStore) error {
	if cfg == nil || kv == nil {
		return errors.New("config and store backend are required")
	}
	a.Config = cfg
	a.KV = kv

	if cfg.MetricsEnabled {
		a.Metrics = metrics.New(nil)
	}

	a.Store = store.New(ctx, kv,
		store.WithKey(cfg.Store.Key),
		store.WithMetrics(a.Metrics),
	)

	empSvc := service.NewEmployeeService(a.Store, cfg.DefaultPageSize, cfg.ExportLayoutPath)
	empHandler := handler.NewEmployeeHandler(empSvc)
	healthHandler := handler.NewHealthHandler(a.Store)
	a.Live = handler.NewLiveHandler(a.Store, cfg.DebounceWindow, cfg.DefaultPageSize, a.Metrics)
	a.Store.Subscribe(a.Live.RefreshAll)

	a.RegisterMiddlewares()
	a.RegisterRoutes(empHandler, healthHandler, a.Live)
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))
	a.Echo.Use(RequestLogger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	if a.Metrics != nil {
		a.Echo.Use(a.Metrics.Middleware())
	}
}

func (a *App) RegisterRoutes(empHandler *handler.EmployeeHandler, healthHandler *handler.HealthHandler, live *handler.LiveHandler) {
	api := a.Echo.Group("/api")

	api.GET("/employees", empHandler.ListHandler)
	api.POST("/employees", empHandler.CreateHandler)
	api.POST("/employees/validate", empHandler.ValidateHandler)
	api.GET("/employees/:id", empHandler.GetHandler)
	api.PUT("/employees/:id", empHandler.UpdateHandler)
	api.DELETE("/employees/:id", empHandler.DeleteHandler)

	api.GET("/departments", empHandler.DepartmentsHandler)
	api.GET("/roles", empHandler.RolesHandler)
	api.GET("/export", empHandler.ExportHandler)
	api.GET("/live", live.LiveHandler)

	a.Echo.GET("/healthz", healthHandler.HealthHandler)
	if a.Metrics != nil {
		a.Echo.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases the backend.
func (a *App) Run(ctx context.Context) error {
	defer a.Close(context.Background())

	addr := ":" + a.Config.AppPort
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoLog(ctx, "HTTP server listening on %s", addr)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoLog(ctx, "Shutting down HTTP server")
		a.Live.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close retries a pending write and releases the backend.
func (a *App) Close(ctx context.Context) error {
	if a.Store == nil {
		return nil
	}
	if a.Store.Dirty() {
		if err := a.Store.Flush(ctx); err != nil {
			logger.ErrLog(ctx, err, "Unpersisted changes are lost")
		}
	}
	return a.Store.Close()
}
