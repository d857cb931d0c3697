package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"promopulse/internal/config"
	apierrors "promopulse/internal/errors"
	"promopulse/internal/infrastructure"
	"promopulse/internal/kpi"
	customMiddleware "promopulse/internal/middleware"
	"promopulse/internal/services"
	"promopulse/internal/simulator"
	handlers "promopulse/internal/transport/http"
	"promopulse/internal/validation"
	ws "promopulse/internal/websocket"
)

// BuildTime is set at link time via -ldflags.
var BuildTime = "unknown"

// Application is the main container wiring configuration, services,
// transport handlers and the HTTP server together.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Hub           *ws.Hub
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Services      *ServiceContainer

	errorHandler *apierrors.ErrorHandler
}

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Data       *services.DataService
	KPI        *services.KPIService
	Simulation *services.SimulationService
	Dashboard  *services.DashboardService
	Health     *services.HealthService
	Activity   *services.ActivityLog
}

// NewApplication loads configuration and assembles the full application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_time", BuildTime))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the service layer in dependency order.
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.Hub = hub

	dataService := services.NewDataService(a.Config, hub, a.Logger)

	engine := kpi.NewEngine(a.Logger, kpi.DefaultEngineConfig())
	kpiService := services.NewKPIService(dataService, engine, a.Logger)

	sim := simulator.New(a.Config.Simulation, a.Logger)
	simulationService := services.NewSimulationService(dataService, kpiService, sim, hub, a.Logger)

	dashboardService := services.NewDashboardService(dataService, kpiService, a.Logger)
	healthService := services.NewHealthService(config.AppVersion, BuildTime, dataService, hub, a.Logger)

	activity := services.NewActivityLog(services.DefaultActivityCapacity, a.Logger)
	dataService.SetActivityLog(activity)
	simulationService.SetActivityLog(activity)

	a.Services = &ServiceContainer{
		Data:       dataService,
		KPI:        kpiService,
		Simulation: simulationService,
		Dashboard:  dashboardService,
		Health:     healthService,
		Activity:   activity,
	}

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware applied before the WebSocket route. These do not
	// wrap the ResponseWriter and therefore do not break the upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(a.Hub, a.Config.Security, a.Config.WebSocket, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		if a.OTelProviders.Meter != nil {
			otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
			if err != nil {
				a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
			} else {
				r.Use(otelMiddleware.Handler)
			}

			businessMetrics, _ := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
			r.Use(customMiddleware.BusinessMetricsMiddleware(businessMetrics))
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.corsConfig()))
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/healthz", healthHandler.Routes())
	})

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP)
	r.Mount("/metrics", metricsHandler.Routes())

	r.NotFound(a.errorHandler.NotFound())
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed())

	a.Router = r
}

// setupAPIRoutes configures the /api route tree.
func (a *Application) setupAPIRoutes(r chi.Router) {
	validate := customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
		r.Use(customMiddleware.ContentTypeValidator("application/json", "multipart/form-data"))
		r.Use(validate.ValidateRequest)

		datasetHandler := handlers.NewDatasetHandler(a.Services.Data, validate, a.Logger, a.errorHandler)
		r.Mount("/dataset", datasetHandler.Routes())

		kpiHandler := handlers.NewKPIHandler(a.Services.KPI, a.Logger, a.errorHandler)
		r.Mount("/kpi", kpiHandler.Routes())

		dashboardHandler := handlers.NewDashboardHandler(a.Services.Dashboard, a.Logger, a.errorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes())

		simulationHandler := handlers.NewSimulationHandler(a.Services.Simulation, validate, a.Logger, a.errorHandler)
		r.Mount("/simulation", simulationHandler.Routes())

		activityHandler := handlers.NewActivityHandler(a.Services.Activity, a.Logger)
		r.Mount("/activity", activityHandler.Routes())

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get("/version", healthHandler.Version)
	})
}

// corsConfig builds the CORS policy from security configuration.
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = a.Config.Security.AllowedOrigins
	} else {
		cfg.AllowedOrigins = []string{
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		}
	}

	return cfg
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server and background services.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the working directories are usable
// before the server starts accepting uploads.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	v := validation.NewFileValidator(a.Logger)

	directories := map[string]string{
		"data":    a.Config.Paths.DataDir,
		"uploads": a.Config.Paths.UploadsDir,
		"exports": a.Config.Paths.ExportsDir,
		"logs":    a.Config.Paths.LogsDir,
	}

	var warnings []string
	for name, dir := range directories {
		if err := v.ValidateOutputDirectory(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}

// WaitForReady polls the liveness endpoint until the server answers or
// the timeout expires.
func (a *Application) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d/healthz/live", a.Config.Server.Port)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %s", timeout)
}
