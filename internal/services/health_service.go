package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"promopulse/internal/config"
)

// ClientCounter reports how many dashboard clients are connected.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	data      *DataService
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health check response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime string, data *DataService, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = config.AppVersion
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		data:      data,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "service.health")),
	}
}

// Check returns the current health status
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
		Services: map[string]interface{}{},
	}
	if s.buildTime != "" {
		status.Runtime["build_time"] = s.buildTime
	}

	datasetLoaded := false
	if s.data != nil {
		if _, err := s.data.Current(ctx); err == nil {
			datasetLoaded = true
		}
	}
	status.Services["dataset"] = map[string]interface{}{
		"loaded": datasetLoaded,
	}

	if s.hub != nil {
		status.Services["websocket"] = map[string]interface{}{
			"clients": s.hub.ClientCount(),
		}
	}

	return status
}
