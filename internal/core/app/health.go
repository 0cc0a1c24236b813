package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app == nil || s.app.resolver == nil {
		status.Status = "degraded"
		status.Components["resolver"] = "missing"
		return status
	}
	status.Components["resolver"] = fmt.Sprintf("ok (%v)", s.app.Config.Resolver.Extensions)

	switch {
	case s.app.history != nil:
		if _, err := s.app.history.ListRuns(ctx, s.app.Config.History.ProjectKey, 1); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	case s.app.Config.History.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	default:
		status.Components["history"] = "disabled"
	}

	if s.app.Config.GitHub.Token != "" {
		status.Components["github"] = "authenticated"
	} else {
		status.Components["github"] = "anonymous"
	}
	return status
}
