package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerRootRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "API banner",
		Tags:        []string{"Health"},
	}, s.handleRoot)
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// MessageResponse is a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Human-readable message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(text string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: text}}
}

func (s *Server) handleRoot(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	return message("TSG Comment API"), nil
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Uptime     string                     `json:"uptime" doc:"Time since the server started"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"realtime": s.checkRealtime(),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
			Uptime:     s.clock.Since(s.startedAt).Round(time.Second).String(),
		},
	}, nil
}

// checkDatabase verifies the store is open and readable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "database not configured",
		}
	}

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkRealtime reports the room manager's load.
func (s *Server) checkRealtime() ComponentHealth {
	if s.rooms == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "realtime transport not configured",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Message: formatRealtime(s.rooms.ClientCount(), s.rooms.RoomCount()),
	}
}
