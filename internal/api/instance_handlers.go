package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/easycomment/easycomment-server/internal/domain"
	"github.com/easycomment/easycomment-server/internal/service"
)

func (s *Server) registerInstanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createInstance",
		Method:        http.MethodPost,
		Path:          "/instances/",
		Summary:       "Create instance",
		Description:   "Creates a comment stream with default display settings",
		Tags:          []string{"Instances"},
		DefaultStatus: http.StatusOK,
	}, s.handleCreateInstance)

	huma.Register(s.api, huma.Operation{
		OperationID: "listInstances",
		Method:      http.MethodGet,
		Path:        "/instances/",
		Summary:     "List instances",
		Tags:        []string{"Instances"},
	}, s.handleListInstances)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInstance",
		Method:      http.MethodGet,
		Path:        "/instances/{id}/",
		Summary:     "Get instance",
		Tags:        []string{"Instances"},
	}, s.handleGetInstance)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteInstance",
		Method:      http.MethodDelete,
		Path:        "/instances/{id}/",
		Summary:     "Delete instance",
		Description: "Deletes the instance with its comments and settings and closes its rooms",
		Tags:        []string{"Instances"},
	}, s.handleDeleteInstance)
}

// InstanceResponse contains instance data in API responses.
type InstanceResponse struct {
	CreatedAt     time.Time `json:"created_at" doc:"Creation timestamp"`
	WebhookURL    *string   `json:"webhook_url" doc:"Webhook URL logged on new comments"`
	AdminPassword *string   `json:"admin_password" doc:"Admin password; only returned to the creator and to admins"`
	ID            string    `json:"id" doc:"Instance ID"`
	Name          string    `json:"name" doc:"Display name"`
	Active        bool      `json:"active" doc:"Whether the instance is active"`
}

func toInstanceResponse(i *domain.Instance) InstanceResponse {
	return InstanceResponse{
		ID:            i.ID,
		Name:          i.Name,
		WebhookURL:    i.WebhookURL,
		AdminPassword: i.AdminPassword,
		CreatedAt:     i.CreatedAt,
		Active:        i.Active,
	}
}

// InstanceIDInput identifies an instance in the path.
type InstanceIDInput struct {
	ID string `path:"id" doc:"Instance ID"`
}

// CreateInstanceRequest is the request body for creating an instance.
type CreateInstanceRequest struct {
	WebhookURL    *string `json:"webhook_url,omitempty" required:"false" doc:"Webhook URL"`
	AdminPassword *string `json:"admin_password,omitempty" required:"false" doc:"Password protecting the admin views"`
	Name          string  `json:"name" maxLength:"200" doc:"Display name"`
}

// CreateInstanceInput wraps the create instance request for Huma.
type CreateInstanceInput struct {
	Body CreateInstanceRequest
}

// InstanceOutput wraps the instance response for Huma.
type InstanceOutput struct {
	Body InstanceResponse
}

// ListInstancesOutput wraps the instance list for Huma.
type ListInstancesOutput struct {
	Body []InstanceResponse
}

func (s *Server) handleCreateInstance(ctx context.Context, input *CreateInstanceInput) (*InstanceOutput, error) {
	instance, err := s.services.Instance.Create(ctx, service.CreateInstanceRequest{
		Name:          input.Body.Name,
		WebhookURL:    input.Body.WebhookURL,
		AdminPassword: input.Body.AdminPassword,
	})
	if err != nil {
		return nil, statusError(err)
	}

	s.logger.Info("instance created", "instance_id", instance.ID, "protected", instance.RequiresAuth())
	return &InstanceOutput{Body: toInstanceResponse(instance)}, nil
}

func (s *Server) handleListInstances(ctx context.Context, _ *struct{}) (*ListInstancesOutput, error) {
	instances, err := s.services.Instance.List(ctx)
	if err != nil {
		return nil, statusError(err)
	}

	out := make([]InstanceResponse, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceResponse(publicInstance(i)))
	}
	return &ListInstancesOutput{Body: out}, nil
}

func (s *Server) handleGetInstance(ctx context.Context, input *InstanceIDInput) (*InstanceOutput, error) {
	instance, err := s.services.Instance.Get(ctx, input.ID)
	if err != nil {
		return nil, statusError(err)
	}
	return &InstanceOutput{Body: toInstanceResponse(publicInstance(instance))}, nil
}

func (s *Server) handleDeleteInstance(ctx context.Context, input *InstanceIDInput) (*MessageOutput, error) {
	if err := s.services.Instance.Delete(ctx, input.ID); err != nil {
		return nil, statusError(err)
	}

	s.logger.Info("instance deleted", "instance_id", input.ID)
	return message("Instance deleted successfully"), nil
}
