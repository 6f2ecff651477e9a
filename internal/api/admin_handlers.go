package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var basicAuth = []map[string][]string{{"basic": {}}}

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAdminInstance",
		Method:      http.MethodGet,
		Path:        "/admin/instance/{id}/",
		Summary:     "Get instance (admin)",
		Description: "Returns the instance including its admin password",
		Tags:        []string{"Admin"},
		Security:    basicAuth,
	}, s.handleGetAdminInstance)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkAdminAuth",
		Method:      http.MethodGet,
		Path:        "/admin/auth/{id}/",
		Summary:     "Check admin credentials",
		Description: "Reports whether the instance is password protected and whether the supplied credentials grant access",
		Tags:        []string{"Admin"},
		Security:    basicAuth,
	}, s.handleCheckAdminAuth)
}

// AdminInput identifies an instance and carries the admin credentials.
type AdminInput struct {
	ID            string `path:"id" doc:"Instance ID"`
	Authorization string `header:"Authorization" doc:"Basic credentials; only the password is checked"`
}

// AuthStatusResponse reports the admin gate state for an instance.
type AuthStatusResponse struct {
	AuthRequired  bool `json:"auth_required" doc:"Whether the instance has an admin password"`
	Authenticated bool `json:"authenticated" doc:"Whether the request is authorized"`
}

// AuthStatusOutput wraps the auth status for Huma.
type AuthStatusOutput struct {
	Body AuthStatusResponse
}

func (s *Server) handleGetAdminInstance(ctx context.Context, input *AdminInput) (*InstanceOutput, error) {
	instance, err := s.services.Instance.Authorize(ctx, input.ID, input.Authorization)
	if err != nil {
		return nil, statusError(err)
	}
	return &InstanceOutput{Body: toInstanceResponse(instance)}, nil
}

func (s *Server) handleCheckAdminAuth(ctx context.Context, input *AdminInput) (*AuthStatusOutput, error) {
	required, err := s.services.Instance.AuthStatus(ctx, input.ID, input.Authorization)
	if err != nil {
		return nil, statusError(err)
	}
	return &AuthStatusOutput{Body: AuthStatusResponse{AuthRequired: required, Authenticated: true}}, nil
}

// authorize returns an error unless the request may use the instance's
// admin views.
func (s *Server) authorize(ctx context.Context, input *AdminInput) error {
	if _, err := s.services.Instance.Authorize(ctx, input.ID, input.Authorization); err != nil {
		return statusError(err)
	}
	return nil
}
