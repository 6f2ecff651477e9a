package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerWebhookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "receiveWebhook",
		Method:      http.MethodPost,
		Path:        "/webhook/{id}/",
		Summary:     "Relay webhook payload",
		Description: "Forwards an arbitrary JSON object to the instance's viewers as a webhook_received event",
		Tags:        []string{"Webhooks"},
		Middlewares: s.rateLimited(),
	}, s.handleWebhook)
}

// WebhookInput carries an arbitrary JSON object for an instance.
type WebhookInput struct {
	ID   string `path:"id" doc:"Instance ID"`
	Body map[string]any
}

// WebhookResponse acknowledges a relayed payload.
type WebhookResponse struct {
	Status string `json:"status" doc:"Always \"received\""`
}

// WebhookOutput wraps the acknowledgement for Huma.
type WebhookOutput struct {
	Body WebhookResponse
}

func (s *Server) handleWebhook(ctx context.Context, input *WebhookInput) (*WebhookOutput, error) {
	if err := s.services.Webhook.Relay(ctx, input.ID, input.Body); err != nil {
		return nil, statusError(err)
	}
	return &WebhookOutput{Body: WebhookResponse{Status: "received"}}, nil
}
