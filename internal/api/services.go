package api

import (
	"github.com/easycomment/easycomment-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Instance *service.InstanceService
	Comment  *service.CommentService
	Settings *service.SettingsService
	Webhook  *service.WebhookService
	Live     *service.LiveService
}
