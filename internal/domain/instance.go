package domain

import "time"

// Instance is one isolated comment stream, typically one per live event.
// Active is persisted but not enforced against mutations.
type Instance struct {
	CreatedAt     time.Time `json:"created_at"`
	WebhookURL    *string   `json:"webhook_url"`
	AdminPassword *string   `json:"admin_password"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Active        bool      `json:"active"`
}

// RequiresAuth reports whether admin access to the instance is password protected.
func (i *Instance) RequiresAuth() bool {
	return i.AdminPassword != nil && *i.AdminPassword != ""
}

// HasWebhook reports whether a webhook URL is configured.
func (i *Instance) HasWebhook() bool {
	return i.WebhookURL != nil && *i.WebhookURL != ""
}
