package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/easycomment/easycomment-server/internal/domain"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/settings/{id}/",
		Summary:     "Replace display settings",
		Description: "Replaces the whole settings record; omitted fields take their default values",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/settings/{id}/",
		Summary:     "Get display settings",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAdminSettings",
		Method:      http.MethodGet,
		Path:        "/admin/settings/{id}/",
		Summary:     "Get display settings (admin)",
		Tags:        []string{"Admin"},
		Security:    basicAuth,
	}, s.handleGetAdminSettings)
}

// SettingsBody is the display settings record on the wire.
type SettingsBody struct {
	BackgroundColor        string `json:"background_color" doc:"Overlay background color (#RRGGBB)"`
	TextColor              string `json:"text_color" doc:"Comment text color (#RRGGBB)"`
	FontSize               int    `json:"font_size" doc:"Font size in pixels"`
	MaxComments            int    `json:"max_comments" doc:"Number of comments the overlay shows at once"`
	AutoScroll             bool   `json:"auto_scroll" doc:"Scroll to new comments"`
	ShowTimestamp          bool   `json:"show_timestamp" doc:"Show comment timestamps"`
	ModerationEnabled      bool   `json:"moderation_enabled" doc:"Show moderation controls"`
	CommentWidth           int    `json:"comment_width" doc:"Comment width in pixels"`
	CommentHeight          int    `json:"comment_height" doc:"Comment height in pixels"`
	BackgroundOpacity      int    `json:"background_opacity" doc:"Background opacity percentage"`
	TextOpacity            int    `json:"text_opacity" doc:"Text opacity percentage"`
	CommentBackgroundColor string `json:"comment_background_color" doc:"Comment background color (#RRGGBB)"`
	LagSeconds             int    `json:"lag_seconds" doc:"Seconds to delay comment display"`
}

// UpdateSettingsRequest replaces the settings record. A field missing from
// the body takes its default; an explicit false or 0 is kept.
type UpdateSettingsRequest struct {
	BackgroundColor        *string `json:"background_color,omitempty" required:"false" doc:"Overlay background color (#RRGGBB), default #00FF00"`
	TextColor              *string `json:"text_color,omitempty" required:"false" doc:"Comment text color (#RRGGBB), default #000000"`
	FontSize               *int    `json:"font_size,omitempty" required:"false" doc:"Font size in pixels, default 16"`
	MaxComments            *int    `json:"max_comments,omitempty" required:"false" doc:"Number of comments the overlay shows at once, default 50"`
	AutoScroll             *bool   `json:"auto_scroll,omitempty" required:"false" doc:"Scroll to new comments, default true"`
	ShowTimestamp          *bool   `json:"show_timestamp,omitempty" required:"false" doc:"Show comment timestamps, default true"`
	ModerationEnabled      *bool   `json:"moderation_enabled,omitempty" required:"false" doc:"Show moderation controls, default false"`
	CommentWidth           *int    `json:"comment_width,omitempty" required:"false" doc:"Comment width in pixels, default 400"`
	CommentHeight          *int    `json:"comment_height,omitempty" required:"false" doc:"Comment height in pixels, default 120"`
	BackgroundOpacity      *int    `json:"background_opacity,omitempty" required:"false" doc:"Background opacity percentage, default 30"`
	TextOpacity            *int    `json:"text_opacity,omitempty" required:"false" doc:"Text opacity percentage, default 100"`
	CommentBackgroundColor *string `json:"comment_background_color,omitempty" required:"false" doc:"Comment background color (#RRGGBB), default #FFFFFF"`
	LagSeconds             *int    `json:"lag_seconds,omitempty" required:"false" doc:"Seconds to delay comment display, default 0"`
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (r UpdateSettingsRequest) toDomain() domain.Settings {
	s := domain.DefaultSettings()
	setIfPresent(&s.BackgroundColor, r.BackgroundColor)
	setIfPresent(&s.TextColor, r.TextColor)
	setIfPresent(&s.FontSize, r.FontSize)
	setIfPresent(&s.MaxComments, r.MaxComments)
	setIfPresent(&s.AutoScroll, r.AutoScroll)
	setIfPresent(&s.ShowTimestamp, r.ShowTimestamp)
	setIfPresent(&s.ModerationEnabled, r.ModerationEnabled)
	setIfPresent(&s.CommentWidth, r.CommentWidth)
	setIfPresent(&s.CommentHeight, r.CommentHeight)
	setIfPresent(&s.BackgroundOpacity, r.BackgroundOpacity)
	setIfPresent(&s.TextOpacity, r.TextOpacity)
	setIfPresent(&s.CommentBackgroundColor, r.CommentBackgroundColor)
	setIfPresent(&s.LagSeconds, r.LagSeconds)
	return s
}

func toSettingsBody(s *domain.Settings) SettingsBody {
	return SettingsBody{
		BackgroundColor:        s.BackgroundColor,
		TextColor:              s.TextColor,
		FontSize:               s.FontSize,
		MaxComments:            s.MaxComments,
		AutoScroll:             s.AutoScroll,
		ShowTimestamp:          s.ShowTimestamp,
		ModerationEnabled:      s.ModerationEnabled,
		CommentWidth:           s.CommentWidth,
		CommentHeight:          s.CommentHeight,
		BackgroundOpacity:      s.BackgroundOpacity,
		TextOpacity:            s.TextOpacity,
		CommentBackgroundColor: s.CommentBackgroundColor,
		LagSeconds:             s.LagSeconds,
	}
}

// UpdateSettingsInput wraps the settings replacement for Huma.
type UpdateSettingsInput struct {
	ID   string `path:"id" doc:"Instance ID"`
	Body UpdateSettingsRequest
}

// SettingsOutput wraps the settings record for Huma.
type SettingsOutput struct {
	Body SettingsBody
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Replace(ctx, input.ID, input.Body.toDomain())
	if err != nil {
		return nil, statusError(err)
	}
	return &SettingsOutput{Body: toSettingsBody(settings)}, nil
}

func (s *Server) handleGetSettings(ctx context.Context, input *InstanceIDInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx, input.ID)
	if err != nil {
		return nil, statusError(err)
	}
	return &SettingsOutput{Body: toSettingsBody(settings)}, nil
}

func (s *Server) handleGetAdminSettings(ctx context.Context, input *AdminInput) (*SettingsOutput, error) {
	if err := s.authorize(ctx, input); err != nil {
		return nil, statusError(err)
	}

	settings, err := s.services.Settings.Get(ctx, input.ID)
	if err != nil {
		return nil, statusError(err)
	}
	return &SettingsOutput{Body: toSettingsBody(settings)}, nil
}
