package domain

// Settings is the display configuration of an instance's overlay.
// Updates replace the whole record; there is no partial merge.
//
// MaxComments is a display hint for overlay clients. The comment list
// itself is never trimmed to it.
type Settings struct {
	BackgroundColor        string `json:"background_color" validate:"required,rgbhex"`
	TextColor              string `json:"text_color" validate:"required,rgbhex"`
	CommentBackgroundColor string `json:"comment_background_color" validate:"required,rgbhex"`
	FontSize               int    `json:"font_size" validate:"gt=0"`
	MaxComments            int    `json:"max_comments" validate:"gte=0"`
	CommentWidth           int    `json:"comment_width" validate:"gt=0"`
	CommentHeight          int    `json:"comment_height" validate:"gt=0"`
	BackgroundOpacity      int    `json:"background_opacity" validate:"gte=0,lte=100"`
	TextOpacity            int    `json:"text_opacity" validate:"gte=0,lte=100"`
	LagSeconds             int    `json:"lag_seconds" validate:"gte=0"`
	AutoScroll             bool   `json:"auto_scroll"`
	ShowTimestamp          bool   `json:"show_timestamp"`
	ModerationEnabled      bool   `json:"moderation_enabled"`
}

// DefaultSettings returns the settings every new instance starts with.
func DefaultSettings() Settings {
	return Settings{
		BackgroundColor:        "#00FF00",
		TextColor:              "#000000",
		FontSize:               16,
		MaxComments:            50,
		AutoScroll:             true,
		ShowTimestamp:          true,
		ModerationEnabled:      false,
		CommentWidth:           400,
		CommentHeight:          120,
		BackgroundOpacity:      30,
		TextOpacity:            100,
		CommentBackgroundColor: "#FFFFFF",
		LagSeconds:             0,
	}
}
