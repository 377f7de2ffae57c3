package dto

type ModerateRequest struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
	// UntilSeconds bounds a ban or mute, counted from now.
	UntilSeconds int64  `json:"until_seconds,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type ModerateResponse struct {
	OK bool `json:"ok"`
}

type FlagRequest struct {
	ChatID int64  `json:"chat_id"`
	UserID int64  `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

type FlagResponse struct {
	Count     int  `json:"count"`
	Triggered bool `json:"triggered"`
	Muted     bool `json:"muted"`
}
