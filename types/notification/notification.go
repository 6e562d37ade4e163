package notification

type SettingRequest struct {
	EmailEnabled bool   `json:"email_enabled"`
	WebEnabled   bool   `json:"web_enabled"`
	Priority     string `json:"priority" validate:"omitempty,oneof=low normal high"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
