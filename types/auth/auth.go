package auth

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" form:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

type AdminResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	LastLogin string `json:"last_login,omitempty"`
}

type LoginResponse struct {
	Message   string        `json:"message"`
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expires_at"`
	Admin     AdminResponse `json:"admin"`
}

type LoginFailure struct {
	Error             string `json:"error"`
	Status            int    `json:"status"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
	RemainingSeconds  *int   `json:"remaining_seconds,omitempty"`
}
