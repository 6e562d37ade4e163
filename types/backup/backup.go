package backup

type CreateBackupRequest struct {
	Description string `json:"description" form:"description" validate:"max=200"`
}

type ScheduleRequest struct {
	Frequency     string `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Time          string `json:"time" validate:"required"`
	RetentionDays int    `json:"retention_days" validate:"min=0"`
	IsActive      *bool  `json:"is_active"`
}

type ScheduleUpdateRequest struct {
	Frequency     *string `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	Time          *string `json:"time"`
	RetentionDays *int    `json:"retention_days"`
	IsActive      *bool   `json:"is_active"`
}
