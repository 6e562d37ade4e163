package backup

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/logger"
	model "quicker-admin/models/backup"
	notificationModel "quicker-admin/models/notification"
	backupService "quicker-admin/services/backup"
	"quicker-admin/services/notification"
	"quicker-admin/types"
	backupTypes "quicker-admin/types/backup"
	"quicker-admin/utils"
)

type BackupController struct {
	backups  *backupService.Service
	notifier *notification.Service
}

func NewBackupController(backups *backupService.Service, notifier *notification.Service) *BackupController {
	return &BackupController{backups: backups, notifier: notifier}
}

func idParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Validation("invalid id")
	}
	return uint(id), nil
}

func (h *BackupController) notify(ctx context.Context, title, message string, priority notificationModel.Priority, data map[string]interface{}) {
	err := h.notifier.Notify(ctx, notification.Input{
		Type:     notificationModel.TypeBackup,
		Title:    title,
		Message:  message,
		Priority: priority,
		Data:     data,
	})
	if err != nil {
		logger.Error("Failed to raise backup notification", err)
	}
}

func (h *BackupController) Create(c *fiber.Ctx) error {
	var req backupTypes.CreateBackupRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			logger.Error("Error parsing request body", err)
			return utils.RespondError(c, errs.Validation("invalid request body"))
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}

	b, err := h.backups.Create(c.UserContext(), req.Description, false)
	if err != nil {
		return utils.RespondError(c, err)
	}
	h.notify(c.UserContext(), "Backup created", "Manual backup "+b.Filename+" was created.",
		notificationModel.PriorityLow, map[string]interface{}{"backup_id": b.ID, "filename": b.Filename})
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{Message: "Backup created", Status: fiber.StatusCreated, Data: b})
}

func (h *BackupController) List(c *fiber.Ctx) error {
	backups, err := h.backups.List(c.UserContext())
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Backups fetched", Status: fiber.StatusOK, Data: backups})
}

func (h *BackupController) Download(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	path, b, err := h.backups.Path(c.UserContext(), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Download(path, b.Filename)
}

func (h *BackupController) Restore(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	safety, err := h.backups.Restore(c.UserContext(), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	h.notify(c.UserContext(), "Database restored", "The database was restored from a backup. The previous state was saved as "+safety+".",
		notificationModel.PriorityHigh, map[string]interface{}{"backup_id": id, "safety_backup": safety})
	return c.JSON(types.ApiResponse{
		Message: "Database restored",
		Status:  fiber.StatusOK,
		Data:    fiber.Map{"safety_backup": safety},
	})
}

func (h *BackupController) Delete(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.backups.Delete(c.UserContext(), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Backup deleted", Status: fiber.StatusOK})
}

/*=== | Schedules ===*/

func (h *BackupController) ListSchedules(c *fiber.Ctx) error {
	schedules, err := h.backups.ListSchedules(c.UserContext())
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Backup schedules fetched", Status: fiber.StatusOK, Data: schedules})
}

func (h *BackupController) CreateSchedule(c *fiber.Ctx) error {
	var req backupTypes.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}

	schedule, err := h.backups.CreateSchedule(c.UserContext(), backupService.ScheduleInput{
		Frequency:     model.Frequency(req.Frequency),
		Time:          req.Time,
		RetentionDays: req.RetentionDays,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{Message: "Backup schedule created", Status: fiber.StatusCreated, Data: schedule})
}

func (h *BackupController) UpdateSchedule(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req backupTypes.ScheduleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}

	patch := backupService.SchedulePatch{Time: req.Time, RetentionDays: req.RetentionDays, IsActive: req.IsActive}
	if req.Frequency != nil {
		f := model.Frequency(*req.Frequency)
		patch.Frequency = &f
	}
	schedule, err := h.backups.UpdateSchedule(c.UserContext(), id, patch)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Backup schedule updated", Status: fiber.StatusOK, Data: schedule})
}

func (h *BackupController) DeleteSchedule(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.backups.DeleteSchedule(c.UserContext(), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Backup schedule deleted", Status: fiber.StatusOK})
}
