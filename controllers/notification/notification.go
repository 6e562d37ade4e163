package notification

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/middleware"
	model "quicker-admin/models/notification"
	"quicker-admin/services/notification"
	"quicker-admin/services/session"
	"quicker-admin/types"
	notificationTypes "quicker-admin/types/notification"
	"quicker-admin/utils"
)

type NotificationController struct {
	service *notification.Service
}

func NewNotificationController(service *notification.Service) *NotificationController {
	return &NotificationController{service: service}
}

func currentAdmin(c *fiber.Ctx) (*session.Identity, error) {
	identity, ok := middleware.CurrentAdmin(c)
	if !ok {
		return nil, errs.Unauthorized("authentication required")
	}
	return identity, nil
}

func notificationID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Validation("invalid notification id")
	}
	return uint(id), nil
}

func (h *NotificationController) List(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	items, err := h.service.List(c.UserContext(), identity.AdminID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Notifications fetched", Status: fiber.StatusOK, Data: items})
}

func (h *NotificationController) UnreadCount(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	count, err := h.service.UnreadCount(c.UserContext(), identity.AdminID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(notificationTypes.CountResponse{Count: count})
}

func (h *NotificationController) MarkRead(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	id, err := notificationID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.service.MarkRead(c.UserContext(), identity.AdminID, id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Notification marked as read", Status: fiber.StatusOK})
}

func (h *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.service.MarkAllRead(c.UserContext(), identity.AdminID); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "All notifications marked as read", Status: fiber.StatusOK})
}

func (h *NotificationController) Delete(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	id, err := notificationID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), identity.AdminID, id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Notification deleted", Status: fiber.StatusOK})
}

func (h *NotificationController) ClearAll(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.service.ClearAll(c.UserContext(), identity.AdminID); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Notifications cleared", Status: fiber.StatusOK})
}

func (h *NotificationController) Settings(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	settings, err := h.service.Settings(c.UserContext(), identity.AdminID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Notification settings fetched", Status: fiber.StatusOK, Data: settings})
}

// UpdateSettings takes a map keyed by notification type.
func (h *NotificationController) UpdateSettings(c *fiber.Ctx) error {
	identity, err := currentAdmin(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req map[string]notificationTypes.SettingRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}

	updates := make(map[model.Type]notification.SettingInput, len(req))
	for key, setting := range req {
		if err := utils.ValidateStruct(setting); err != nil {
			return utils.RespondError(c, err)
		}
		updates[model.Type(key)] = notification.SettingInput{
			EmailEnabled: setting.EmailEnabled,
			WebEnabled:   setting.WebEnabled,
			Priority:     model.Priority(setting.Priority),
		}
	}
	if err := h.service.UpdateSettings(c.UserContext(), identity.AdminID, updates); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Notification settings updated", Status: fiber.StatusOK})
}
