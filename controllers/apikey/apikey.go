package apikey

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/services/apiaccess"
	"quicker-admin/types"
	keyTypes "quicker-admin/types/apikey"
	"quicker-admin/utils"
)

type ApiKeyController struct {
	guard *apiaccess.Guard
}

func NewApiKeyController(guard *apiaccess.Guard) *ApiKeyController {
	return &ApiKeyController{guard: guard}
}

func (h *ApiKeyController) Create(c *fiber.Ctx) error {
	var req keyTypes.CreateKeyRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}

	raw, key, err := h.guard.Issue(c.UserContext(), req.Name)
	if err != nil {
		return utils.RespondError(c, err)
	}
	logger.Success("API key issued: " + key.Name + " (" + key.KeyPrefix + "...)")
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "API key created. Store it now, it will not be shown again.",
		Status:  fiber.StatusCreated,
		Data:    keyTypes.CreatedKeyResponse{KeyResponse: keyTypes.NewKeyResponse(key), Key: raw},
	})
}

func (h *ApiKeyController) List(c *fiber.Ctx) error {
	keys, err := h.guard.List(c.UserContext())
	if err != nil {
		return utils.RespondError(c, err)
	}
	out := make([]keyTypes.KeyResponse, 0, len(keys))
	for i := range keys {
		out = append(out, keyTypes.NewKeyResponse(&keys[i]))
	}
	return c.JSON(types.ApiResponse{Message: "API keys fetched", Status: fiber.StatusOK, Data: out})
}

func (h *ApiKeyController) Deactivate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.RespondError(c, errs.Validation("invalid API key id"))
	}
	if err := h.guard.Deactivate(c.UserContext(), uint(id)); err != nil {
		return utils.RespondError(c, err)
	}
	logger.Info("API key deactivated: " + c.Params("id"))
	return c.JSON(types.ApiResponse{Message: "API key deactivated", Status: fiber.StatusOK})
}

func (h *ApiKeyController) Logs(c *fiber.Ctx) error {
	page, err := h.guard.Logs(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("per_page", 50))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "API logs fetched", Status: fiber.StatusOK, Data: page})
}
