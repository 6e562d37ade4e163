package verify

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/metrics"
	"quicker-admin/services/verification"
	verifyTypes "quicker-admin/types/verify"
	"quicker-admin/utils"
)

// VerifyController serves the external, API-key protected verification calls.
// Business outcomes are always 200; callers read valid/success and reason.
type VerifyController struct {
	engine *verification.Engine
}

func NewVerifyController(engine *verification.Engine) *VerifyController {
	return &VerifyController{engine: engine}
}

func result(ok bool, reason verification.Reason) string {
	if ok {
		return "valid"
	}
	return string(reason)
}

func (h *VerifyController) PhoneLogin(c *fiber.Ctx) error {
	var req verifyTypes.PhoneLoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}

	res, err := h.engine.VerifyByPhone(c.UserContext(), req.Phone, time.Now().UTC())
	if err != nil {
		return utils.RespondError(c, err)
	}
	metrics.Verifications.WithLabelValues("phone", result(res.Success, res.Reason)).Inc()
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *VerifyController) VerifyCID(c *fiber.Ctx) error {
	var req verifyTypes.CIDVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}

	res, err := h.engine.VerifyByCID(c.UserContext(), req.CID, time.Now().UTC())
	if err != nil {
		return utils.RespondError(c, err)
	}
	metrics.Verifications.WithLabelValues("cid", result(res.Valid, res.Reason)).Inc()
	return c.Status(fiber.StatusOK).JSON(res)
}
