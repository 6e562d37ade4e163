package member

import (
	"bytes"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/errs"
	"quicker-admin/logger"
	"quicker-admin/services/export"
	"quicker-admin/services/registry"
	"quicker-admin/types"
	memberTypes "quicker-admin/types/member"
	"quicker-admin/utils"
)

type MemberController struct {
	registry *registry.Registry
}

func NewMemberController(r *registry.Registry) *MemberController {
	return &MemberController{registry: r}
}

func memberID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Validation("invalid member id")
	}
	return uint(id), nil
}

func parseMemberRequest(c *fiber.Ctx) (registry.MemberInput, error) {
	var req memberTypes.MemberRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return registry.MemberInput{}, errs.Validation("invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return registry.MemberInput{}, err
	}

	registered, err := utils.ParseDate("registration_date", req.RegistrationDate)
	if err != nil {
		return registry.MemberInput{}, err
	}
	expiry, err := utils.ParseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		return registry.MemberInput{}, err
	}

	return registry.MemberInput{
		Name:             req.Name,
		Phone:            req.Phone,
		RegistrationDate: registered,
		ExpiryDate:       expiry,
		DepositAmount:    req.DepositAmount,
		Referrer:         req.Referrer,
		CIDs:             req.CIDs,
	}, nil
}

func (h *MemberController) List(c *fiber.Ctx) error {
	members, err := h.registry.List(c.UserContext())
	if err != nil {
		return utils.RespondError(c, err)
	}
	now := time.Now().UTC()
	out := make([]memberTypes.MemberResponse, 0, len(members))
	for i := range members {
		out = append(out, memberTypes.NewMemberResponse(&members[i], now))
	}
	return c.JSON(types.ApiResponse{Message: "Members fetched successfully", Status: fiber.StatusOK, Data: out})
}

func (h *MemberController) Get(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	m, err := h.registry.Get(c.UserContext(), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{
		Message: "Member fetched successfully",
		Status:  fiber.StatusOK,
		Data:    memberTypes.NewMemberResponse(m, time.Now().UTC()),
	})
}

func (h *MemberController) Create(c *fiber.Ctx) error {
	in, err := parseMemberRequest(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	m, err := h.registry.Register(c.UserContext(), in)
	if err != nil {
		return utils.RespondError(c, err)
	}
	logger.Success("Member registered: " + m.Name + " (" + m.Phone + ")")
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Member registered successfully",
		Status:  fiber.StatusCreated,
		Data:    memberTypes.NewMemberResponse(m, time.Now().UTC()),
	})
}

func (h *MemberController) Update(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	in, err := parseMemberRequest(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	m, err := h.registry.Update(c.UserContext(), id, in)
	if err != nil {
		return utils.RespondError(c, err)
	}
	logger.Success("Member updated: " + m.Name)
	return c.JSON(types.ApiResponse{
		Message: "Member updated successfully",
		Status:  fiber.StatusOK,
		Data:    memberTypes.NewMemberResponse(m, time.Now().UTC()),
	})
}

func (h *MemberController) Delete(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.registry.Delete(c.UserContext(), id); err != nil {
		return utils.RespondError(c, err)
	}
	logger.Info("Member deleted: " + strconv.FormatUint(uint64(id), 10))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MemberController) Activities(c *fiber.Ctx) error {
	id, err := memberID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	activities, err := h.registry.Activities(c.UserContext(), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	out := make([]memberTypes.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, memberTypes.NewActivityResponse(a))
	}
	return c.JSON(types.ApiResponse{Message: "Member activity fetched", Status: fiber.StatusOK, Data: out})
}

// ToggleCID activates or deactivates a single CID.
func (h *MemberController) ToggleCID(c *fiber.Ctx) error {
	var req memberTypes.CIDToggleRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return utils.RespondError(c, errs.Validation("invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.registry.SetCIDActive(c.UserContext(), c.Params("cid"), *req.IsActive); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "CID updated", Status: fiber.StatusOK})
}

// Export streams every member as an Excel workbook.
func (h *MemberController) Export(c *fiber.Ctx) error {
	members, err := h.registry.List(c.UserContext())
	if err != nil {
		return utils.RespondError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteMembers(&buf, members); err != nil {
		return utils.RespondError(c, errs.Internal("failed to build export", err))
	}
	c.Attachment(export.Filename(time.Now()))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}
