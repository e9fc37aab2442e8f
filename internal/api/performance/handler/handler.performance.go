// Package perfhdl - handler ghi nhận kết quả bán hàng theo chiến dịch.
package perfhdl

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "incentive_hub/internal/api/base/handler"
	"incentive_hub/internal/api/middleware"
	perfdto "incentive_hub/internal/api/performance/dto"
	perfmodels "incentive_hub/internal/api/performance/models"
	perfsvc "incentive_hub/internal/api/performance/service"
	"incentive_hub/internal/common"
	"incentive_hub/internal/logger"
)

// PerformanceHandler xử lý route /campaigns/:id/performances
type PerformanceHandler struct {
	*basehdl.BaseHandler[perfmodels.UserPerformance, perfdto.EntryInput, perfdto.AchievementsInput]
	PerformanceService *perfsvc.PerformanceService
}

// NewPerformanceHandler tạo handler từ service
func NewPerformanceHandler(svc *perfsvc.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{
		BaseHandler:        basehdl.NewBaseHandler[perfmodels.UserPerformance, perfdto.EntryInput, perfdto.AchievementsInput](svc),
		PerformanceService: svc,
	}
}

// withUser lấy tổ chức, :id (chiến dịch) và :userId rồi chạy fn
func (h *PerformanceHandler) withUser(c fiber.Ctx, fn func(orgID, campaignID, userID primitive.ObjectID) (interface{}, error)) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		campaignID, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		userID, err := basehdl.ParseObjectIDParam(c, "userId")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		data, err := fn(orgID, campaignID, userID)
		return h.HandleResponse(c, data, err)
	})
}

// HandleList kết quả của mọi nhân viên trong chiến dịch
// @Router /campaigns/{id}/performances [get]
func (h *PerformanceHandler) HandleList(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		campaignID, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		list, err := h.PerformanceService.ListByCampaign(c.Context(), orgID, campaignID)
		return h.HandleResponse(c, list, err)
	})
}

// HandleGet kết quả của một nhân viên; nhân viên chỉ xem được của chính mình
// @Router /campaigns/{id}/performances/{userId} [get]
func (h *PerformanceHandler) HandleGet(c fiber.Ctx) error {
	return h.withUser(c, func(orgID, campaignID, userID primitive.ObjectID) (interface{}, error) {
		if userID != basehdl.CurrentUserID(c) && !middleware.HasPermission(basehdl.CurrentRole(c), middleware.PermPerformanceRead) {
			return nil, common.ErrForbidden
		}
		return h.PerformanceService.Get(c.Context(), orgID, campaignID, userID)
	})
}

// HandleSetAchievements ghi đè kết quả theo SKU
// @Router /campaigns/{id}/performances/{userId} [put]
func (h *PerformanceHandler) HandleSetAchievements(c fiber.Ctx) error {
	return h.withUser(c, func(orgID, campaignID, userID primitive.ObjectID) (interface{}, error) {
		var input perfdto.AchievementsInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		p, err := h.PerformanceService.SetAchievements(c.Context(), orgID, campaignID, userID, input.Achievements)
		if err != nil {
			return nil, err
		}
		logger.LogAction("performance.set", c, map[string]interface{}{
			"campaign_id":  campaignID.Hex(),
			"target_user":  userID.Hex(),
			"achievements": input.Achievements,
		})
		return p, nil
	})
}

// HandleRecordEntry ghi nhận thêm kết quả
// @Router /campaigns/{id}/performances/{userId}/entries [post]
func (h *PerformanceHandler) HandleRecordEntry(c fiber.Ctx) error {
	return h.withUser(c, func(orgID, campaignID, userID primitive.ObjectID) (interface{}, error) {
		var input perfdto.EntryInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		return h.PerformanceService.RecordEntry(c.Context(), orgID, campaignID, userID, basehdl.CurrentUserID(c), &input)
	})
}
