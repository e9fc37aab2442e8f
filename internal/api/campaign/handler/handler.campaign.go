// Package camphdl - handler chiến dịch: CRUD, phân bổ chỉ tiêu, upload CSV, vòng đời, bảng xếp hạng.
package camphdl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "incentive_hub/internal/api/base/handler"
	campdto "incentive_hub/internal/api/campaign/dto"
	campmodels "incentive_hub/internal/api/campaign/models"
	campsvc "incentive_hub/internal/api/campaign/service"
	"incentive_hub/internal/logger"
	"incentive_hub/internal/utility"
)

// CampaignHandler xử lý các route liên quan đến chiến dịch
type CampaignHandler struct {
	*basehdl.BaseHandler[campmodels.Campaign, campdto.CampaignCreateInput, campdto.CampaignUpdateInput]
	CampaignService *campsvc.CampaignService
}

// NewCampaignHandler tạo handler từ service
func NewCampaignHandler(svc *campsvc.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		BaseHandler:     basehdl.NewBaseHandler[campmodels.Campaign, campdto.CampaignCreateInput, campdto.CampaignUpdateInput](svc),
		CampaignService: svc,
	}
}

// withCampaign lấy tổ chức đang hoạt động và :id rồi chạy fn
func (h *CampaignHandler) withCampaign(c fiber.Ctx, fn func(orgID, id primitive.ObjectID) (interface{}, error)) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		data, err := fn(orgID, id)
		return h.HandleResponse(c, data, err)
	})
}

func leaderboardQuery(c fiber.Ctx) *campdto.LeaderboardQuery {
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}
	return &campdto.LeaderboardQuery{
		Region:      c.Query("region"),
		Designation: c.Query("designation"),
		Limit:       limit,
	}
}

// ====================================
// CRUD
// ====================================

// HandleList danh sách chiến dịch (?status=&search=&page=&limit=)
// @Router /campaigns [get]
func (h *CampaignHandler) HandleList(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		page, limit := basehdl.ParsePagination(c)
		result, err := h.CampaignService.List(c.Context(), orgID, &campdto.CampaignListQuery{
			Status: c.Query("status"),
			Search: c.Query("search"),
			Page:   page,
			Limit:  limit,
		})
		return h.HandleResponse(c, result, err)
	})
}

// HandleCreate tạo chiến dịch nháp
// @Router /campaigns [post]
func (h *CampaignHandler) HandleCreate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		var input campdto.CampaignCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}
		created, err := h.CampaignService.Create(c.Context(), orgID, basehdl.CurrentUserID(c), &input)
		if err == nil {
			logger.LogAction("campaign.create", c, map[string]interface{}{"campaign_id": created.ID.Hex(), "name": created.Name})
		}
		return h.HandleResponse(c, created, err)
	})
}

// HandleGet chi tiết chiến dịch
func (h *CampaignHandler) HandleGet(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		return h.CampaignService.Get(c.Context(), orgID, id)
	})
}

// HandleUpdate cập nhật chiến dịch
func (h *CampaignHandler) HandleUpdate(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		var input campdto.CampaignUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		return h.CampaignService.Update(c.Context(), orgID, id, &input)
	})
}

// HandleDelete xoá chiến dịch nháp / đã huỷ
func (h *CampaignHandler) HandleDelete(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		if err := h.CampaignService.Delete(c.Context(), orgID, id); err != nil {
			return nil, err
		}
		logger.LogAction("campaign.delete", c, map[string]interface{}{"campaign_id": id.Hex()})
		return nil, nil
	})
}

// ====================================
// PHÂN BỔ CHỈ TIÊU
// ====================================

// parseDistribution body tuỳ chọn; rỗng thì dùng cấu hình của chiến dịch
func (h *CampaignHandler) parseDistribution(c fiber.Ctx) (*campdto.DistributionInput, error) {
	if len(c.Body()) == 0 {
		return nil, nil
	}
	var input campdto.DistributionInput
	if err := h.ParseRequestBody(c, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// HandlePreviewDistribution tính thử phân bổ, không lưu
// @Router /campaigns/{id}/distribution/preview [post]
func (h *CampaignHandler) HandlePreviewDistribution(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		input, err := h.parseDistribution(c)
		if err != nil {
			return nil, err
		}
		return h.CampaignService.PreviewDistribution(c.Context(), orgID, id, input)
	})
}

// HandleDistribute tính và lưu phân bổ
// @Router /campaigns/{id}/distribution [post]
func (h *CampaignHandler) HandleDistribute(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		input, err := h.parseDistribution(c)
		if err != nil {
			return nil, err
		}
		result, err := h.CampaignService.Distribute(c.Context(), orgID, id, input)
		if err != nil {
			return nil, err
		}
		logger.LogAction("campaign.distribute", c, map[string]interface{}{
			"campaign_id": id.Hex(),
			"algorithm":   result.Algorithm,
			"csv_kept":    result.CSVKept,
		})
		return result, nil
	})
}

// HandleCustomDistribution lưu chỉ tiêu nhập tay theo node lá
func (h *CampaignHandler) HandleCustomDistribution(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		var input campdto.CustomDistributionInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		return h.CampaignService.SaveCustomDistribution(c.Context(), orgID, id, &input)
	})
}

// HandleAutoBalance cân bằng chênh lệch làm tròn
func (h *CampaignHandler) HandleAutoBalance(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		return h.CampaignService.AutoBalance(c.Context(), orgID, id)
	})
}

// HandleUploadTargets upload file CSV chỉ tiêu (multipart field "file" hoặc raw body)
// @Router /campaigns/{id}/targets/upload [post]
func (h *CampaignHandler) HandleUploadTargets(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		data, filename, err := basehdl.ReadUpload(c, "file")
		if err != nil {
			return nil, err
		}
		result, err := h.CampaignService.UploadTargets(c.Context(), orgID, id, data)
		if err != nil {
			return nil, err
		}
		logger.LogAction("campaign.targets.upload", c, map[string]interface{}{
			"campaign_id": id.Hex(),
			"file":        filename,
			"targets":     result.Targets,
			"warnings":    len(result.Warnings),
		})
		return result, nil
	})
}

// HandleTargetTemplate tải file mẫu chỉ tiêu
func (h *CampaignHandler) HandleTargetTemplate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		tpl, err := h.CampaignService.TargetTemplate(c.Context(), orgID, id)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		utility.SendCSV(c.RequestCtx(), fmt.Sprintf("targets_%s.csv", id.Hex()), func(w io.Writer) error {
			_, err := io.WriteString(w, tpl)
			return err
		})
		return nil
	})
}

// ====================================
// VÒNG ĐỜI
// ====================================

func (h *CampaignHandler) lifecycle(c fiber.Ctx, action string, fn func(orgID, id primitive.ObjectID) (*campmodels.Campaign, error)) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		updated, err := fn(orgID, id)
		if err != nil {
			return nil, err
		}
		logger.LogAction(action, c, map[string]interface{}{"campaign_id": id.Hex(), "status": updated.Status})
		return updated, nil
	})
}

// HandleActivate kích hoạt chiến dịch
// @Router /campaigns/{id}/activate [post]
func (h *CampaignHandler) HandleActivate(c fiber.Ctx) error {
	return h.lifecycle(c, "campaign.activate", func(orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
		return h.CampaignService.Activate(c.Context(), orgID, id)
	})
}

// HandleCancel huỷ chiến dịch
func (h *CampaignHandler) HandleCancel(c fiber.Ctx) error {
	return h.lifecycle(c, "campaign.cancel", func(orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
		return h.CampaignService.Cancel(c.Context(), orgID, id)
	})
}

// HandleComplete kết thúc chiến dịch và chốt người thắng
func (h *CampaignHandler) HandleComplete(c fiber.Ctx) error {
	return h.lifecycle(c, "campaign.complete", func(orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
		return h.CampaignService.Complete(c.Context(), orgID, id)
	})
}

// ====================================
// BẢNG XẾP HẠNG
// ====================================

// HandleLeaderboard bảng xếp hạng (?region=&designation=&limit=)
// @Router /campaigns/{id}/leaderboard [get]
func (h *CampaignHandler) HandleLeaderboard(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		return h.CampaignService.Leaderboard(c.Context(), orgID, id, leaderboardQuery(c))
	})
}

// HandleExportLeaderboard tải bảng xếp hạng đầy đủ dạng CSV
func (h *CampaignHandler) HandleExportLeaderboard(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		view, cols, err := h.CampaignService.LeaderboardExport(c.Context(), orgID, id, leaderboardQuery(c))
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		utility.SendCSV(c.RequestCtx(), fmt.Sprintf("leaderboard_%s.csv", id.Hex()), func(w io.Writer) error {
			return campsvc.WriteLeaderboardCSV(w, view, cols)
		})
		return nil
	})
}

// ====================================
// NHÂN VIÊN
// ====================================

// HandleMyProgress chỉ tiêu, kết quả và thứ hạng của người đang đăng nhập
// @Router /campaigns/{id}/me [get]
func (h *CampaignHandler) HandleMyProgress(c fiber.Ctx) error {
	return h.withCampaign(c, func(orgID, id primitive.ObjectID) (interface{}, error) {
		return h.CampaignService.MyProgress(c.Context(), orgID, id, basehdl.CurrentUserID(c))
	})
}

// HandleMyCampaigns chiến dịch người đang đăng nhập tham gia
// @Router /me/campaigns [get]
func (h *CampaignHandler) HandleMyCampaigns(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		list, err := h.CampaignService.ListForEmployee(c.Context(), orgID, basehdl.CurrentUserID(c))
		return h.HandleResponse(c, list, err)
	})
}
