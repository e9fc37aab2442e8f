// Package orghdl - handler tổ chức: cây phân cấp, SKU, chức danh, branding và quản lý tổ chức.
package orghdl

import (
	"bytes"
	"io"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "incentive_hub/internal/api/base/handler"
	orgdto "incentive_hub/internal/api/organization/dto"
	orgmodels "incentive_hub/internal/api/organization/models"
	orgsvc "incentive_hub/internal/api/organization/service"
	"incentive_hub/internal/hierarchy"
	"incentive_hub/internal/logger"
	"incentive_hub/internal/utility"
)

// OrganizationHandler xử lý các route liên quan đến tổ chức
type OrganizationHandler struct {
	*basehdl.BaseHandler[orgmodels.Organization, orgdto.OrganizationCreateInput, orgdto.OrganizationUpdateInput]
	OrganizationService *orgsvc.OrganizationService
}

// NewOrganizationHandler tạo handler từ service
func NewOrganizationHandler(svc *orgsvc.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler:         basehdl.NewBaseHandler[orgmodels.Organization, orgdto.OrganizationCreateInput, orgdto.OrganizationUpdateInput](svc),
		OrganizationService: svc,
	}
}

// withOrg lấy tổ chức đang hoạt động rồi chạy fn
func (h *OrganizationHandler) withOrg(c fiber.Ctx, fn func(orgID primitive.ObjectID) (interface{}, error)) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		data, err := fn(orgID)
		return h.HandleResponse(c, data, err)
	})
}

// HandleGetCurrent tổ chức đang hoạt động (chưa có thì trả về giá trị mặc định)
// @Router /organization [get]
func (h *OrganizationHandler) HandleGetCurrent(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		return h.OrganizationService.Current(c.Context(), orgID)
	})
}

// HandleGetHierarchy cây phân cấp dạng phẳng
func (h *OrganizationHandler) HandleGetHierarchy(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		return h.OrganizationService.HierarchyView(c.Context(), orgID, false)
	})
}

// HandleGetTree cây phân cấp dạng lồng nhau
func (h *OrganizationHandler) HandleGetTree(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		return h.OrganizationService.HierarchyView(c.Context(), orgID, true)
	})
}

// HandlePutHierarchy thay toàn bộ cây
func (h *OrganizationHandler) HandlePutHierarchy(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		var input orgdto.HierarchyInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		org, err := h.OrganizationService.ReplaceHierarchy(c.Context(), orgID, input.Levels)
		if err != nil {
			return nil, err
		}
		logger.LogAction("hierarchy.replace", c, map[string]interface{}{"levels": len(input.Levels)})
		return org.HierarchyLevels, nil
	})
}

// HandleImportHierarchy import CSV Region,Cluster,Branch,Channel (multipart field "file" hoặc raw body)
func (h *OrganizationHandler) HandleImportHierarchy(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		data, filename, err := basehdl.ReadUpload(c, "file")
		if err != nil {
			return nil, err
		}
		result, err := h.OrganizationService.ImportHierarchy(c.Context(), orgID, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		logger.LogAction("hierarchy.import", c, map[string]interface{}{
			"file":     filename,
			"rows":     result.Rows,
			"created":  result.Created,
			"warnings": len(result.Warnings),
		})
		return result, nil
	})
}

// HandleExportHierarchy tải cây phân cấp dạng CSV
func (h *OrganizationHandler) HandleExportHierarchy(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		org, err := h.OrganizationService.Current(c.Context(), orgID)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		levels := org.HierarchyLevels
		utility.SendCSV(c.RequestCtx(), "hierarchy.csv", func(w io.Writer) error {
			return hierarchy.ExportCSV(w, levels)
		})
		return nil
	})
}

// HandleListSKUs danh sách SKU
func (h *OrganizationHandler) HandleListSKUs(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		org, err := h.OrganizationService.Current(c.Context(), orgID)
		if err != nil {
			return nil, err
		}
		return org.SKUs, nil
	})
}

// HandleSaveSKU thêm / cập nhật SKU
func (h *OrganizationHandler) HandleSaveSKU(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		var input orgdto.SKUInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		return h.OrganizationService.SaveSKU(c.Context(), orgID, &input)
	})
}

// HandleDeleteSKU xoá SKU theo id
func (h *OrganizationHandler) HandleDeleteSKU(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		return nil, h.OrganizationService.DeleteSKU(c.Context(), orgID, c.Params("skuId"))
	})
}

// HandleListDesignations danh sách chức danh
func (h *OrganizationHandler) HandleListDesignations(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		org, err := h.OrganizationService.Current(c.Context(), orgID)
		if err != nil {
			return nil, err
		}
		return org.Designations, nil
	})
}

// HandleSaveDesignation thêm / cập nhật chức danh
func (h *OrganizationHandler) HandleSaveDesignation(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		var input orgdto.DesignationInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		return h.OrganizationService.SaveDesignation(c.Context(), orgID, &input)
	})
}

// HandleDeleteDesignation xoá chức danh
func (h *OrganizationHandler) HandleDeleteDesignation(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		return nil, h.OrganizationService.DeleteDesignation(c.Context(), orgID, c.Params("designationId"))
	})
}

// HandleUpdateBranding cập nhật branding
func (h *OrganizationHandler) HandleUpdateBranding(c fiber.Ctx) error {
	return h.withOrg(c, func(orgID primitive.ObjectID) (interface{}, error) {
		var input orgdto.BrandingInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return nil, err
		}
		org, err := h.OrganizationService.UpdateBranding(c.Context(), orgID, &input)
		if err != nil {
			return nil, err
		}
		return org.Branding, nil
	})
}

// ====================================
// SYSTEM ADMIN
// ====================================

// HandleCreateOrganization tạo tổ chức
func (h *OrganizationHandler) HandleCreateOrganization(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input orgdto.OrganizationCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}
		org, err := h.OrganizationService.CreateOrganization(c.Context(), &input)
		if err == nil {
			logger.LogResource("organization.create", "organization", org.ID.Hex(), c, map[string]interface{}{"code": org.Code})
		}
		return h.HandleResponse(c, org, err)
	})
}

// HandleListOrganizations danh sách tổ chức phân trang
func (h *OrganizationHandler) HandleListOrganizations(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		page, limit := basehdl.ParsePagination(c)
		result, err := h.OrganizationService.ListOrganizations(c.Context(), page, limit)
		return h.HandleResponse(c, result, err)
	})
}

// HandleGetOrganization chi tiết tổ chức theo id
func (h *OrganizationHandler) HandleGetOrganization(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		org, err := h.OrganizationService.FindOneById(c.Context(), id)
		return h.HandleResponse(c, org, err)
	})
}

// HandleUpdateOrganization cập nhật tên / trạng thái tổ chức
func (h *OrganizationHandler) HandleUpdateOrganization(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		var input orgdto.OrganizationUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}
		org, err := h.OrganizationService.UpdateOrganization(c.Context(), id, &input)
		if err == nil {
			logger.LogResource("organization.update", "organization", id.Hex(), c, nil)
		}
		return h.HandleResponse(c, org, err)
	})
}
