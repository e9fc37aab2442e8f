package basehdl

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	basemodels "incentive_hub/internal/api/base/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/utility"
)

// TransformCreateInputToModel chuyển DTO sang model qua bson (các field cùng tên bson được copy)
func TransformCreateInputToModel[CreateInput any, T any](input *CreateInput) (*T, error) {
	raw, err := bson.Marshal(input)
	if err != nil {
		return nil, err
	}
	var model T
	if err := bson.Unmarshal(raw, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// InsertOne thêm mới một document từ CreateInput. Model OrganizationScoped được gán tổ chức đang hoạt động.
func (h *BaseHandler[T, CreateInput, UpdateInput]) InsertOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input CreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}

		model, err := TransformCreateInputToModel[CreateInput, T](&input)
		if err != nil {
			return h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationFormat, "Lỗi transform dữ liệu", common.StatusBadRequest, err.Error()))
		}

		if scoped, ok := any(model).(OrganizationScoped); ok && h.OrgField != "" {
			orgID, err := RequireOrganization(c)
			if err != nil {
				return h.HandleResponse(c, nil, err)
			}
			scoped.SetOrganizationID(orgID)
		}

		data, err := h.BaseService.InsertOne(c.Context(), *model)
		return h.HandleResponse(c, data, err)
	})
}

// FindOne tìm một document theo filter (query string JSON)
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.scopedFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		data, err := h.BaseService.FindOne(c.Context(), filter, nil)
		return h.HandleResponse(c, data, err)
	})
}

// FindOneById tìm một document theo ID trong URI, giới hạn trong tổ chức đang hoạt động
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindOneById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.idFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		data, err := h.BaseService.FindOne(c.Context(), filter, nil)
		return h.HandleResponse(c, data, err)
	})
}

// Find tìm nhiều document theo filter, hỗ trợ sort
func (h *BaseHandler[T, CreateInput, UpdateInput]) Find(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.scopedFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		opts := mongoopts.Find()
		if sort := ParseSort(c); sort != nil {
			opts.SetSort(sort)
		}
		data, err := h.BaseService.Find(c.Context(), filter, opts)
		return h.HandleResponse(c, data, err)
	})
}

// FindWithPagination tìm nhiều document với phân trang (page, limit, sort)
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindWithPagination(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.scopedFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		page, limit := ParsePagination(c)
		opts := mongoopts.Find()
		if sort := ParseSort(c); sort != nil {
			opts.SetSort(sort)
		} else {
			opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
		}
		data, err := h.BaseService.FindWithPagination(c.Context(), filter, page, limit, opts)
		return h.HandleResponse(c, data, err)
	})
}

// UpdateById cập nhật document theo ID với UpdateInput (chỉ các field gửi lên)
func (h *BaseHandler[T, CreateInput, UpdateInput]) UpdateById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.idFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}

		var input UpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}
		update, err := utility.ToMap(input)
		if err != nil {
			return h.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if h.OrgField != "" {
			delete(update, h.OrgField)
		}
		if len(update) == 0 {
			return h.HandleResponse(c, nil, common.NewValidationError("Không có trường nào để cập nhật", nil))
		}

		data, err := h.BaseService.UpdateOne(c.Context(), filter, bson.M{"$set": update}, nil)
		return h.HandleResponse(c, data, err)
	})
}

// DeleteById xóa document theo ID
func (h *BaseHandler[T, CreateInput, UpdateInput]) DeleteById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.idFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		return h.HandleResponse(c, nil, h.BaseService.DeleteOne(c.Context(), filter))
	})
}

// CountDocuments đếm số document theo filter
func (h *BaseHandler[T, CreateInput, UpdateInput]) CountDocuments(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.scopedFilter(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		count, err := h.BaseService.CountDocuments(c.Context(), filter)
		return h.HandleResponse(c, basemodels.CountResult{TotalCount: count}, err)
	})
}

// FindScopedById dùng cho domain handler: tìm theo id trong tổ chức đang hoạt động
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindScopedById(ctx context.Context, c fiber.Ctx, id primitive.ObjectID) (T, error) {
	filter, err := h.applyOrganizationFilter(c, bson.M{"_id": id})
	if err != nil {
		var zero T
		return zero, err
	}
	return h.BaseService.FindOne(ctx, filter, nil)
}

func (h *BaseHandler[T, CreateInput, UpdateInput]) scopedFilter(c fiber.Ctx) (bson.M, error) {
	filter, err := h.ProcessFilter(c)
	if err != nil {
		return nil, err
	}
	return h.applyOrganizationFilter(c, filter)
}

func (h *BaseHandler[T, CreateInput, UpdateInput]) idFilter(c fiber.Ctx) (bson.M, error) {
	id, err := ParseObjectIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	return h.applyOrganizationFilter(c, bson.M{"_id": id})
}
