// Package basehdl cung cấp BaseHandler generic và các helper parse/validate/response dùng chung cho các domain handler.
package basehdl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "incentive_hub/internal/api/base/service"
	"incentive_hub/internal/common"
	"incentive_hub/internal/global"
	"incentive_hub/internal/utility"
)

// FilterOptions cấu hình cho việc validate filter
type FilterOptions struct {
	DeniedFields     []string // Các trường bị cấm filter
	AllowedOperators []string // Các operator MongoDB được phép
	MaxFields        int      // Số lượng field tối đa trong một filter
}

// DefaultFilterOptions cấu hình filter mặc định
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		DeniedFields:     []string{"token", "secret", "password", "hash"},
		AllowedOperators: []string{"$eq", "$ne", "$gt", "$gte", "$lt", "$lte", "$in", "$nin", "$exists"},
		MaxFields:        10,
	}
}

// OrganizationScoped được implement bởi model thuộc về một tổ chức.
// BaseHandler gán tổ chức đang hoạt động khi tạo mới.
type OrganizationScoped interface {
	SetOrganizationID(id primitive.ObjectID)
}

// BaseHandler là base handler cho các Fiber handler, cung cấp các chức năng CRUD cơ bản.
//
// Type parameters:
// - T: Kiểu dữ liệu của model
// - CreateInput: Kiểu dữ liệu của input khi tạo mới
// - UpdateInput: Kiểu dữ liệu của input khi cập nhật
type BaseHandler[T any, CreateInput any, UpdateInput any] struct {
	BaseService   basesvc.BaseServiceMongo[T] // Service xử lý logic nghiệp vụ với MongoDB
	OrgField      string                      // Tên field bson chứa organizationId; rỗng = không phân quyền theo tổ chức
	filterOptions FilterOptions               // Cấu hình validate filter
}

// NewBaseHandler tạo mới một BaseHandler với BaseService được cung cấp
func NewBaseHandler[T any, CreateInput any, UpdateInput any](baseService basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput, UpdateInput] {
	return &BaseHandler[T, CreateInput, UpdateInput]{
		BaseService:   baseService,
		filterOptions: DefaultFilterOptions(),
	}
}

// ParseRequestBody parse body JSON (UseNumber) và validate theo struct tag
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseRequestBody(c fiber.Ctx, input interface{}) error {
	return ParseBody(c, input)
}

// ParseBody parse body JSON bằng json.Decoder.UseNumber() rồi validate bằng global.Validate
func ParseBody(c fiber.Ctx, input interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(c.Body()))
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
			common.StatusBadRequest,
			nil,
		)
	}
	return ValidateInput(input)
}

// ValidateInput validate struct bằng global.Validate, lỗi trả về VAL_001 kèm danh sách field
func ValidateInput(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		return common.NewValidationError(common.MsgValidationError, err.Error())
	}
	return nil
}

// ParseObjectIDParam lấy ObjectID từ URI params
func ParseObjectIDParam(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	id := c.Params(name)
	if id == "" {
		return primitive.NilObjectID, common.NewError(common.ErrCodeValidationFormat,
			fmt.Sprintf("%s không được để trống trong URL params", name), common.StatusBadRequest, nil)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, common.NewError(common.ErrCodeValidationFormat,
			fmt.Sprintf("ID '%s' không đúng định dạng MongoDB ObjectID (phải là chuỗi hex 24 ký tự)", id), common.StatusBadRequest, nil)
	}
	return oid, nil
}

// ParsePagination đọc page/limit từ query string
func ParsePagination(c fiber.Ctx) (int64, int64) {
	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 10
	}
	return page, limit
}

// ActiveOrganizationID lấy tổ chức đang hoạt động do middleware gán vào Locals
func ActiveOrganizationID(c fiber.Ctx) *primitive.ObjectID {
	orgIDStr, ok := c.Locals("active_organization_id").(string)
	if !ok || orgIDStr == "" {
		return nil
	}
	oid := utility.String2ObjectID(orgIDStr)
	if oid.IsZero() {
		return nil
	}
	return &oid
}

// RequireOrganization trả về tổ chức đang hoạt động hoặc ErrNoOrganization
func RequireOrganization(c fiber.Ctx) (primitive.ObjectID, error) {
	orgID := ActiveOrganizationID(c)
	if orgID == nil {
		return primitive.NilObjectID, common.ErrNoOrganization
	}
	return *orgID, nil
}

// CurrentUserID lấy user id do AuthMiddleware gán
func CurrentUserID(c fiber.Ctx) primitive.ObjectID {
	uid, _ := c.Locals("user_id").(string)
	return utility.String2ObjectID(uid)
}

// CurrentRole lấy role do AuthMiddleware gán
func CurrentRole(c fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}

// ProcessFilter parse filter JSON từ query, chuẩn hoá *Id → ObjectID và validate
func (h *BaseHandler[T, CreateInput, UpdateInput]) ProcessFilter(c fiber.Ctx) (bson.M, error) {
	var filter map[string]interface{}
	filterStr := c.Query("filter", "{}")
	if err := json.Unmarshal([]byte(filterStr), &filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter không đúng định dạng JSON. Chi tiết lỗi: %v. Giá trị filter nhận được: %s", err, filterStr),
			common.StatusBadRequest,
			nil,
		)
	}
	filter = normalizeFilter(filter)
	if err := h.validateFilter(filter); err != nil {
		return nil, err
	}
	return bson.M(filter), nil
}

// normalizeFilter chuyển string ObjectId thành ObjectID với field kết thúc bằng "Id"
func normalizeFilter(filter map[string]interface{}) map[string]interface{} {
	if filter == nil {
		return map[string]interface{}{}
	}
	normalized := make(map[string]interface{}, len(filter))
	for field, value := range filter {
		lower := strings.ToLower(field)
		isIDField := lower == "_id" || (strings.HasSuffix(lower, "id") && len(lower) > 2)
		normalized[field] = normalizeFilterValue(value, isIDField)
	}
	return normalized
}

func normalizeFilterValue(value interface{}, isIDField bool) interface{} {
	switch v := value.(type) {
	case string:
		if isIDField && primitive.IsValidObjectID(v) {
			oid, _ := primitive.ObjectIDFromHex(v)
			return oid
		}
		return v
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeFilterValue(item, isIDField)
		}
		return out
	case map[string]interface{}:
		// Extended JSON {"$oid": "..."}
		if oidStr, ok := v["$oid"].(string); ok {
			if oid, err := primitive.ObjectIDFromHex(oidStr); err == nil {
				return oid
			}
			return v
		}
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = normalizeFilterValue(val, isIDField)
		}
		return out
	}
	return value
}

// validateFilter kiểm tra số field, field bị cấm và operator
func (h *BaseHandler[T, CreateInput, UpdateInput]) validateFilter(filter map[string]interface{}) error {
	opts := h.filterOptions
	if opts.MaxFields == 0 {
		opts = DefaultFilterOptions()
	}

	if len(filter) > opts.MaxFields {
		return common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter vượt quá số lượng trường cho phép. Tối đa %d trường, hiện tại có %d trường.", opts.MaxFields, len(filter)),
			common.StatusBadRequest,
			nil,
		)
	}

	for field, value := range filter {
		if utility.Contains(opts.DeniedFields, strings.ToLower(field)) || strings.HasPrefix(field, "$") {
			return common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Trường '%s' không được phép sử dụng trong filter.", field),
				common.StatusBadRequest,
				nil,
			)
		}
		if mapValue, ok := value.(map[string]interface{}); ok {
			for op := range mapValue {
				if strings.HasPrefix(op, "$") && !utility.Contains(opts.AllowedOperators, op) {
					return common.NewError(
						common.ErrCodeValidationFormat,
						fmt.Sprintf("Toán tử MongoDB '%s' không được phép sử dụng. Các toán tử được phép: %v", op, opts.AllowedOperators),
						common.StatusBadRequest,
						nil,
					)
				}
			}
		}
	}
	return nil
}

// applyOrganizationFilter ép filter theo tổ chức đang hoạt động (ghi đè giá trị client gửi)
func (h *BaseHandler[T, CreateInput, UpdateInput]) applyOrganizationFilter(c fiber.Ctx, filter bson.M) (bson.M, error) {
	if h.OrgField == "" {
		return filter, nil
	}
	orgID, err := RequireOrganization(c)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = bson.M{}
	}
	filter[h.OrgField] = orgID
	return filter, nil
}

// ParseSort đọc tham số sort dạng "field" hoặc "-field"
func ParseSort(c fiber.Ctx, allowed ...string) bson.D {
	sortStr := strings.TrimSpace(c.Query("sort"))
	if sortStr == "" {
		return nil
	}
	dir := 1
	if strings.HasPrefix(sortStr, "-") {
		dir = -1
		sortStr = sortStr[1:]
	}
	if len(allowed) > 0 && !utility.Contains(allowed, sortStr) {
		return nil
	}
	return bson.D{{Key: sortStr, Value: dir}}
}
