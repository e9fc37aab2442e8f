// Package orgsvc - service tổ chức: cây phân cấp, SKU, chức danh, branding, quản lý tổ chức (system admin).
package orgsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "incentive_hub/internal/api/base/models"
	basesvc "incentive_hub/internal/api/base/service"
	orgdto "incentive_hub/internal/api/organization/dto"
	orgmodels "incentive_hub/internal/api/organization/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/global"
	"incentive_hub/internal/hierarchy"
	"incentive_hub/internal/logger"
)

// OrganizationService là cấu trúc chứa các phương thức liên quan đến tổ chức
type OrganizationService struct {
	basesvc.BaseServiceMongo[orgmodels.Organization]
	newID func() string
}

// NewOrganizationService tạo mới OrganizationService từ collection đã đăng ký
func NewOrganizationService() (*OrganizationService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Organizations)
	if !exist {
		return nil, fmt.Errorf("failed to get organizations collection: %v", common.ErrNotFound)
	}
	return NewOrganizationServiceWith(basesvc.NewBaseServiceMongo[orgmodels.Organization](coll)), nil
}

// NewOrganizationServiceWith tạo service với store chỉ định
func NewOrganizationServiceWith(store basesvc.BaseServiceMongo[orgmodels.Organization]) *OrganizationService {
	return &OrganizationService{BaseServiceMongo: store, newID: uuid.NewString}
}

// Current trả về tổ chức; chưa có tài liệu thì trả về tổ chức rỗng với cây mặc định
func (s *OrganizationService) Current(ctx context.Context, orgID primitive.ObjectID) (*orgmodels.Organization, error) {
	org, err := s.FindOneById(ctx, orgID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return orgmodels.Empty(orgID), nil
		}
		return nil, err
	}
	org.Normalize()
	return &org, nil
}

// load đọc tổ chức để ghi; thiếu tài liệu là lỗi
func (s *OrganizationService) load(ctx context.Context, orgID primitive.ObjectID) (*orgmodels.Organization, error) {
	org, err := s.FindOneById(ctx, orgID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrCodeDatabaseQuery, "Tổ chức không tồn tại", common.StatusNotFound, orgID.Hex())
		}
		return nil, err
	}
	org.Normalize()
	return &org, nil
}

func (s *OrganizationService) set(ctx context.Context, orgID primitive.ObjectID, fields map[string]interface{}) (*orgmodels.Organization, error) {
	updated, err := s.UpdateById(ctx, orgID, &basesvc.UpdateData{Set: fields})
	if err != nil {
		return nil, err
	}
	updated.Normalize()
	return &updated, nil
}

// ====================================
// CÂY PHÂN CẤP
// ====================================

// HierarchyView cây phân cấp dạng phẳng, kèm dạng cây nếu withTree
func (s *OrganizationService) HierarchyView(ctx context.Context, orgID primitive.ObjectID, withTree bool) (*orgdto.HierarchyView, error) {
	org, err := s.Current(ctx, orgID)
	if err != nil {
		return nil, err
	}
	view := &orgdto.HierarchyView{Levels: org.HierarchyLevels, Nodes: hierarchy.ItemCount(org.HierarchyLevels)}
	if withTree {
		view.Tree = hierarchy.BuildTree(org.HierarchyLevels)
	}
	return view, nil
}

// NormalizeLevels trim tên, bổ sung id cấp và id node còn thiếu
func NormalizeLevels(levels []hierarchy.Level, newID func() string) []hierarchy.Level {
	out := make([]hierarchy.Level, len(levels))
	for i, l := range levels {
		l.Name = strings.TrimSpace(l.Name)
		if l.ID == "" {
			l.ID = strings.ToLower(l.Name)
		}
		items := make([]hierarchy.Item, len(l.Items))
		for j, it := range l.Items {
			it.Name = strings.TrimSpace(it.Name)
			if it.ID == "" {
				it.ID = newID()
			}
			if it.Level == 0 {
				it.Level = l.Level
			}
			items[j] = it
		}
		l.Items = items
		out[i] = l
	}
	return out
}

// ReplaceHierarchy thay toàn bộ cây sau khi kiểm tra hợp lệ
func (s *OrganizationService) ReplaceHierarchy(ctx context.Context, orgID primitive.ObjectID, levels []hierarchy.Level) (*orgmodels.Organization, error) {
	levels = NormalizeLevels(levels, s.newID)
	if err := hierarchy.Validate(levels); err != nil {
		return nil, err
	}
	return s.set(ctx, orgID, map[string]interface{}{"hierarchyLevels": levels})
}

// ImportHierarchy gộp file CSV Region,Cluster,Branch,Channel vào cây hiện tại rồi lưu
func (s *OrganizationService) ImportHierarchy(ctx context.Context, orgID primitive.ObjectID, r io.Reader) (*hierarchy.ImportResult, error) {
	org, err := s.load(ctx, orgID)
	if err != nil {
		return nil, err
	}
	result, err := hierarchy.ImportCSV(r, org.HierarchyLevels)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.Validate(result.Levels); err != nil {
		return nil, err
	}
	if _, err := s.set(ctx, orgID, map[string]interface{}{"hierarchyLevels": result.Levels}); err != nil {
		return nil, err
	}
	logger.WithModule("organization").WithFields(logrus.Fields{
		"organization_id": orgID.Hex(),
		"rows":            result.Rows,
		"created":         result.Created,
		"warnings":        len(result.Warnings),
	}).Info("🌳 [HIERARCHY] Import cây phân cấp từ CSV")
	return result, nil
}

// ====================================
// SKU / CHỨC DANH / BRANDING
// ====================================

// UpsertSKU thêm hoặc cập nhật SKU trong danh sách. Mã SKU duy nhất (không phân biệt hoa thường).
func UpsertSKU(skus []orgmodels.SKU, input *orgdto.SKUInput, newID func() string) ([]orgmodels.SKU, orgmodels.SKU, error) {
	code := strings.TrimSpace(input.Code)
	for _, existing := range skus {
		if existing.ID != input.ID && strings.EqualFold(existing.Code, code) {
			return nil, orgmodels.SKU{}, common.NewError(common.ErrCodeValidationInput,
				fmt.Sprintf("Mã SKU '%s' đã tồn tại", code), common.StatusConflict, existing.ID)
		}
	}

	out := append([]orgmodels.SKU{}, skus...)
	if input.ID != "" {
		for i := range out {
			if out[i].ID != input.ID {
				continue
			}
			out[i].Code = code
			out[i].Name = strings.TrimSpace(input.Name)
			out[i].Category = input.Category
			out[i].Unit = input.Unit
			out[i].DefaultTargetType = input.DefaultTargetType
			if input.IsActive != nil {
				out[i].IsActive = *input.IsActive
			}
			return out, out[i], nil
		}
		return nil, orgmodels.SKU{}, common.NewError(common.ErrCodeDatabaseQuery, "SKU không tồn tại", common.StatusNotFound, input.ID)
	}

	sku := orgmodels.SKU{
		ID:                newID(),
		Code:              code,
		Name:              strings.TrimSpace(input.Name),
		Category:          input.Category,
		Unit:              input.Unit,
		DefaultTargetType: input.DefaultTargetType,
		IsActive:          input.IsActive == nil || *input.IsActive,
	}
	if sku.DefaultTargetType == "" {
		sku.DefaultTargetType = orgmodels.TargetTypeVolume
	}
	return append(out, sku), sku, nil
}

// RemoveSKU bỏ SKU theo id; false nếu không có
func RemoveSKU(skus []orgmodels.SKU, id string) ([]orgmodels.SKU, bool) {
	out := make([]orgmodels.SKU, 0, len(skus))
	found := false
	for _, s := range skus {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}

// UpsertDesignation thêm hoặc cập nhật chức danh, tên duy nhất
func UpsertDesignation(list []orgmodels.Designation, input *orgdto.DesignationInput, newID func() string) ([]orgmodels.Designation, orgmodels.Designation, error) {
	name := strings.TrimSpace(input.Name)
	for _, d := range list {
		if d.ID != input.ID && strings.EqualFold(d.Name, name) {
			return nil, orgmodels.Designation{}, common.NewError(common.ErrCodeValidationInput,
				fmt.Sprintf("Chức danh '%s' đã tồn tại", name), common.StatusConflict, d.ID)
		}
	}
	out := append([]orgmodels.Designation{}, list...)
	if input.ID != "" {
		for i := range out {
			if out[i].ID == input.ID {
				out[i].Name = name
				out[i].Description = input.Description
				return out, out[i], nil
			}
		}
		return nil, orgmodels.Designation{}, common.NewError(common.ErrCodeDatabaseQuery, "Chức danh không tồn tại", common.StatusNotFound, input.ID)
	}
	d := orgmodels.Designation{ID: newID(), Name: name, Description: input.Description}
	return append(out, d), d, nil
}

// RemoveDesignation bỏ chức danh theo id
func RemoveDesignation(list []orgmodels.Designation, id string) ([]orgmodels.Designation, bool) {
	out := make([]orgmodels.Designation, 0, len(list))
	found := false
	for _, d := range list {
		if d.ID == id {
			found = true
			continue
		}
		out = append(out, d)
	}
	return out, found
}

// SaveSKU thêm / cập nhật một SKU của tổ chức
func (s *OrganizationService) SaveSKU(ctx context.Context, orgID primitive.ObjectID, input *orgdto.SKUInput) (*orgmodels.SKU, error) {
	org, err := s.load(ctx, orgID)
	if err != nil {
		return nil, err
	}
	skus, sku, err := UpsertSKU(org.SKUs, input, s.newID)
	if err != nil {
		return nil, err
	}
	if _, err := s.set(ctx, orgID, map[string]interface{}{"skus": skus}); err != nil {
		return nil, err
	}
	return &sku, nil
}

// DeleteSKU xoá SKU. Chiến dịch đã tham chiếu SKU vẫn giữ skuId của mình.
func (s *OrganizationService) DeleteSKU(ctx context.Context, orgID primitive.ObjectID, id string) error {
	org, err := s.load(ctx, orgID)
	if err != nil {
		return err
	}
	skus, found := RemoveSKU(org.SKUs, id)
	if !found {
		return common.NewError(common.ErrCodeDatabaseQuery, "SKU không tồn tại", common.StatusNotFound, id)
	}
	_, err = s.set(ctx, orgID, map[string]interface{}{"skus": skus})
	return err
}

// SaveDesignation thêm / cập nhật chức danh
func (s *OrganizationService) SaveDesignation(ctx context.Context, orgID primitive.ObjectID, input *orgdto.DesignationInput) (*orgmodels.Designation, error) {
	org, err := s.load(ctx, orgID)
	if err != nil {
		return nil, err
	}
	list, d, err := UpsertDesignation(org.Designations, input, s.newID)
	if err != nil {
		return nil, err
	}
	if _, err := s.set(ctx, orgID, map[string]interface{}{"designations": list}); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDesignation xoá chức danh
func (s *OrganizationService) DeleteDesignation(ctx context.Context, orgID primitive.ObjectID, id string) error {
	org, err := s.load(ctx, orgID)
	if err != nil {
		return err
	}
	list, found := RemoveDesignation(org.Designations, id)
	if !found {
		return common.NewError(common.ErrCodeDatabaseQuery, "Chức danh không tồn tại", common.StatusNotFound, id)
	}
	_, err = s.set(ctx, orgID, map[string]interface{}{"designations": list})
	return err
}

// UpdateBranding ghi đè giá trị branding
func (s *OrganizationService) UpdateBranding(ctx context.Context, orgID primitive.ObjectID, input *orgdto.BrandingInput) (*orgmodels.Organization, error) {
	return s.set(ctx, orgID, map[string]interface{}{"branding": input.ToBranding()})
}

// ====================================
// QUẢN LÝ TỔ CHỨC (SYSTEM ADMIN)
// ====================================

// CreateOrganization tạo tổ chức với cây 4 cấp rỗng
func (s *OrganizationService) CreateOrganization(ctx context.Context, input *orgdto.OrganizationCreateInput) (*orgmodels.Organization, error) {
	org := orgmodels.Empty(primitive.NilObjectID)
	org.Name = strings.TrimSpace(input.Name)
	org.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	org.IsActive = true
	created, err := s.InsertOne(ctx, *org)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EnsureOrganization trả về tổ chức theo mã, tạo mới nếu chưa có (dùng khi khởi tạo dữ liệu)
func (s *OrganizationService) EnsureOrganization(ctx context.Context, name, code string) (*orgmodels.Organization, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	org, err := s.FindOne(ctx, bson.M{"code": code}, nil)
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return s.CreateOrganization(ctx, &orgdto.OrganizationCreateInput{Name: name, Code: code})
}

// ListOrganizations danh sách tổ chức phân trang, sắp theo tên
func (s *OrganizationService) ListOrganizations(ctx context.Context, page, limit int64) (*basemodels.PaginateResult[orgmodels.Organization], error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return s.FindWithPagination(ctx, bson.M{}, page, limit, opts)
}

// UpdateOrganization cập nhật tên / trạng thái
func (s *OrganizationService) UpdateOrganization(ctx context.Context, id primitive.ObjectID, input *orgdto.OrganizationUpdateInput) (*orgmodels.Organization, error) {
	fields := map[string]interface{}{}
	if input.Name != "" {
		fields["name"] = strings.TrimSpace(input.Name)
	}
	if input.IsActive != nil {
		fields["isActive"] = *input.IsActive
	}
	if len(fields) == 0 {
		return s.load(ctx, id)
	}
	return s.set(ctx, id, fields)
}
