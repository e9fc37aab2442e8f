// Package orgdto chứa DTO cho domain organization.
package orgdto

import (
	orgmodels "incentive_hub/internal/api/organization/models"
	"incentive_hub/internal/hierarchy"
)

// OrganizationCreateInput dữ liệu tạo tổ chức (system admin)
type OrganizationCreateInput struct {
	Name string `json:"name" bson:"name" validate:"required,max=200,no_xss"`
	Code string `json:"code" bson:"code" validate:"required,sku_code"`
}

// OrganizationUpdateInput dữ liệu cập nhật tổ chức (system admin)
type OrganizationUpdateInput struct {
	Name     string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=200,no_xss"`
	IsActive *bool  `json:"isActive,omitempty" bson:"isActive,omitempty"`
}

// HierarchyInput thay toàn bộ cây phân cấp
type HierarchyInput struct {
	Levels []hierarchy.Level `json:"levels" validate:"required,min=1,max=4,dive"`
}

// SKUInput tạo mới (ID rỗng) hoặc cập nhật SKU
type SKUInput struct {
	ID                string `json:"id,omitempty"`
	Code              string `json:"code" validate:"required,sku_code"`
	Name              string `json:"name" validate:"required,max=200,no_xss"`
	Category          string `json:"category,omitempty" validate:"max=100,no_xss"`
	Unit              string `json:"unit,omitempty" validate:"max=50"`
	DefaultTargetType string `json:"defaultTargetType,omitempty" validate:"omitempty,oneof=volume value"`
	IsActive          *bool  `json:"isActive,omitempty"`
}

// DesignationInput tạo mới (ID rỗng) hoặc cập nhật chức danh
type DesignationInput struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=100,no_xss"`
	Description string `json:"description,omitempty" validate:"max=500,no_xss"`
}

// BrandingInput giá trị branding
type BrandingInput struct {
	LogoURL        string `json:"logoUrl,omitempty" validate:"omitempty,url"`
	PrimaryColor   string `json:"primaryColor,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondaryColor,omitempty" validate:"omitempty,hexcolor"`
}

// ToBranding chuyển input sang model
func (in *BrandingInput) ToBranding() orgmodels.Branding {
	return orgmodels.Branding{
		LogoURL:        in.LogoURL,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
	}
}

// HierarchyView cây phân cấp trả về cho client: dạng phẳng và dạng cây
type HierarchyView struct {
	Levels []hierarchy.Level `json:"levels"`
	Tree   []*hierarchy.Node `json:"tree,omitempty"`
	Nodes  int               `json:"nodes"`
}
