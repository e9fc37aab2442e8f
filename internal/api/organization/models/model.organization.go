// Package models - model tổ chức (Organization): cây phân cấp, SKU, chức danh, branding.
package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"incentive_hub/internal/hierarchy"
)

// Loại chỉ tiêu của SKU
const (
	TargetTypeVolume = "volume" // Sản lượng
	TargetTypeValue  = "value"  // Doanh số
)

// SKU sản phẩm dùng để đặt chỉ tiêu. Code là tên cột trong file CSV chỉ tiêu nên duy nhất trong tổ chức.
type SKU struct {
	ID                string `json:"id" bson:"id"`
	Code              string `json:"code" bson:"code"`
	Name              string `json:"name" bson:"name"`
	Category          string `json:"category,omitempty" bson:"category,omitempty"`
	Unit              string `json:"unit,omitempty" bson:"unit,omitempty"`
	DefaultTargetType string `json:"defaultTargetType,omitempty" bson:"defaultTargetType,omitempty"`
	IsActive          bool   `json:"isActive" bson:"isActive"`
}

// Designation chức danh nhân viên (dùng để lọc đối tượng tham gia chiến dịch)
type Designation struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Branding giao diện riêng của tổ chức (chỉ lưu giá trị, không xử lý file)
type Branding struct {
	LogoURL        string `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty" bson:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty" bson:"secondaryColor,omitempty"`
}

// Organization tài liệu tổ chức, các cấu hình lồng nhau được lưu nguyên dạng
type Organization struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Code            string             `json:"code" bson:"code" index:"unique"`
	HierarchyLevels []hierarchy.Level  `json:"hierarchyLevels" bson:"hierarchyLevels"`
	Designations    []Designation      `json:"designations" bson:"designations"`
	SKUs            []SKU              `json:"skus" bson:"skus"`
	Branding        Branding           `json:"branding" bson:"branding"`
	IsActive        bool               `json:"isActive" bson:"isActive" index:"single"`
	CreatedAt       int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt       int64              `json:"updatedAt" bson:"updatedAt"`
}

// Empty tổ chức rỗng với 4 cấp mặc định, dùng khi chưa có tài liệu
func Empty(id primitive.ObjectID) *Organization {
	org := &Organization{ID: id}
	org.Normalize()
	return org
}

// Normalize bổ sung giá trị mặc định cho các field chưa có
func (o *Organization) Normalize() {
	if len(o.HierarchyLevels) == 0 {
		o.HierarchyLevels = hierarchy.DefaultLevels()
	}
	for i := range o.HierarchyLevels {
		if o.HierarchyLevels[i].Items == nil {
			o.HierarchyLevels[i].Items = []hierarchy.Item{}
		}
	}
	if o.Designations == nil {
		o.Designations = []Designation{}
	}
	if o.SKUs == nil {
		o.SKUs = []SKU{}
	}
}

// FindSKU tìm SKU theo id
func (o *Organization) FindSKU(id string) (SKU, bool) {
	for _, s := range o.SKUs {
		if s.ID == id {
			return s, true
		}
	}
	return SKU{}, false
}

// FindSKUByCode tìm SKU theo mã, không phân biệt hoa thường
func (o *Organization) FindSKUByCode(code string) (SKU, bool) {
	for _, s := range o.SKUs {
		if strings.EqualFold(s.Code, code) {
			return s, true
		}
	}
	return SKU{}, false
}

// HasDesignation kiểm tra chức danh theo tên
func (o *Organization) HasDesignation(name string) bool {
	for _, d := range o.Designations {
		if strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}
