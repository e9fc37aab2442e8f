// Package models - model người dùng (User) và phiên đăng nhập (Session) thuộc domain auth.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các vai trò người dùng
const (
	RoleSystemAdmin = "system_admin" // Quản trị toàn hệ thống: quản lý nhiều tổ chức
	RoleAdmin       = "admin"        // Quản trị tổ chức: cây phân cấp, SKU, chiến dịch
	RoleEmployee    = "employee"     // Nhân viên: xem chỉ tiêu, kết quả, xếp hạng
)

// User định nghĩa mô hình người dùng.
// RegionHierarchy là đường đi id node từ Region xuống node thấp nhất mà user thuộc về.
// Token chứa token phiên mới nhất; đăng nhập lại sẽ vô hiệu token cũ.
type User struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name" index:"text"`
	Phone           string             `json:"phone,omitempty" bson:"phone,omitempty" index:"unique,sparse"`
	Email           string             `json:"email,omitempty" bson:"email,omitempty"`
	FirebaseUID     string             `json:"firebaseUid,omitempty" bson:"firebaseUid,omitempty" index:"unique,sparse"`
	Role            string             `json:"role" bson:"role" index:"compound:org_role"`
	OrganizationID  primitive.ObjectID `json:"organizationId" bson:"organizationId" index:"single;compound:org_role"`
	RegionHierarchy []string           `json:"regionHierarchy" bson:"regionHierarchy"`
	Designation     string             `json:"designation,omitempty" bson:"designation,omitempty"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	Token           string             `json:"-" bson:"token,omitempty"`
	LastLoginAt     int64              `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt       int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt       int64              `json:"updatedAt" bson:"updatedAt"`
}

// SetOrganizationID gán tổ chức cho user (BaseHandler gọi khi tạo mới)
func (u *User) SetOrganizationID(id primitive.ObjectID) {
	u.OrganizationID = id
}

// IsAdmin cho biết user có quyền quản trị tổ chức
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSystemAdmin
}

// LeafNodeID node thấp nhất user thuộc về ("" nếu chưa gán)
func (u *User) LeafNodeID() string {
	if len(u.RegionHierarchy) == 0 {
		return ""
	}
	return u.RegionHierarchy[len(u.RegionHierarchy)-1]
}

// BelongsTo cho biết user thuộc node (ở bất kỳ cấp nào trên đường đi)
func (u *User) BelongsTo(nodeID string) bool {
	for _, id := range u.RegionHierarchy {
		if id == nodeID {
			return true
		}
	}
	return false
}
