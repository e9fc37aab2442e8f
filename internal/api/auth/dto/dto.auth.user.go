// Package authdto chứa DTO cho domain auth (đăng nhập, quản lý người dùng).
package authdto

import (
	authmodels "incentive_hub/internal/api/auth/models"
)

// FirebaseLoginInput dữ liệu đăng nhập bằng Firebase ID token (client đã xác thực OTP số điện thoại)
type FirebaseLoginInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

// LoginResult kết quả đăng nhập: token phiên + hồ sơ người dùng
type LoginResult struct {
	Token   string              `json:"token"`
	Session *authmodels.Session `json:"session"`
	User    *authmodels.User    `json:"user"`
}

// SessionInfo thông tin phiên hiện tại
type SessionInfo struct {
	Session          *authmodels.Session `json:"session"`
	RemainingSeconds int64               `json:"remainingSeconds"`
}

// UserCreateInput dữ liệu tạo người dùng trong tổ chức đang hoạt động
type UserCreateInput struct {
	Name            string   `json:"name" bson:"name" validate:"required,max=200,no_xss"`
	Phone           string   `json:"phone" bson:"phone" validate:"required,max=20"`
	Email           string   `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Role            string   `json:"role" bson:"role" validate:"required,oneof=admin employee"`
	RegionHierarchy []string `json:"regionHierarchy" bson:"regionHierarchy" validate:"max=4"`
	Designation     string   `json:"designation,omitempty" bson:"designation,omitempty" validate:"max=100"`
}

// UserUpdateInput dữ liệu cập nhật người dùng (chỉ các field gửi lên)
type UserUpdateInput struct {
	Name            string   `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=200,no_xss"`
	Email           string   `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Role            string   `json:"role,omitempty" bson:"role,omitempty" validate:"omitempty,oneof=admin employee"`
	RegionHierarchy []string `json:"regionHierarchy,omitempty" bson:"regionHierarchy,omitempty" validate:"omitempty,max=4"`
	Designation     *string  `json:"designation,omitempty" bson:"designation,omitempty" validate:"omitempty,max=100"`
	IsActive        *bool    `json:"isActive,omitempty" bson:"isActive,omitempty"`
}

// UserListQuery bộ lọc danh sách người dùng
type UserListQuery struct {
	Role        string
	Designation string
	Region      string
	Search      string
	Page        int64
	Limit       int64
}
