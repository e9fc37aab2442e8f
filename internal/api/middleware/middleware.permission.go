package middleware

import (
	authmodels "incentive_hub/internal/api/auth/models"
)

// Tên quyền dùng trong AuthMiddleware
const (
	PermOrganizationManage = "Organization.Manage" // Quản lý nhiều tổ chức (system admin)
	PermOrganizationRead   = "Organization.Read"
	PermOrganizationUpdate = "Organization.Update"

	PermUserRead   = "User.Read"
	PermUserInsert = "User.Insert"
	PermUserUpdate = "User.Update"
	PermUserDelete = "User.Delete"

	PermCampaignRead   = "Campaign.Read"
	PermCampaignInsert = "Campaign.Insert"
	PermCampaignUpdate = "Campaign.Update"
	PermCampaignDelete = "Campaign.Delete"

	PermLeaderboardRead = "Leaderboard.Read"

	PermPerformanceRead   = "Performance.Read"
	PermPerformanceUpdate = "Performance.Update"

	PermSelfRead = "Self.Read" // Xem chiến dịch / kết quả của chính mình
)

var adminPermissions = []string{
	PermOrganizationRead, PermOrganizationUpdate,
	PermUserRead, PermUserInsert, PermUserUpdate, PermUserDelete,
	PermCampaignRead, PermCampaignInsert, PermCampaignUpdate, PermCampaignDelete,
	PermLeaderboardRead,
	PermPerformanceRead, PermPerformanceUpdate,
	PermSelfRead,
}

// rolePermissions bảng quyền tĩnh theo vai trò
var rolePermissions = map[string]map[string]bool{
	authmodels.RoleSystemAdmin: toSet(append([]string{PermOrganizationManage}, adminPermissions...)),
	authmodels.RoleAdmin:       toSet(adminPermissions),
	authmodels.RoleEmployee:    toSet([]string{PermOrganizationRead, PermLeaderboardRead, PermSelfRead}),
}

func toSet(perms []string) map[string]bool {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// HasPermission kiểm tra vai trò có quyền. Quyền rỗng = chỉ cần đăng nhập.
func HasPermission(role, permission string) bool {
	if permission == "" {
		return true
	}
	return rolePermissions[role][permission]
}
