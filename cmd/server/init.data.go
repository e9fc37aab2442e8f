package main

import (
	"context"
	"strings"
	"time"

	"incentive_hub/internal/global"
	"incentive_hub/internal/logger"
)

// orgCode mã tổ chức suy ra từ tên: chữ in hoa, khoảng trắng thành "_"
func orgCode(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

// InitDefaultData tạo tổ chức mặc định và admin đầu tiên khi INIT_ADMIN_PHONE được cấu hình
func InitDefaultData(svcs *services) {
	log := logger.GetAppLogger()
	cfg := global.MongoDB_ServerConfig
	if cfg.InitAdminPhone == "" {
		log.Info("🔄 [INIT] INIT_ADMIN_PHONE trống, bỏ qua dữ liệu khởi tạo")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info("🔄 [INIT] Step 1: Initializing default organization...")
	org, err := svcs.organizations.EnsureOrganization(ctx, cfg.InitOrgName, orgCode(cfg.InitOrgName))
	if err != nil {
		log.Fatalf("Failed to initialize default organization: %v", err)
	}
	log.WithField("organization_id", org.ID.Hex()).Info("✅ [INIT] Step 1: Default organization ready")

	log.Info("🔄 [INIT] Step 2: Initializing admin user...")
	admin, created, err := svcs.users.EnsureAdmin(ctx, org.ID, cfg.InitAdminPhone, "Administrator")
	if err != nil {
		log.Fatalf("Failed to initialize admin user: %v", err)
	}
	log.WithFields(map[string]interface{}{
		"user_id": admin.ID.Hex(),
		"created": created,
	}).Info("✅ [INIT] Step 2: Admin user ready")
}
