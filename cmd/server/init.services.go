package main

import (
	"github.com/sirupsen/logrus"

	authsvc "incentive_hub/internal/api/auth/service"
	campsvc "incentive_hub/internal/api/campaign/service"
	"incentive_hub/internal/api/events"
	"incentive_hub/internal/api/middleware"
	orgsvc "incentive_hub/internal/api/organization/service"
	perfsvc "incentive_hub/internal/api/performance/service"
	"incentive_hub/internal/global"
	"incentive_hub/internal/notification"
)

// services các service dùng chung giữa route, worker và dữ liệu khởi tạo
type services struct {
	organizations *orgsvc.OrganizationService
	users         *authsvc.UserService
	performances  *perfsvc.PerformanceService
	campaigns     *campsvc.CampaignService
}

// InitServices tạo service theo thứ tự phụ thuộc và đăng ký các hook dùng chung
func InitServices() *services {
	orgService, err := orgsvc.NewOrganizationService()
	if err != nil {
		logrus.Fatalf("Failed to create organization service: %v", err)
	}
	userService, err := authsvc.NewUserService()
	if err != nil {
		logrus.Fatalf("Failed to create user service: %v", err)
	}
	perfService, err := perfsvc.NewPerformanceService()
	if err != nil {
		logrus.Fatalf("Failed to create performance service: %v", err)
	}

	mailer := notification.NewMailer(global.MongoDB_ServerConfig)
	deps := campsvc.Dependencies{
		Organizations: orgService,
		Users:         userService,
		Achievements:  perfService,
	}
	if mailer.Enabled() {
		deps.Notifier = mailer
	}
	campService, err := campsvc.NewCampaignService(deps)
	if err != nil {
		logrus.Fatalf("Failed to create campaign service: %v", err)
	}

	// Kết quả chỉ ghi được khi chiến dịch đang chạy
	perfService.BindCampaigns(campService)
	middleware.InitAuth(userService)
	events.OnDataChanged(campService.HandleDataChanged)

	logrus.WithField("mail", mailer.Enabled()).Info("Initialized services")
	return &services{
		organizations: orgService,
		users:         userService,
		performances:  perfService,
		campaigns:     campService,
	}
}
