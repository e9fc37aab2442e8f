// Package router đăng ký các route thuộc domain performance.
package router

import (
	"github.com/gofiber/fiber/v3"

	"incentive_hub/internal/api/middleware"
	perfhdl "incentive_hub/internal/api/performance/handler"
	perfsvc "incentive_hub/internal/api/performance/service"
	apirouter "incentive_hub/internal/api/router"
)

// Routes trả về hàm đăng ký route kết quả bán hàng dùng service đã khởi tạo sẵn
// (CampaignService đọc kết quả từ cùng service này).
func Routes(svc *perfsvc.PerformanceService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := perfhdl.NewPerformanceHandler(svc)

		orgContext := middleware.OrganizationContextMiddleware(true)
		read := []fiber.Handler{middleware.AuthMiddleware(middleware.PermPerformanceRead), orgContext}
		self := []fiber.Handler{middleware.AuthMiddleware(middleware.PermSelfRead), orgContext}
		update := []fiber.Handler{middleware.AuthMiddleware(middleware.PermPerformanceUpdate), orgContext}

		const prefix = "/campaigns/:id/performances"
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/", read, h.HandleList)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/:userId", self, h.HandleGet)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPut, "/:userId", update, h.HandleSetAchievements)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:userId/entries", update, h.HandleRecordEntry)
		return nil
	}
}
