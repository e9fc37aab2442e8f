// Package router đăng ký các route thuộc domain campaign.
package router

import (
	"github.com/gofiber/fiber/v3"

	camphdl "incentive_hub/internal/api/campaign/handler"
	campsvc "incentive_hub/internal/api/campaign/service"
	"incentive_hub/internal/api/middleware"
	apirouter "incentive_hub/internal/api/router"
)

// Routes trả về hàm đăng ký route chiến dịch dùng service đã khởi tạo sẵn
// (worker và event handler dùng chung service này).
func Routes(svc *campsvc.CampaignService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := camphdl.NewCampaignHandler(svc)

		orgContext := middleware.OrganizationContextMiddleware(true)
		read := []fiber.Handler{middleware.AuthMiddleware(middleware.PermCampaignRead), orgContext}
		insert := []fiber.Handler{middleware.AuthMiddleware(middleware.PermCampaignInsert), orgContext}
		update := []fiber.Handler{middleware.AuthMiddleware(middleware.PermCampaignUpdate), orgContext}
		del := []fiber.Handler{middleware.AuthMiddleware(middleware.PermCampaignDelete), orgContext}
		board := []fiber.Handler{middleware.AuthMiddleware(middleware.PermLeaderboardRead), orgContext}
		self := []fiber.Handler{middleware.AuthMiddleware(middleware.PermSelfRead), orgContext}

		const prefix = "/campaigns"
		// Route CRUD chung đăng ký trước để /find, /count... không bị /:id bắt
		r.RegisterCRUDRoutes(v1, prefix, h, apirouter.ReadOnlyConfig, "Campaign")

		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/", read, h.HandleList)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/", insert, h.HandleCreate)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/:id", read, h.HandleGet)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPut, "/:id", update, h.HandleUpdate)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodDelete, "/:id", del, h.HandleDelete)

		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/distribution/preview", read, h.HandlePreviewDistribution)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/distribution", update, h.HandleDistribute)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPut, "/:id/distribution/custom", update, h.HandleCustomDistribution)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/distribution/auto-balance", update, h.HandleAutoBalance)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/targets/upload", update, h.HandleUploadTargets)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/:id/targets/template", read, h.HandleTargetTemplate)

		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/activate", update, h.HandleActivate)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/cancel", update, h.HandleCancel)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodPost, "/:id/complete", update, h.HandleComplete)

		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/:id/leaderboard", board, h.HandleLeaderboard)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/:id/leaderboard/export", read, h.HandleExportLeaderboard)
		apirouter.RegisterRouteWithMiddleware(v1, prefix, fiber.MethodGet, "/:id/me", self, h.HandleMyProgress)
		apirouter.RegisterRouteWithMiddleware(v1, "/me", fiber.MethodGet, "/campaigns", self, h.HandleMyCampaigns)
		return nil
	}
}
