// Package router đăng ký các route thuộc domain organization.
package router

import (
	"github.com/gofiber/fiber/v3"

	"incentive_hub/internal/api/middleware"
	orghdl "incentive_hub/internal/api/organization/handler"
	orgsvc "incentive_hub/internal/api/organization/service"
	apirouter "incentive_hub/internal/api/router"
)

// Routes đăng ký route tổ chức hiện tại (/organization) và quản lý tổ chức (/organizations).
func Routes(svc *orgsvc.OrganizationService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, _ *apirouter.Router) error {
		return register(v1, orghdl.NewOrganizationHandler(svc))
	}
}

func register(v1 fiber.Router, h *orghdl.OrganizationHandler) error {
	orgContext := middleware.OrganizationContextMiddleware(true)
	read := []fiber.Handler{middleware.AuthMiddleware(middleware.PermOrganizationRead), orgContext}
	update := []fiber.Handler{middleware.AuthMiddleware(middleware.PermOrganizationUpdate), orgContext}

	const current = "/organization"
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodGet, "/", read, h.HandleGetCurrent)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodGet, "/hierarchy", read, h.HandleGetHierarchy)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodPut, "/hierarchy", update, h.HandlePutHierarchy)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodGet, "/hierarchy/tree", read, h.HandleGetTree)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodPost, "/hierarchy/import", update, h.HandleImportHierarchy)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodGet, "/hierarchy/export", read, h.HandleExportHierarchy)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodGet, "/skus", read, h.HandleListSKUs)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodPut, "/skus", update, h.HandleSaveSKU)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodDelete, "/skus/:skuId", update, h.HandleDeleteSKU)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodGet, "/designations", read, h.HandleListDesignations)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodPut, "/designations", update, h.HandleSaveDesignation)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodDelete, "/designations/:designationId", update, h.HandleDeleteDesignation)
	apirouter.RegisterRouteWithMiddleware(v1, current, fiber.MethodPut, "/branding", update, h.HandleUpdateBranding)

	// System admin: không cần tổ chức làm việc
	manage := []fiber.Handler{middleware.AuthMiddleware(middleware.PermOrganizationManage)}
	apirouter.RegisterRouteWithMiddleware(v1, "/organizations", fiber.MethodGet, "/", manage, h.HandleListOrganizations)
	apirouter.RegisterRouteWithMiddleware(v1, "/organizations", fiber.MethodPost, "/", manage, h.HandleCreateOrganization)
	apirouter.RegisterRouteWithMiddleware(v1, "/organizations", fiber.MethodGet, "/:id", manage, h.HandleGetOrganization)
	apirouter.RegisterRouteWithMiddleware(v1, "/organizations", fiber.MethodPut, "/:id", manage, h.HandleUpdateOrganization)
	return nil
}
