// Package router đăng ký các route thuộc domain auth: System, Auth, Users.
package router

import (
	"github.com/gofiber/fiber/v3"

	authhdl "incentive_hub/internal/api/auth/handler"
	authsvc "incentive_hub/internal/api/auth/service"
	basehdl "incentive_hub/internal/api/base/handler"
	"incentive_hub/internal/api/middleware"
	apirouter "incentive_hub/internal/api/router"
	"incentive_hub/internal/global"
)

// Routes đăng ký tất cả route auth (system, auth, users) lên v1.
// userService cũng là SessionResolver của middleware nên được tạo một lần ở main.
func Routes(userService *authsvc.UserService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		userHandler := authhdl.NewUserHandler(userService)

		registerSystemRoutes(v1)
		registerAuthRoutes(v1, userHandler)
		registerUserRoutes(v1, r, userHandler)
		return nil
	}
}

func registerSystemRoutes(router fiber.Router) {
	systemHandler := basehdl.NewSystemHandler(global.MongoDB_Session)
	router.Get("/system/health", systemHandler.HandleHealth)
}

func registerAuthRoutes(router fiber.Router, userHandler *authhdl.UserHandler) {
	router.Post("/auth/login/firebase", userHandler.HandleLoginWithFirebase)
	authOnly := []fiber.Handler{middleware.AuthMiddleware("")}
	apirouter.RegisterRouteWithMiddleware(router, "/auth", fiber.MethodPost, "/logout", authOnly, userHandler.HandleLogout)
	apirouter.RegisterRouteWithMiddleware(router, "/auth", fiber.MethodGet, "/session", authOnly, userHandler.HandleGetSession)
	apirouter.RegisterRouteWithMiddleware(router, "/auth", fiber.MethodGet, "/profile", authOnly, userHandler.HandleGetProfile)
}

func registerUserRoutes(router fiber.Router, r *apirouter.Router, userHandler *authhdl.UserHandler) {
	orgContext := middleware.OrganizationContextMiddleware(true)
	read := []fiber.Handler{middleware.AuthMiddleware(middleware.PermUserRead), orgContext}
	update := []fiber.Handler{middleware.AuthMiddleware(middleware.PermUserUpdate), orgContext}

	apirouter.RegisterRouteWithMiddleware(router, "/users", fiber.MethodGet, "/", read, userHandler.HandleListUsers)
	apirouter.RegisterRouteWithMiddleware(router, "/users", fiber.MethodGet, "/count-by-node", read, userHandler.HandleCountByNode)
	apirouter.RegisterRouteWithMiddleware(router, "/users", fiber.MethodPost, "/:id/deactivate", update, userHandler.HandleDeactivate)
	r.RegisterCRUDRoutes(router, "/users", userHandler, apirouter.ReadWriteConfig, "User")
}
