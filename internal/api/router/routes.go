// Package router chứa các helper đăng ký route dùng chung và SetupRoutes gom route của các domain.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"incentive_hub/internal/api/middleware"
)

// Middleware được gắn ở cấp route (không dùng group.Use): Use áp dụng cho mọi route cùng prefix,
// khi đó quyền của route quản trị sẽ chặn cả route nhân viên được phép xem.

// CRUDHandler định nghĩa interface cho các handler CRUD
type CRUDHandler interface {
	InsertOne(c fiber.Ctx) error
	Find(c fiber.Ctx) error
	FindOne(c fiber.Ctx) error
	FindOneById(c fiber.Ctx) error
	FindWithPagination(c fiber.Ctx) error
	UpdateById(c fiber.Ctx) error
	DeleteById(c fiber.Ctx) error
	CountDocuments(c fiber.Ctx) error
}

// Router quản lý việc định tuyến cho API
type Router struct {
	app *fiber.App
}

// CRUDConfig cấu hình các operation được phép cho mỗi collection
type CRUDConfig struct {
	InsOne   bool // Insert One
	Find     bool // Find All
	FindOne  bool // Find One
	FindById bool // Find By Id
	Paginate bool // Find With Pagination
	UpdById  bool // Update By Id
	DelById  bool // Delete By Id
	Count    bool // Count Documents
}

var (
	// ReadOnlyConfig chỉ cho phép đọc
	ReadOnlyConfig = CRUDConfig{
		Find: true, FindOne: true, FindById: true, Paginate: true, Count: true,
	}

	// ReadWriteConfig cho phép đầy đủ CRUD
	ReadWriteConfig = CRUDConfig{
		InsOne: true,
		Find:   true, FindOne: true, FindById: true, Paginate: true,
		UpdById: true, DelById: true,
		Count: true,
	}
)

// RoutePrefix chứa các prefix cơ bản cho API
type RoutePrefix struct {
	Base string // Prefix cơ bản (/api)
	V1   string // Prefix cho API version 1 (/api/v1)
}

// NewRoutePrefix tạo mới một RoutePrefix với giá trị mặc định
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// NewRouter tạo mới một instance của Router
func NewRouter(app *fiber.App) *Router {
	return &Router{app: app}
}

// RegisterRouteWithMiddleware đăng ký route với chuỗi middleware chạy theo thứ tự trước handler
//
//	authMiddleware := middleware.AuthMiddleware(middleware.PermCampaignRead)
//	RegisterRouteWithMiddleware(router, "/campaigns", "GET", "/:id", []fiber.Handler{authMiddleware}, handler)
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	chain := append(append([]fiber.Handler{}, middlewares...), handler)
	addRoute(router.Group(prefix), method, path, chain)
}

// addRoute truyền từng handler riêng lẻ để tương thích chữ ký Add của Fiber v3
func addRoute(group fiber.Router, method string, path string, chain []fiber.Handler) {
	methods := []string{method}
	switch len(chain) {
	case 1:
		group.Add(methods, path, chain[0])
	case 2:
		group.Add(methods, path, chain[0], chain[1])
	case 3:
		group.Add(methods, path, chain[0], chain[1], chain[2])
	case 4:
		group.Add(methods, path, chain[0], chain[1], chain[2], chain[3])
	default:
		panic(fmt.Sprintf("route %s %s: tối đa 3 middleware, nhận %d", method, path, len(chain)-1))
	}
}

// RegisterCRUDRoutes đăng ký các route CRUD cho một collection.
// Quyền: <permissionPrefix>.Insert / .Read / .Update / .Delete; mọi route đều cần tổ chức làm việc.
func (r *Router) RegisterCRUDRoutes(router fiber.Router, prefix string, h CRUDHandler, config CRUDConfig, permissionPrefix string) {
	orgContext := middleware.OrganizationContextMiddleware(true)
	insert := []fiber.Handler{middleware.AuthMiddleware(permissionPrefix + ".Insert"), orgContext}
	read := []fiber.Handler{middleware.AuthMiddleware(permissionPrefix + ".Read"), orgContext}
	update := []fiber.Handler{middleware.AuthMiddleware(permissionPrefix + ".Update"), orgContext}
	del := []fiber.Handler{middleware.AuthMiddleware(permissionPrefix + ".Delete"), orgContext}

	if config.InsOne {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodPost, "/insert-one", insert, h.InsertOne)
	}
	if config.Find {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "/find", read, h.Find)
	}
	if config.FindOne {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "/find-one", read, h.FindOne)
	}
	if config.FindById {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "/find-by-id/:id", read, h.FindOneById)
	}
	if config.Paginate {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "/find-with-pagination", read, h.FindWithPagination)
	}
	if config.UpdById {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodPut, "/update-by-id/:id", update, h.UpdateById)
	}
	if config.DelById {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodDelete, "/delete-by-id/:id", del, h.DeleteById)
	}
	if config.Count {
		RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "/count", read, h.CountDocuments)
	}
}

// RegisterFunc là hàm đăng ký route của một domain (do domain/router export).
type RegisterFunc func(v1 fiber.Router, r *Router) error

// SetupRoutes thiết lập tất cả các route cho ứng dụng. Caller truyền Register của từng domain để tránh import cycle.
func SetupRoutes(app *fiber.App, regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	v1 := app.Group(prefix.V1)
	r := NewRouter(app)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
