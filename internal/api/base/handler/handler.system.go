package basehdl

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/mongo"

	"incentive_hub/internal/common"
	"incentive_hub/internal/database"
)

// SystemHandler xử lý các route liên quan đến system operations
type SystemHandler struct {
	client  *mongo.Client
	started time.Time
}

// NewSystemHandler tạo một instance mới của SystemHandler. client nil → database "not_initialized"
func NewSystemHandler(client *mongo.Client) *SystemHandler {
	return &SystemHandler{client: client, started: time.Now()}
}

// HandleHealth kiểm tra tình trạng hệ thống (API + MongoDB). Database lỗi → 503 "degraded"
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	healthData := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	}
	services := fiber.Map{"api": "ok"}
	healthData["services"] = services

	if h.client == nil {
		healthData["status"] = "degraded"
		services["database"] = "not_initialized"
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{
			"code":    common.StatusServiceUnavailable,
			"message": common.MsgServiceUnavailable,
			"data":    healthData,
			"status":  "error",
		})
	}

	if err := database.Ping(h.client, 2*time.Second); err != nil {
		healthData["status"] = "degraded"
		services["database"] = "error"
		healthData["database_error"] = err.Error()
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{
			"code":    common.StatusServiceUnavailable,
			"message": "Hệ thống đang gặp sự cố",
			"data":    healthData,
			"status":  "error",
		})
	}
	services["database"] = "ok"

	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    healthData,
		"status":  "success",
	})
}
