package main

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"

	"incentive_hub/config"
	"incentive_hub/internal/api/middleware"
	"incentive_hub/internal/api/router"
	"incentive_hub/internal/common"
	"incentive_hub/internal/logger"
)

const healthPath = "/api/v1/system/health"

// InitFiberApp khởi tạo ứng dụng Fiber, gắn middleware chung rồi đăng ký route của các domain
func InitFiberApp(cfg *config.Configuration, regs ...router.RegisterFunc) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:       "Incentive Hub API",
		ServerHeader:  "Incentive Hub API",
		StrictRouting: true,
		CaseSensitive: true,
		UnescapePath:  true,

		BodyLimit:       10 * 1024 * 1024, // file CSV chỉ tiêu / cây phân cấp
		Concurrency:     256 * 1024,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,

		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,

		ErrorHandler: errorHandler,
	})

	// CORS phải đứng đầu để preflight không bị các middleware sau chặn
	app.Use(requestid.New(requestid.Config{Header: fiber.HeaderXRequestID, Generator: uuid.NewString}))
	app.Use(cors.New(corsConfig(cfg)))
	app.Use(securityHeaders)
	if h := rateLimiter(cfg); h != nil {
		app.Use(h)
	}
	app.Use(recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: logPanic,
	}))

	if err := router.SetupRoutes(app, regs...); err != nil {
		return nil, err
	}
	return app, nil
}

// errorHandler trả lỗi theo format chung {code, message, status}.
// Lỗi nghiệp vụ (*common.Error) giữ nguyên mã; lỗi của Fiber được map theo HTTP status.
func errorHandler(c fiber.Ctx, err error) error {
	var appErr *common.Error
	if errors.As(err, &appErr) {
		return middleware.HandleErrorResponse(c, err)
	}

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Client gọi https vào server http: byte đầu handshake TLS là 0x16 0x03
	if isTLSHandshake(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    common.ErrCodeValidationInput.Code,
			"message": "Server chỉ hỗ trợ HTTP. Vui lòng sử dụng http:// thay vì https://",
			"status":  "error",
		})
	}

	errorCode := errorCodeFor(code)
	if code >= fiber.StatusInternalServerError {
		logger.WithRequest(c).WithFields(map[string]interface{}{
			"code":      code,
			"errorCode": errorCode,
		}).WithError(err).Error("❌ [HTTP] Request error")
	}
	return c.Status(code).JSON(fiber.Map{
		"code":    errorCode,
		"message": message,
		"status":  "error",
	})
}

func errorCodeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return common.ErrCodeValidationInput.Code
	case fiber.StatusUnauthorized:
		return common.ErrCodeAuthToken.Code
	case fiber.StatusForbidden:
		return common.ErrCodeAuthRole.Code
	case fiber.StatusNotFound, fiber.StatusConflict:
		return common.ErrCodeDatabaseQuery.Code
	case fiber.StatusTooManyRequests:
		return common.ErrCodeBusinessOperation.Code
	}
	return common.ErrCodeInternalServer.Code
}

func isTLSHandshake(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unsupported http request method") &&
		(strings.Contains(msg, "\x16\x03\x01") || strings.Contains(msg, `\x16\x03\x01`))
}

func corsConfig(cfg *config.Configuration) cors.Config {
	return cors.Config{
		AllowOrigins: cfg.CORSOrigins(),
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
			"X-Requested-With",
			middleware.HeaderActiveOrganization,
		},
		AllowCredentials: cfg.CORS_AllowCredentials,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		MaxAge:           24 * 60 * 60,
	}
}

func securityHeaders(c fiber.Ctx) error {
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set("X-Frame-Options", "DENY")
	c.Set("X-XSS-Protection", "1; mode=block")
	c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	return c.Next()
}

// rateLimiter giới hạn request theo IP; nil nếu tắt. Bỏ qua health check và preflight.
func rateLimiter(cfg *config.Configuration) fiber.Handler {
	log := logger.GetAppLogger()
	if !cfg.RateLimit_Enabled || cfg.RateLimit_Max <= 0 {
		log.Info("Rate limiting disabled")
		return nil
	}
	log.Infof("Rate limiting enabled: %d requests per %d seconds", cfg.RateLimit_Max, cfg.RateLimit_Window)
	return limiter.New(limiter.Config{
		Max:        cfg.RateLimit_Max,
		Expiration: time.Duration(cfg.RateLimit_Window) * time.Second,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, common.MsgTooManyRequests)
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath || c.Method() == fiber.MethodOptions
		},
	})
}

func logPanic(c fiber.Ctx, e interface{}) {
	logger.WithRequest(c).WithFields(map[string]interface{}{
		"panic":  e,
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("💥 [HTTP] Panic recovered")
}
