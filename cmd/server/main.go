package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v3"

	authrouter "incentive_hub/internal/api/auth/router"
	camprouter "incentive_hub/internal/api/campaign/router"
	orgrouter "incentive_hub/internal/api/organization/router"
	perfrouter "incentive_hub/internal/api/performance/router"
	"incentive_hub/internal/database"
	"incentive_hub/internal/global"
	"incentive_hub/internal/logger"
	"incentive_hub/internal/utility"
	"incentive_hub/internal/worker"
)

// initLogger khởi tạo logger cho toàn bộ ứng dụng (cấu hình đọc từ biến môi trường)
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// resolvePath tìm đường dẫn tương đối từ thư mục chứa config/env (chạy được từ cmd/server hoặc gốc repo)
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	currentDir, err := os.Getwd()
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return filepath.Join(currentDir, path)
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return path
		}
		currentDir = parentDir
	}
}

// main_thread chạy Fiber server; trả về khi server dừng
func main_thread(app *fiber.App) {
	cfg := global.MongoDB_ServerConfig
	address := cfg.Address
	log := logger.GetAppLogger()

	if cfg.EnableTLS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		certPath := resolvePath(cfg.TLSCertFile)
		keyPath := resolvePath(cfg.TLSKeyFile)

		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			log.Fatalf("Error loading TLS certificate (cert=%s key=%s): %v", certPath, keyPath, err)
		}
		ln, err := net.Listen("tcp", address)
		if err != nil {
			log.Fatalf("Error creating listener: %v", err)
		}
		tlsListener := tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})

		log.WithFields(map[string]interface{}{
			"address": address,
			"cert":    certPath,
		}).Info("Starting server with HTTPS/TLS")
		if err := app.Listener(tlsListener); err != nil {
			log.Fatalf("Error in Fiber Listener with TLS: %v", err)
		}
		return
	}

	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting server with HTTP")
	if err := app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	initLogger()
	InitGlobal()
	InitRegistry()

	svcs := InitServices()
	InitDefaultData(svcs)

	log := logger.GetAppLogger()
	app, err := InitFiberApp(global.MongoDB_ServerConfig,
		authrouter.Routes(svcs.users),
		orgrouter.Routes(svcs.organizations),
		camprouter.Routes(svcs.campaigns),
		perfrouter.Routes(svcs.performances),
	)
	if err != nil {
		log.Fatalf("Failed to setup routes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Worker chuyển trạng thái chiến dịch theo ngày bắt đầu / kết thúc
	lifecycle := worker.NewCampaignLifecycleWorker(svcs.campaigns, global.MongoDB_ServerConfig.CampaignWorkerInterval, 4)
	go utility.GoProtect(func() { lifecycle.Start(ctx) })

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Error shutting down Fiber")
		}
	}()

	main_thread(app)

	if err := database.CloseInstance(global.MongoDB_Session); err != nil {
		log.WithError(err).Warn("Error closing MongoDB connection")
	}
}
