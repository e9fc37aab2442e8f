package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"incentive_hub/config"
	authmodels "incentive_hub/internal/api/auth/models"
	campmodels "incentive_hub/internal/api/campaign/models"
	orgmodels "incentive_hub/internal/api/organization/models"
	perfmodels "incentive_hub/internal/api/performance/models"
	"incentive_hub/internal/database"
	"incentive_hub/internal/global"
	"incentive_hub/internal/utility"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
	initFirebase()         // Khởi tạo Firebase
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Organizations = "organizations"
	global.MongoDB_ColNames.Users = "users"
	global.MongoDB_ColNames.Campaigns = "campaigns"
	global.MongoDB_ColNames.UserPerformances = "user_performances"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (đăng ký custom validators: no_xss, ...)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	dbName := global.MongoDB_ServerConfig.MongoDB_DBName
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session, dbName); err != nil {
		logrus.Fatalf("Failed to ensure collections: %v", err)
	}
	logrus.Info("Ensured database and collections")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db := global.MongoDB_Session.Database(dbName)
	models := map[string]interface{}{
		global.MongoDB_ColNames.Organizations:    orgmodels.Organization{},
		global.MongoDB_ColNames.Users:            authmodels.User{},
		global.MongoDB_ColNames.Campaigns:        campmodels.Campaign{},
		global.MongoDB_ColNames.UserPerformances: perfmodels.UserPerformance{},
	}
	for name, model := range models {
		if err := database.CreateIndexes(ctx, db.Collection(name), model); err != nil {
			// Index lỗi không chặn khởi động, truy vấn vẫn chạy được
			logrus.Errorf("Failed to create indexes for %s: %v", name, err)
		}
	}
}

// initFirebase khởi tạo Firebase Admin SDK
func initFirebase() {
	cfg := global.MongoDB_ServerConfig
	if cfg.FirebaseProjectID == "" || cfg.FirebaseCredentialsPath == "" {
		logrus.Warn("Firebase config không đầy đủ, bỏ qua khởi tạo Firebase")
		return
	}

	if err := utility.InitFirebase(cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath); err != nil {
		// Không fatal: đăng nhập sẽ báo lỗi nhưng các API khác vẫn chạy
		logrus.Errorf("Failed to initialize Firebase: %v", err)
		return
	}
	logrus.Info("Firebase initialized successfully")
}
