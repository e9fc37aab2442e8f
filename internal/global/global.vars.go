package global

import (
	"incentive_hub/config"
	"incentive_hub/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Organizations    string // Tổ chức: cây phân cấp, SKU, chức danh, branding
	Users            string // Người dùng (admin, nhân viên)
	Campaigns        string // Chiến dịch thưởng doanh số
	UserPerformances string // Kết quả đạt được theo user + chiến dịch
}

// Các biến toàn cục
var Validate *validator.Validate                                           // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                                          // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration                             // Cấu hình của server
var MongoDB_ColNames MongoDB_CollectionName = *new(MongoDB_CollectionName) // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
