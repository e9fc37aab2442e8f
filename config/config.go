package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng
type Configuration struct {
	Address         string `env:"ADDRESS" envDefault:":8080"`          // Địa chỉ server
	JwtSecret       string `env:"JWT_SECRET,required"`                 // Bí mật ký JWT
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"24"`   // Thời gian sống của phiên đăng nhập (giờ)
	InitAdminPhone  string `env:"INIT_ADMIN_PHONE"`                    // SĐT admin được tạo khi khởi động lần đầu (optional)
	InitOrgName     string `env:"INIT_ORG_NAME" envDefault:"Default"` // Tên tổ chức mặc định cho admin khởi tạo

	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"` // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`         // Tên cơ sở dữ liệu

	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// Firebase (đăng nhập bằng số điện thoại)
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`

	// TLS/HTTPS
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// SMTP gửi email thông báo kết thúc chiến dịch (optional, SMTP_HOST rỗng = tắt)
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Worker vòng đời chiến dịch & cache leaderboard
	CampaignWorkerInterval time.Duration `env:"CAMPAIGN_WORKER_INTERVAL" envDefault:"1m"`
	LeaderboardCacheTTL    time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`
}

// SessionTTL trả về thời gian sống của phiên, tối thiểu 1 giờ
func (c *Configuration) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// CORSOrigins tách CORS_ORIGINS thành danh sách
func (c *Configuration) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORS_Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// MailEnabled cho biết SMTP đã được cấu hình hay chưa
func (c *Configuration) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// getEnvPath trả về đường dẫn đến file env dựa trên GO_ENV
func getEnvPath() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// Load đọc file env (nếu có) rồi parse biến môi trường.
// Biến môi trường đã set sẵn không bị file env ghi đè.
func Load(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		if envPath := getEnvPath(); envPath != "" {
			if _, err := os.Stat(envPath); err == nil {
				files = append(files, envPath)
			}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("không thể load file env %v: %w", files, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("lỗi khi parse config: %w", err)
	}
	return &cfg, nil
}

// NewConfig đọc cấu hình, trả về nil nếu lỗi
func NewConfig(files ...string) *Configuration {
	cfg, err := Load(files...)
	if err != nil {
		fmt.Printf("%v\n", err)
		return nil
	}
	return cfg
}
