package logger

import (
	"os"
	"strconv"
	"strings"
)

// LogConfig chứa cấu hình cho hệ thống logging.
// Giá trị lấy từ biến môi trường LOG_*, xem DefaultConfig.
type LogConfig struct {
	Level  string // trace, debug, info, warn, error, fatal
	Format string // json, text
	Output string // file, stdout, both

	// Rotation (lumberjack)
	MaxSize    int  // MB
	MaxBackups int  // Số file cũ giữ lại
	MaxAge     int  // Số ngày giữ lại
	Compress   bool // Nén file cũ

	LogPath   string
	AppFile   string
	AuditFile string

	// Bộ lọc, phân cách bởi dấu phẩy. Rỗng hoặc "*" = không lọc
	FilterModules  string
	FilterLogTypes string
	FilterMethods  string
}

// DefaultConfig trả về cấu hình mặc định theo GO_ENV, sau đó override bằng biến môi trường
func DefaultConfig() *LogConfig {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	cfg := &LogConfig{
		Level:      "info",
		Format:     "json",
		Output:     "both",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
		LogPath:    "./logs",
		AppFile:    "app.log",
		AuditFile:  "audit.log",
	}
	if env == "development" {
		cfg.Level = "debug"
		cfg.Format = "text"
	}

	overrideString(&cfg.Level, "LOG_LEVEL", true)
	overrideString(&cfg.Format, "LOG_FORMAT", true)
	overrideString(&cfg.Output, "LOG_OUTPUT", true)
	overrideInt(&cfg.MaxSize, "LOG_MAX_SIZE", 1)
	overrideInt(&cfg.MaxBackups, "LOG_MAX_BACKUPS", 0)
	overrideInt(&cfg.MaxAge, "LOG_MAX_AGE", 1)
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Compress = b
		}
	}
	overrideString(&cfg.LogPath, "LOG_PATH", false)
	overrideString(&cfg.AppFile, "LOG_APP_FILE", false)
	overrideString(&cfg.AuditFile, "LOG_AUDIT_FILE", false)
	overrideString(&cfg.FilterModules, "LOG_FILTER_MODULES", false)
	overrideString(&cfg.FilterLogTypes, "LOG_FILTER_LOG_TYPES", false)
	overrideString(&cfg.FilterMethods, "LOG_FILTER_METHODS", false)

	return cfg
}

func overrideString(dst *string, key string, lower bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if lower {
		v = strings.ToLower(v)
	}
	*dst = v
}

func overrideInt(dst *int, key string, min int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= min {
		*dst = n
	}
}
