package utility

import (
	"fmt"
	"strings"
	"time"

	"incentive_hub/internal/logger"
)

// GoProtect chạy f và bắt panic (nếu có) để goroutine gọi không bị sập.
func GoProtect(f func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.GetAppLogger().Errorf("Đã bắt lỗi panic: %v", err)
		}
	}()
	f()
}

// UnixMilli trả về mili giây của thời gian t
func UnixMilli(t time.Time) int64 {
	return t.Round(time.Millisecond).UnixMilli()
}

// Contains kiểm tra một phần tử có trong slice hay không
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// NormalizePhone chuẩn hoá số điện thoại về dạng E.164 (+84...).
// Số bắt đầu bằng 0 được coi là số nội địa với mã quốc gia defaultCountryCode.
func NormalizePhone(phone, defaultCountryCode string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	switch {
	case s == "" || s == "+":
		return ""
	case strings.HasPrefix(s, "+"):
		return s
	case strings.HasPrefix(s, "00"):
		return "+" + s[2:]
	case strings.HasPrefix(s, "0"):
		return fmt.Sprintf("+%s%s", strings.TrimPrefix(defaultCountryCode, "+"), s[1:])
	default:
		return "+" + s
	}
}
