package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session phiên đăng nhập dựng từ JWT. Hết hạn được kiểm tra khi dùng (Expired), không có tiến trình nền.
type Session struct {
	UserID         primitive.ObjectID `json:"userId"`
	OrganizationID primitive.ObjectID `json:"organizationId"`
	Role           string             `json:"role"`
	Token          string             `json:"-"`
	IssuedAt       time.Time          `json:"issuedAt"`
	ExpiresAt      time.Time          `json:"expiresAt"`
}

// Expired true khi now đã tới hoặc qua ExpiresAt
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining thời gian còn lại của phiên, không âm
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.Expired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
