package utility

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtToken claims của token phiên đăng nhập
type JwtToken struct {
	UserID         string `json:"userId"`
	OrganizationID string `json:"organizationId"`
	Role           string `json:"role"`
	Time           int64  `json:"time"`
	RandomNumber   string `json:"randomNumber"`
	jwt.StandardClaims
}

var (
	// ErrTokenExpired token đã hết hạn
	ErrTokenExpired = errors.New("token đã hết hạn")
	// ErrTokenMalformed token sai định dạng hoặc sai chữ ký
	ErrTokenMalformed = errors.New("token không hợp lệ")
)

func randomDigits(n int) string {
	max := big.NewInt(10)
	b := make([]byte, n)
	for i := range b {
		d, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = '0'
			continue
		}
		b[i] = byte('0' + d.Int64())
	}
	return string(b)
}

// CreateToken ký JWT HS256 cho phiên đăng nhập, hết hạn sau ttl tính từ now
func CreateToken(secret string, claims JwtToken, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret rỗng")
	}
	claims.Time = now.UnixMilli()
	claims.RandomNumber = randomDigits(8)
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = now.Add(ttl).Unix()
	claims.Subject = claims.UserID

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("ký token thất bại: %w", err)
	}
	return signed, nil
}

// ParseToken kiểm tra chữ ký và trả về claims. Thời hạn KHÔNG được kiểm tra ở đây:
// caller tự kiểm tra bằng Session.Expired(now) để có thể dùng đồng hồ của mình.
func ParseToken(secret, tokenString string) (*JwtToken, error) {
	claims := &JwtToken{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("thuật toán ký không hỗ trợ: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
