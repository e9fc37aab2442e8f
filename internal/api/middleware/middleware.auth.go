package middleware

import (
	"context"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	authmodels "incentive_hub/internal/api/auth/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/logger"
)

// SessionResolver dựng và kiểm tra phiên từ token (UserService implement)
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*authmodels.Session, error)
}

var (
	resolver   SessionResolver
	resolverMu sync.RWMutex
)

// InitAuth đăng ký SessionResolver dùng cho AuthMiddleware. Gọi khi khởi động server.
func InitAuth(r SessionResolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	resolver = r
}

func getResolver() SessionResolver {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	return resolver
}

// bearerToken tách token từ header "Authorization: Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware middleware xác thực cho Fiber.
// Kiểm tra phiên (kể cả hết hạn) mỗi request, gán Locals user_id, user_role, session, active_organization_id
// rồi kiểm tra quyền requirePermission theo vai trò.
func AuthMiddleware(requirePermission string) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Missing Authorization header")
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return HandleErrorResponse(c, common.ErrTokenInvalid)
		}

		r := getResolver()
		if r == nil {
			logger.GetAppLogger().Error("❌ [AUTH] SessionResolver chưa được khởi tạo")
			return HandleErrorResponse(c, common.NewError(common.ErrCodeInternalServer, common.MsgServiceUnavailable, common.StatusServiceUnavailable, nil))
		}

		session, err := r.ResolveSession(c.Context(), token)
		if err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err.Error(),
			}).Warn("❌ [AUTH] Phiên không hợp lệ")
			return HandleErrorResponse(c, err)
		}

		c.Locals("user_id", session.UserID.Hex())
		c.Locals("user_role", session.Role)
		c.Locals("session", session)
		if !session.OrganizationID.IsZero() {
			c.Locals("active_organization_id", session.OrganizationID.Hex())
		}

		if !HasPermission(session.Role, requirePermission) {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"user_id":    session.UserID.Hex(),
				"role":       session.Role,
				"path":       c.Path(),
				"permission": requirePermission,
			}).Warn("❌ [AUTH] Không đủ quyền")
			return HandleErrorResponse(c, common.ErrForbidden)
		}

		return c.Next()
	}
}

// CurrentSession lấy Session do AuthMiddleware gán
func CurrentSession(c fiber.Ctx) *authmodels.Session {
	session, _ := c.Locals("session").(*authmodels.Session)
	return session
}
