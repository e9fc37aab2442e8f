package logger

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ContextKey là type cho context keys
type ContextKey string

const (
	RequestIDKey      ContextKey = "requestID"
	UserIDKey         ContextKey = "userID"
	OrganizationIDKey ContextKey = "organizationID"
)

// WithContext trả về logger entry kèm các giá trị request/user/org có trong ctx
func WithContext(ctx context.Context) *logrus.Entry {
	entry := GetAppLogger().WithContext(ctx)
	if v := ctx.Value(RequestIDKey); v != nil {
		entry = entry.WithField("request_id", v)
	}
	if v := ctx.Value(UserIDKey); v != nil {
		entry = entry.WithField("user_id", v)
	}
	if v := ctx.Value(OrganizationIDKey); v != nil {
		entry = entry.WithField("organization_id", v)
	}
	return entry
}

// RequestID lấy request ID do middleware requestid gán (Locals hoặc header)
func RequestID(c fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		return rid
	}
	if rid := c.Get("X-Request-ID"); rid != "" {
		return rid
	}
	return c.GetRespHeader("X-Request-ID")
}

// WithRequest trả về logger entry với method, path, ip và request_id của request Fiber
func WithRequest(c fiber.Ctx) *logrus.Entry {
	fields := logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	}
	if rid := RequestID(c); rid != "" {
		fields["request_id"] = rid
	}
	if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
		fields["user_id"] = uid
	}
	return GetAppLogger().WithFields(fields)
}

// WithFields trả về logger entry với các fields bổ sung
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return GetAppLogger().WithFields(logrus.Fields(fields))
}

// WithError trả về logger entry với error
func WithError(err error) *logrus.Entry {
	return GetAppLogger().WithError(err)
}

// WithModule trả về logger entry gắn module (campaign, hierarchy, auth, worker, ...)
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}
