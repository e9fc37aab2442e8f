package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// AuditAction bản ghi audit cho thao tác quản trị
type AuditAction struct {
	Action         string                 `json:"action"`
	UserID         string                 `json:"user_id"`
	OrganizationID string                 `json:"organization_id"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	IP             string                 `json:"ip"`
	RequestID      string                 `json:"request_id"`
	Details        map[string]interface{} `json:"details"`
	Timestamp      time.Time              `json:"timestamp"`
}

// LogAction ghi audit log. user_id / active_organization_id lấy từ Locals do middleware gán
func LogAction(action string, c fiber.Ctx, details map[string]interface{}) {
	audit := newAuditAction(action, c, details)
	GetAuditLogger().WithFields(logrus.Fields{
		"action":          audit.Action,
		"user_id":         audit.UserID,
		"organization_id": audit.OrganizationID,
		"resource_type":   audit.ResourceType,
		"resource_id":     audit.ResourceID,
		"ip":              audit.IP,
		"request_id":      audit.RequestID,
		"details":         audit.Details,
	}).Info("Audit log")
}

// LogResource ghi audit log cho thao tác trên một tài nguyên cụ thể (campaign, organization, ...)
func LogResource(action, resourceType, resourceID string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["resource_type"] = resourceType
	details["resource_id"] = resourceID
	LogAction(action, c, details)
}

func newAuditAction(action string, c fiber.Ctx, details map[string]interface{}) AuditAction {
	if details == nil {
		details = make(map[string]interface{})
	}
	audit := AuditAction{
		Action:    action,
		IP:        c.IP(),
		RequestID: RequestID(c),
		Details:   details,
		Timestamp: time.Now(),
	}
	if uid, ok := c.Locals("user_id").(string); ok {
		audit.UserID = uid
	}
	if oid, ok := c.Locals("active_organization_id").(string); ok {
		audit.OrganizationID = oid
	}
	if rt, ok := details["resource_type"].(string); ok {
		audit.ResourceType = rt
	}
	if rid, ok := details["resource_id"].(string); ok {
		audit.ResourceID = rid
	}
	return audit
}
