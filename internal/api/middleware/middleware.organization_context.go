package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authmodels "incentive_hub/internal/api/auth/models"
	"incentive_hub/internal/common"
)

// HeaderActiveOrganization header cho system admin chọn tổ chức làm việc
const HeaderActiveOrganization = "X-Active-Organization-ID"

// OrganizationContextMiddleware xác định tổ chức làm việc của request.
// - User thường: luôn là tổ chức của mình (đã gán bởi AuthMiddleware), header bị bỏ qua
// - System admin: có thể chọn tổ chức qua header X-Active-Organization-ID
// Chạy sau AuthMiddleware; thiếu tổ chức thì trả lỗi nếu required.
func OrganizationContextMiddleware(required bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)

		if role == authmodels.RoleSystemAdmin {
			if header := c.Get(HeaderActiveOrganization); header != "" {
				orgID, err := primitive.ObjectIDFromHex(header)
				if err != nil {
					return HandleErrorResponse(c, common.NewError(
						common.ErrCodeValidationFormat,
						HeaderActiveOrganization+" không đúng định dạng",
						common.StatusBadRequest,
						nil,
					))
				}
				c.Locals("active_organization_id", orgID.Hex())
			}
		}

		if required {
			if orgID, ok := c.Locals("active_organization_id").(string); !ok || orgID == "" {
				return HandleErrorResponse(c, common.ErrNoOrganization)
			}
		}
		return c.Next()
	}
}
