// Package authhdl - handler đăng nhập, phiên và quản lý người dùng.
package authhdl

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	authdto "incentive_hub/internal/api/auth/dto"
	authmodels "incentive_hub/internal/api/auth/models"
	authsvc "incentive_hub/internal/api/auth/service"
	basehdl "incentive_hub/internal/api/base/handler"
	"incentive_hub/internal/api/middleware"
	"incentive_hub/internal/common"
	"incentive_hub/internal/logger"
)

// UserHandler xử lý các route liên quan đến người dùng
type UserHandler struct {
	*basehdl.BaseHandler[authmodels.User, authdto.UserCreateInput, authdto.UserUpdateInput]
	UserService *authsvc.UserService
}

// NewUserHandler tạo UserHandler từ service
func NewUserHandler(userService *authsvc.UserService) *UserHandler {
	base := basehdl.NewBaseHandler[authmodels.User, authdto.UserCreateInput, authdto.UserUpdateInput](userService)
	base.OrgField = "organizationId"
	return &UserHandler{BaseHandler: base, UserService: userService}
}

// HandleLoginWithFirebase đăng nhập bằng Firebase ID token
// @Router /auth/login/firebase [post]
func (h *UserHandler) HandleLoginWithFirebase(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input authdto.FirebaseLoginInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}
		result, err := h.UserService.LoginWithFirebase(c.Context(), &input)
		return h.HandleResponse(c, result, err)
	})
}

// HandleLogout đăng xuất: token hiện tại hết hiệu lực
func (h *UserHandler) HandleLogout(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		err := h.UserService.Logout(c.Context(), basehdl.CurrentUserID(c))
		return h.HandleResponse(c, nil, err)
	})
}

// HandleGetSession thông tin phiên hiện tại (thời gian còn lại)
func (h *UserHandler) HandleGetSession(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.CurrentSession(c)
		if session == nil {
			return h.HandleResponse(c, nil, common.ErrTokenInvalid)
		}
		return h.HandleResponse(c, h.UserService.SessionInfo(session), nil)
	})
}

// HandleGetProfile hồ sơ người dùng hiện tại
func (h *UserHandler) HandleGetProfile(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		user, err := h.UserService.Profile(c.Context(), basehdl.CurrentUserID(c))
		return h.HandleResponse(c, user, err)
	})
}

// InsertOne tạo người dùng trong tổ chức đang hoạt động (ghi đè CRUD mặc định để chuẩn hoá số điện thoại)
func (h *UserHandler) InsertOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		var input authdto.UserCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			return h.HandleResponse(c, nil, err)
		}
		user, err := h.UserService.CreateUser(c.Context(), orgID, &input)
		if err == nil {
			logger.LogResource("user.create", "user", user.ID.Hex(), c, map[string]interface{}{"role": user.Role})
		}
		return h.HandleResponse(c, user, err)
	})
}

// HandleListUsers danh sách người dùng theo role / designation / region / search
func (h *UserHandler) HandleListUsers(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		page, limit := basehdl.ParsePagination(c)
		q := &authdto.UserListQuery{
			Role:        c.Query("role"),
			Designation: c.Query("designation"),
			Region:      c.Query("region"),
			Search:      strings.TrimSpace(c.Query("search")),
			Page:        page,
			Limit:       limit,
		}
		result, err := h.UserService.ListUsers(c.Context(), orgID, q)
		return h.HandleResponse(c, result, err)
	})
}

// HandleDeactivate khoá người dùng và huỷ phiên
func (h *UserHandler) HandleDeactivate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		userID, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		if userID == basehdl.CurrentUserID(c) {
			return h.HandleResponse(c, nil, common.NewError(common.ErrCodeBusinessOperation, "Không thể tự khoá tài khoản của mình", common.StatusBadRequest, nil))
		}
		user, err := h.UserService.Deactivate(c.Context(), orgID, userID)
		if err == nil {
			logger.LogResource("user.deactivate", "user", userID.Hex(), c, nil)
		}
		return h.HandleResponse(c, user, err)
	})
}

// HandleCountByNode số nhân viên theo node phân cấp; designation=a,b lọc theo chức danh
func (h *UserHandler) HandleCountByNode(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		orgID, err := basehdl.RequireOrganization(c)
		if err != nil {
			return h.HandleResponse(c, nil, err)
		}
		counts, err := h.UserService.CountByNode(c.Context(), orgID, SplitList(c.Query("designation")))
		return h.HandleResponse(c, counts, err)
	})
}

// SplitList tách "a, b,,c" thành [a b c]
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
