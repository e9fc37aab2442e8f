// Package authsvc - service người dùng: đăng nhập Firebase, phiên JWT, quản lý người dùng theo tổ chức.
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	authdto "incentive_hub/internal/api/auth/dto"
	authmodels "incentive_hub/internal/api/auth/models"
	basemodels "incentive_hub/internal/api/base/models"
	basesvc "incentive_hub/internal/api/base/service"
	"incentive_hub/internal/common"
	"incentive_hub/internal/global"
	"incentive_hub/internal/logger"
	"incentive_hub/internal/utility"
)

// DefaultCountryCode mã quốc gia dùng khi chuẩn hoá số điện thoại nội địa
const DefaultCountryCode = "84"

// IdentityVerifier xác thực ID token của nhà cung cấp đăng nhập số điện thoại
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*utility.FirebaseIdentity, error)
}

// UserService là cấu trúc chứa các phương thức liên quan đến người dùng
type UserService struct {
	basesvc.BaseServiceMongo[authmodels.User]
	verifier IdentityVerifier
	secret   string
	ttl      time.Duration
	now      func() time.Time
}

// NewUserService tạo mới UserService từ collection users đã đăng ký và cấu hình server
func NewUserService() (*UserService, error) {
	userCollection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Users)
	if !exist {
		return nil, fmt.Errorf("failed to get users collection: %v", common.ErrNotFound)
	}
	cfg := global.MongoDB_ServerConfig
	if cfg == nil {
		return nil, fmt.Errorf("server config chưa được khởi tạo")
	}
	return NewUserServiceWith(
		basesvc.NewBaseServiceMongo[authmodels.User](userCollection),
		utility.FirebaseVerifier{},
		cfg.JwtSecret,
		cfg.SessionTTL(),
	), nil
}

// NewUserServiceWith tạo UserService với store và verifier chỉ định
func NewUserServiceWith(store basesvc.BaseServiceMongo[authmodels.User], verifier IdentityVerifier, secret string, ttl time.Duration) *UserService {
	return &UserService{
		BaseServiceMongo: store,
		verifier:         verifier,
		secret:           secret,
		ttl:              ttl,
		now:              time.Now,
	}
}

// SetClock thay đồng hồ (dùng trong test)
func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

// ====================================
// ĐĂNG NHẬP / PHIÊN
// ====================================

// LoginWithFirebase xác thực Firebase ID token, tìm user theo số điện thoại (rồi firebaseUid),
// từ chối user không tồn tại hoặc bị khoá, cấp JWT mới và lưu làm token hiện tại.
func (s *UserService) LoginWithFirebase(ctx context.Context, input *authdto.FirebaseLoginInput) (*authdto.LoginResult, error) {
	log := logger.WithModule("auth")

	identity, err := s.verifier.Verify(ctx, input.IDToken)
	if err != nil {
		log.WithError(err).Warn("🔐 [AUTH] Firebase ID token không hợp lệ")
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.findByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.WithFields(logrus.Fields{"firebase_uid": identity.UID, "phone": identity.Phone}).Warn("🔐 [AUTH] Số điện thoại chưa được đăng ký")
			return nil, common.NewError(common.ErrCodeAuthCredentials, "Số điện thoại chưa được đăng ký trong hệ thống", common.StatusForbidden, nil)
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, common.ErrUserInactive
	}
	if user.FirebaseUID != "" && user.FirebaseUID != identity.UID {
		log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "firebase_uid": identity.UID}).Warn("🔐 [AUTH] Firebase UID không khớp tài khoản")
		return nil, common.NewError(common.ErrCodeAuthCredentials, "Số điện thoại đã được liên kết với tài khoản khác", common.StatusConflict, nil)
	}

	now := s.now()
	token, err := utility.CreateToken(s.secret, utility.JwtToken{
		UserID:         user.ID.Hex(),
		OrganizationID: user.OrganizationID.Hex(),
		Role:           user.Role,
	}, now, s.ttl)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalServer, "Không thể tạo phiên đăng nhập", common.StatusInternalServerError, err.Error())
	}

	update := &basesvc.UpdateData{Set: map[string]interface{}{
		"token":       token,
		"firebaseUid": identity.UID,
		"lastLoginAt": now.UnixMilli(),
	}}
	if user.Email == "" && identity.Email != "" {
		update.Set["email"] = identity.Email
	}
	updated, err := s.UpdateById(ctx, user.ID, update)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionFromToken(token)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("🔐 [AUTH] Đăng nhập thành công")
	return &authdto.LoginResult{Token: token, Session: session, User: &updated}, nil
}

// findByIdentity tìm user theo số điện thoại đã chuẩn hoá, sau đó theo firebaseUid
func (s *UserService) findByIdentity(ctx context.Context, identity *utility.FirebaseIdentity) (*authmodels.User, error) {
	if phone := utility.NormalizePhone(identity.Phone, DefaultCountryCode); phone != "" {
		user, err := s.FindOne(ctx, bson.M{"phone": phone}, nil)
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}
	if identity.UID == "" {
		return nil, common.ErrNotFound
	}
	user, err := s.FindOne(ctx, bson.M{"firebaseUid": identity.UID}, nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// sessionFromToken dựng Session từ JWT (chỉ kiểm tra chữ ký)
func (s *UserService) sessionFromToken(token string) (*authmodels.Session, error) {
	claims, err := utility.ParseToken(s.secret, token)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}
	orgID, _ := primitive.ObjectIDFromHex(claims.OrganizationID)
	return &authmodels.Session{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           claims.Role,
		Token:          token,
		IssuedAt:       time.UnixMilli(claims.Time),
		ExpiresAt:      time.Unix(claims.ExpiresAt, 0),
	}, nil
}

// ResolveSession kiểm tra token: chữ ký, hết hạn (theo đồng hồ của service), token phải là token hiện tại của user.
// Role và tổ chức lấy từ bản ghi user mới nhất.
func (s *UserService) ResolveSession(ctx context.Context, token string) (*authmodels.Session, error) {
	session, err := s.sessionFromToken(token)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, common.ErrTokenExpired
	}

	user, err := s.FindOneById(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrTokenInvalid
		}
		return nil, err
	}
	if user.Token != token {
		return nil, common.ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, common.ErrUserInactive
	}

	session.Role = user.Role
	session.OrganizationID = user.OrganizationID
	return session, nil
}

// SessionInfo trả về phiên kèm số giây còn lại
func (s *UserService) SessionInfo(session *authmodels.Session) *authdto.SessionInfo {
	return &authdto.SessionInfo{
		Session:          session,
		RemainingSeconds: int64(session.Remaining(s.now()).Seconds()),
	}
}

// Logout xoá token hiện tại của user
func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.UpdateById(ctx, userID, &basesvc.UpdateData{Unset: map[string]interface{}{"token": ""}})
	return err
}

// Profile trả về hồ sơ user
func (s *UserService) Profile(ctx context.Context, userID primitive.ObjectID) (*authmodels.User, error) {
	user, err := s.FindOneById(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ====================================
// QUẢN LÝ NGƯỜI DÙNG
// ====================================

// CreateUser tạo user trong tổ chức; số điện thoại được chuẩn hoá E.164
func (s *UserService) CreateUser(ctx context.Context, orgID primitive.ObjectID, input *authdto.UserCreateInput) (*authmodels.User, error) {
	phone := utility.NormalizePhone(input.Phone, DefaultCountryCode)
	if phone == "" {
		return nil, common.NewValidationError("Số điện thoại không hợp lệ", input.Phone)
	}
	user := authmodels.User{
		Name:            input.Name,
		Phone:           phone,
		Email:           input.Email,
		Role:            input.Role,
		OrganizationID:  orgID,
		RegionHierarchy: input.RegionHierarchy,
		Designation:     input.Designation,
		IsActive:        true,
	}
	if user.RegionHierarchy == nil {
		user.RegionHierarchy = []string{}
	}
	created, err := s.InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EnsureAdmin trả về user có số điện thoại phone, tạo admin của tổ chức nếu chưa có (dùng khi khởi tạo dữ liệu)
func (s *UserService) EnsureAdmin(ctx context.Context, orgID primitive.ObjectID, phone, name string) (*authmodels.User, bool, error) {
	normalized := utility.NormalizePhone(phone, DefaultCountryCode)
	if normalized == "" {
		return nil, false, common.NewValidationError("Số điện thoại không hợp lệ", phone)
	}
	existing, err := s.FindOne(ctx, bson.M{"phone": normalized}, nil)
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	created, err := s.CreateUser(ctx, orgID, &authdto.UserCreateInput{Name: name, Phone: normalized, Role: authmodels.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// BuildUserFilter dựng filter danh sách user theo tổ chức và bộ lọc
func BuildUserFilter(orgID primitive.ObjectID, q *authdto.UserListQuery) bson.M {
	filter := bson.M{"organizationId": orgID}
	if q == nil {
		return filter
	}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.Designation != "" {
		filter["designation"] = q.Designation
	}
	if q.Region != "" {
		filter["regionHierarchy"] = q.Region
	}
	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"phone": bson.M{"$regex": pattern}},
		}
	}
	return filter
}

// ListUsers danh sách user phân trang theo bộ lọc
func (s *UserService) ListUsers(ctx context.Context, orgID primitive.ObjectID, q *authdto.UserListQuery) (*basemodels.PaginateResult[authmodels.User], error) {
	if q == nil {
		q = &authdto.UserListQuery{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return s.FindWithPagination(ctx, BuildUserFilter(orgID, q), q.Page, q.Limit, opts)
}

// Deactivate khoá user và huỷ phiên hiện tại
func (s *UserService) Deactivate(ctx context.Context, orgID, userID primitive.ObjectID) (*authmodels.User, error) {
	user, err := s.UpdateOne(ctx, bson.M{"_id": userID, "organizationId": orgID}, &basesvc.UpdateData{
		Set:   map[string]interface{}{"isActive": false},
		Unset: map[string]interface{}{"token": ""},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEmployees nhân viên đang hoạt động của tổ chức, lọc theo chức danh (rỗng = tất cả)
func (s *UserService) ListEmployees(ctx context.Context, orgID primitive.ObjectID, designations []string) ([]authmodels.User, error) {
	filter := bson.M{
		"organizationId": orgID,
		"role":           authmodels.RoleEmployee,
		"isActive":       true,
	}
	if len(designations) > 0 {
		filter["designation"] = bson.M{"$in": designations}
	}
	return s.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// NotificationEmails email của admin tổ chức và các user trong userIDs (đang hoạt động, có email)
func (s *UserService) NotificationEmails(ctx context.Context, orgID primitive.ObjectID, userIDs []string) ([]string, error) {
	or := bson.A{bson.M{"role": authmodels.RoleAdmin}}
	if ids := utility.StringArray2ObjectIDArray(userIDs); len(ids) > 0 {
		or = append(or, bson.M{"_id": bson.M{"$in": ids}})
	}
	filter := bson.M{
		"organizationId": orgID,
		"isActive":       true,
		"email":          bson.M{"$exists": true, "$ne": ""},
		"$or":            or,
	}
	users, err := s.Find(ctx, filter, options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if !utility.Contains(emails, u.Email) {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}

// CountByNode số nhân viên theo từng node phân cấp của tổ chức
func (s *UserService) CountByNode(ctx context.Context, orgID primitive.ObjectID, designations []string) (map[string]int, error) {
	users, err := s.ListEmployees(ctx, orgID, designations)
	if err != nil {
		return nil, err
	}
	return CountByNode(users), nil
}

// CountByNode đếm user theo node: một user được tính cho mọi node trên RegionHierarchy của mình
func CountByNode(users []authmodels.User) map[string]int {
	counts := make(map[string]int)
	for _, u := range users {
		seen := make(map[string]bool, len(u.RegionHierarchy))
		for _, id := range u.RegionHierarchy {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			counts[id]++
		}
	}
	return counts
}
