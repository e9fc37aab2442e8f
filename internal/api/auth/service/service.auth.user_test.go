package authsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	authdto "incentive_hub/internal/api/auth/dto"
	authmodels "incentive_hub/internal/api/auth/models"
	basesvc "incentive_hub/internal/api/base/service"
	"incentive_hub/internal/common"
	"incentive_hub/internal/utility"
)

// fakeUsers giả lập collection users trong bộ nhớ (chỉ các method service dùng)
type fakeUsers struct {
	basesvc.BaseServiceMongo[authmodels.User]
	users []authmodels.User
}

func (f *fakeUsers) FindOne(ctx context.Context, filter interface{}, _ *options.FindOneOptions) (authmodels.User, error) {
	m := filter.(bson.M)
	for _, u := range f.users {
		if phone, ok := m["phone"]; ok && u.Phone == phone {
			return u, nil
		}
		if uid, ok := m["firebaseUid"]; ok && u.FirebaseUID == uid {
			return u, nil
		}
	}
	return authmodels.User{}, common.ErrNotFound
}

func (f *fakeUsers) FindOneById(ctx context.Context, id primitive.ObjectID) (authmodels.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return authmodels.User{}, common.ErrNotFound
}

func (f *fakeUsers) UpdateById(ctx context.Context, id primitive.ObjectID, data interface{}) (authmodels.User, error) {
	update := data.(*basesvc.UpdateData)
	for i := range f.users {
		u := &f.users[i]
		if u.ID != id {
			continue
		}
		for k, v := range update.Set {
			switch k {
			case "token":
				u.Token = v.(string)
			case "firebaseUid":
				u.FirebaseUID = v.(string)
			case "email":
				u.Email = v.(string)
			case "lastLoginAt":
				u.LastLoginAt = v.(int64)
			}
		}
		if _, ok := update.Unset["token"]; ok {
			u.Token = ""
		}
		return *u, nil
	}
	return authmodels.User{}, common.ErrNotFound
}

func (f *fakeUsers) InsertOne(ctx context.Context, data authmodels.User) (authmodels.User, error) {
	data.ID = primitive.NewObjectID()
	f.users = append(f.users, data)
	return data, nil
}

type fakeVerifier struct {
	identity *utility.FirebaseIdentity
	err      error
}

func (v fakeVerifier) Verify(ctx context.Context, idToken string) (*utility.FirebaseIdentity, error) {
	return v.identity, v.err
}

var loginTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestService(users []authmodels.User, identity *utility.FirebaseIdentity) (*UserService, *fakeUsers) {
	store := &fakeUsers{users: users}
	svc := NewUserServiceWith(store, fakeVerifier{identity: identity}, "test-secret", 24*time.Hour)
	svc.SetClock(func() time.Time { return loginTime })
	return svc, store
}

func TestLoginAndResolveSession(t *testing.T) {
	ctx := context.Background()
	orgID := primitive.NewObjectID()
	user := authmodels.User{ID: primitive.NewObjectID(), Name: "Lan", Phone: "+84901234567", Role: authmodels.RoleEmployee, OrganizationID: orgID, IsActive: true}
	svc, store := newTestService([]authmodels.User{user}, &utility.FirebaseIdentity{UID: "fb-1", Phone: "+84 901 234 567", Email: "lan@example.com"})

	res, err := svc.LoginWithFirebase(ctx, &authdto.FirebaseLoginInput{IDToken: "id-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, user.ID, res.Session.UserID)
	assert.Equal(t, orgID, res.Session.OrganizationID)
	assert.Equal(t, loginTime.Add(24*time.Hour), res.Session.ExpiresAt.UTC())
	assert.Equal(t, res.Token, store.users[0].Token)
	assert.Equal(t, "fb-1", store.users[0].FirebaseUID)
	assert.Equal(t, "lan@example.com", store.users[0].Email)

	// Phiên hợp lệ trong thời hạn
	svc.SetClock(func() time.Time { return loginTime.Add(time.Hour) })
	session, err := svc.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, authmodels.RoleEmployee, session.Role)
	assert.Equal(t, int64(23*3600), svc.SessionInfo(session).RemainingSeconds)

	// Hết hạn được phát hiện khi kiểm tra
	svc.SetClock(func() time.Time { return loginTime.Add(25 * time.Hour) })
	_, err = svc.ResolveSession(ctx, res.Token)
	assert.True(t, errors.Is(err, common.ErrTokenExpired))

	// Đăng xuất vô hiệu token
	svc.SetClock(func() time.Time { return loginTime.Add(time.Hour) })
	require.NoError(t, svc.Logout(ctx, user.ID))
	_, err = svc.ResolveSession(ctx, res.Token)
	assert.True(t, errors.Is(err, common.ErrTokenInvalid))

	_, err = svc.ResolveSession(ctx, "not-a-jwt")
	assert.True(t, errors.Is(err, common.ErrTokenInvalid))
}

func TestLoginMatchesByFirebaseUID(t *testing.T) {
	user := authmodels.User{ID: primitive.NewObjectID(), FirebaseUID: "fb-9", Role: authmodels.RoleAdmin, IsActive: true}
	svc, _ := newTestService([]authmodels.User{user}, &utility.FirebaseIdentity{UID: "fb-9"})

	res, err := svc.LoginWithFirebase(context.Background(), &authdto.FirebaseLoginInput{IDToken: "x"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
}

func TestLoginRejected(t *testing.T) {
	active := authmodels.User{ID: primitive.NewObjectID(), Phone: "+84900000001", FirebaseUID: "fb-other", IsActive: true}
	inactive := authmodels.User{ID: primitive.NewObjectID(), Phone: "+84900000002", IsActive: false}

	tests := []struct {
		name     string
		identity *utility.FirebaseIdentity
		verify   error
		status   int
		code     string
	}{
		{name: "token sai", verify: errors.New("bad token"), status: common.StatusUnauthorized, code: "AUTH_002"},
		{name: "số chưa đăng ký", identity: &utility.FirebaseIdentity{UID: "fb-x", Phone: "+84999999999"}, status: common.StatusForbidden, code: "AUTH_002"},
		{name: "tài khoản bị khoá", identity: &utility.FirebaseIdentity{UID: "fb-2", Phone: "0900000002"}, status: common.StatusForbidden, code: "AUTH"},
		{name: "uid khác tài khoản", identity: &utility.FirebaseIdentity{UID: "fb-1", Phone: "+84900000001"}, status: common.StatusConflict, code: "AUTH_002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUsers{users: []authmodels.User{active, inactive}}
			svc := NewUserServiceWith(store, fakeVerifier{identity: tt.identity, err: tt.verify}, "s", time.Hour)

			_, err := svc.LoginWithFirebase(context.Background(), &authdto.FirebaseLoginInput{IDToken: "x"})
			var appErr *common.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.code, appErr.Code.Code)
			if tt.verify != nil {
				assert.ErrorIs(t, err, common.ErrInvalidCredentials)
			}
		})
	}
}

func TestBuildUserFilter(t *testing.T) {
	orgID := primitive.NewObjectID()
	f := BuildUserFilter(orgID, &authdto.UserListQuery{Role: "employee", Region: "r1", Search: "a.b"})
	assert.Equal(t, orgID, f["organizationId"])
	assert.Equal(t, "employee", f["role"])
	assert.Equal(t, "r1", f["regionHierarchy"])
	or := f["$or"].(bson.A)
	assert.Equal(t, `a\.b`, or[0].(bson.M)["name"].(bson.M)["$regex"])

	assert.Len(t, BuildUserFilter(orgID, nil), 1)
}

func TestCountByNode(t *testing.T) {
	users := []authmodels.User{
		{RegionHierarchy: []string{"r1", "c1", "b1"}},
		{RegionHierarchy: []string{"r1", "c1", "b2"}},
		{RegionHierarchy: []string{"r1", "c2"}},
		{RegionHierarchy: []string{"r2", "r2"}},
		{},
	}
	assert.Equal(t, map[string]int{"r1": 3, "c1": 2, "b1": 1, "b2": 1, "c2": 1, "r2": 1}, CountByNode(users))
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	orgID := primitive.NewObjectID()
	svc, store := newTestService(nil, nil)

	admin, created, err := svc.EnsureAdmin(ctx, orgID, "0901 234 567", "Quản trị")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "+84901234567", admin.Phone)
	assert.Equal(t, authmodels.RoleAdmin, admin.Role)
	assert.Equal(t, orgID, admin.OrganizationID)

	again, created, err := svc.EnsureAdmin(ctx, orgID, "+84901234567", "Khác")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
	assert.Len(t, store.users, 1)

	_, _, err = svc.EnsureAdmin(ctx, orgID, "abc", "x")
	assert.Error(t, err)
}
