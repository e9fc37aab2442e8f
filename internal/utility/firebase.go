package utility

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	firebaseApp  *firebase.App
	firebaseAuth *auth.Client
)

// findProjectDir tìm thư mục gốc (thư mục chứa config/env) từ working directory đi lên
func findProjectDir() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", fmt.Errorf("không tìm thấy thư mục chứa config/env")
		}
		currentDir = parentDir
	}
}

// resolveCredentialsPath: đường dẫn tương đối được tính từ thư mục gốc project
func resolveCredentialsPath(credentialsPath string) (string, error) {
	if credentialsPath == "" {
		return "", fmt.Errorf("firebase credentials path rỗng")
	}
	if !filepath.IsAbs(credentialsPath) {
		dir, err := findProjectDir()
		if err != nil {
			return "", err
		}
		credentialsPath = filepath.Join(dir, credentialsPath)
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return "", fmt.Errorf("firebase credentials file not found: %s", credentialsPath)
	}
	return credentialsPath, nil
}

// InitFirebase khởi tạo Firebase Admin SDK (dùng để xác thực ID token đăng nhập bằng số điện thoại)
func InitFirebase(projectID, credentialsPath string) error {
	path, err := resolveCredentialsPath(credentialsPath)
	if err != nil {
		return err
	}

	app, err := firebase.NewApp(context.Background(), &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(path))
	if err != nil {
		return fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}

	firebaseApp = app
	firebaseAuth = authClient
	return nil
}

// FirebaseReady cho biết Firebase đã được khởi tạo hay chưa
func FirebaseReady() bool {
	return firebaseAuth != nil
}

// VerifyIDToken xác thực Firebase ID token
func VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if firebaseAuth == nil {
		return nil, fmt.Errorf("firebase auth not initialized")
	}
	token, err := firebaseAuth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return token, nil
}

// GetUserByUID lấy thông tin user từ Firebase bằng UID
func GetUserByUID(ctx context.Context, uid string) (*auth.UserRecord, error) {
	if firebaseAuth == nil {
		return nil, fmt.Errorf("firebase auth not initialized")
	}
	user, err := firebaseAuth.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FirebaseIdentity thông tin danh tính lấy từ ID token
type FirebaseIdentity struct {
	UID   string
	Phone string
	Email string
}

// FirebaseVerifier xác thực ID token bằng Firebase Admin SDK đã khởi tạo qua InitFirebase
type FirebaseVerifier struct{}

// Verify xác thực token, bổ sung phone/email từ Firebase user record khi token thiếu claim
func (FirebaseVerifier) Verify(ctx context.Context, idToken string) (*FirebaseIdentity, error) {
	token, err := VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	identity := &FirebaseIdentity{UID: token.UID}
	if v, ok := token.Claims["phone_number"].(string); ok {
		identity.Phone = v
	}
	if v, ok := token.Claims["email"].(string); ok {
		identity.Email = v
	}
	if identity.Phone == "" && identity.Email == "" {
		if record, err := GetUserByUID(ctx, token.UID); err == nil {
			identity.Phone = record.PhoneNumber
			identity.Email = record.Email
		}
	}
	return identity, nil
}
