package global

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var skuCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-\.]{0,31}$`)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("sku_code", validateSkuCode)
	_ = Validate.RegisterValidation("hierarchy_level", validateHierarchyLevel)
	_ = Validate.RegisterValidation("object_id", validateObjectID)
	_ = Validate.RegisterValidation("exists", validateExists)
}

// validateNoXSS kiểm tra XSS
func validateNoXSS(fl validator.FieldLevel) bool {
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"onmouseover=",
		"eval(",
		"document.cookie",
		"document.write",
		"innerhtml",
		"fromcharcode",
		"window.location",
		"<iframe",
		"<object",
		"<embed",
	}

	value := strings.ToLower(fl.Field().String())
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateSkuCode: mã SKU dùng làm tên cột CSV nên không được có dấu phẩy, khoảng trắng
func validateSkuCode(fl validator.FieldLevel) bool {
	return skuCodePattern.MatchString(fl.Field().String())
}

// validateHierarchyLevel: cấp phân cấp 1 (Region) .. 4 (Channel)
func validateHierarchyLevel(fl validator.FieldLevel) bool {
	v := fl.Field().Int()
	return v >= 1 && v <= 4
}

// validateObjectID kiểm tra chuỗi hex ObjectID. Chuỗi rỗng hợp lệ (kết hợp với required nếu bắt buộc)
func validateObjectID(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" {
		return true
	}
	return primitive.IsValidObjectID(v)
}

// validateExists kiểm tra ObjectID tồn tại trong collection
// Format: validate:"exists=<collection_name>"
func validateExists(fl validator.FieldLevel) bool {
	collectionName := fl.Param()
	if collectionName == "" {
		return false
	}

	var objID primitive.ObjectID
	switch v := fl.Field().Interface().(type) {
	case string:
		if v == "" {
			return true
		}
		var err error
		objID, err = primitive.ObjectIDFromHex(v)
		if err != nil {
			return false
		}
	case primitive.ObjectID:
		if v.IsZero() {
			return true
		}
		objID = v
	default:
		return false
	}

	collection, ok := RegistryCollections.Get(collectionName)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	count, err := collection.CountDocuments(ctx, bson.M{"_id": objID})
	return err == nil && count > 0
}
