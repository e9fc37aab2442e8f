// Package perfdto chứa DTO cho domain performance (ghi nhận kết quả bán hàng).
package perfdto

// EntryInput ghi nhận thêm một kết quả cho SKU
type EntryInput struct {
	SkuID string  `json:"skuId" validate:"required"`
	Value float64 `json:"value" validate:"gt=0"`
	Note  string  `json:"note,omitempty" validate:"max=500,no_xss"`
}

// AchievementsInput ghi đè kết quả theo SKU (admin điều chỉnh)
type AchievementsInput struct {
	Achievements map[string]float64 `json:"achievements" validate:"required"`
}
