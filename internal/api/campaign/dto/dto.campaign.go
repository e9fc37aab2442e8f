// Package campdto chứa DTO cho domain campaign (chiến dịch, phân bổ chỉ tiêu, bảng xếp hạng).
package campdto

import (
	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/internal/distribution"
	"incentive_hub/internal/leaderboard"
	"incentive_hub/internal/targetcsv"
)

// TargetConfigInput chỉ tiêu một SKU
type TargetConfigInput struct {
	SkuID      string  `json:"skuId" bson:"skuId" validate:"required"`
	TargetType string  `json:"targetType" bson:"targetType" validate:"required,oneof=volume value"`
	Target     float64 `json:"target" bson:"target" validate:"gte=0"`
	Unit       string  `json:"unit,omitempty" bson:"unit,omitempty" validate:"max=50"`
	Weightage  float64 `json:"weightage,omitempty" bson:"weightage,omitempty" validate:"gte=0,lte=100"`
}

// PrizeInput giải thưởng
type PrizeInput struct {
	Rank        int     `json:"rank" bson:"rank" validate:"required,min=1"`
	Title       string  `json:"title" bson:"title" validate:"required,max=200,no_xss"`
	Description string  `json:"description,omitempty" bson:"description,omitempty" validate:"max=1000,no_xss"`
	Value       float64 `json:"value,omitempty" bson:"value,omitempty" validate:"gte=0"`
}

// CampaignCreateInput dữ liệu tạo chiến dịch
type CampaignCreateInput struct {
	Name                  string              `json:"name" validate:"required,max=200,no_xss"`
	Description           string              `json:"description,omitempty" validate:"max=2000,no_xss"`
	ContestType           string              `json:"contestType" validate:"omitempty,oneof=individual regional"`
	StartDate             int64               `json:"startDate" validate:"required,gt=0"`
	EndDate               int64               `json:"endDate" validate:"required,gt=0"`
	TargetConfigs         []TargetConfigInput `json:"targetConfigs" validate:"required,min=1,dive"`
	SelectedRegions       []string            `json:"selectedRegions" validate:"dive,required"`
	EligibleDesignations  []string            `json:"eligibleDesignations" validate:"dive,required"`
	DistributionAlgorithm string              `json:"distributionAlgorithm,omitempty" validate:"omitempty,oneof=equal territory performance custom"`
	TotalTarget           float64             `json:"totalTarget" validate:"gte=0"`
	PrizeStructure        []PrizeInput        `json:"prizeStructure" validate:"dive"`
}

// CampaignUpdateInput cập nhật thông tin chiến dịch (chỉ field gửi lên)
type CampaignUpdateInput struct {
	Name                 string              `json:"name,omitempty" validate:"omitempty,max=200,no_xss"`
	Description          *string             `json:"description,omitempty" validate:"omitempty,max=2000,no_xss"`
	ContestType          string              `json:"contestType,omitempty" validate:"omitempty,oneof=individual regional"`
	StartDate            int64               `json:"startDate,omitempty" validate:"omitempty,gt=0"`
	EndDate              int64               `json:"endDate,omitempty" validate:"omitempty,gt=0"`
	TargetConfigs        []TargetConfigInput `json:"targetConfigs,omitempty" validate:"omitempty,min=1,dive"`
	SelectedRegions      []string            `json:"selectedRegions,omitempty" validate:"omitempty,dive,required"`
	EligibleDesignations []string            `json:"eligibleDesignations,omitempty" validate:"omitempty,dive,required"`
	TotalTarget          *float64            `json:"totalTarget,omitempty" validate:"omitempty,gte=0"`
	PrizeStructure       []PrizeInput        `json:"prizeStructure,omitempty" validate:"omitempty,dive"`
}

// CampaignListQuery bộ lọc danh sách chiến dịch
type CampaignListQuery struct {
	Status string
	Search string
	Page   int64
	Limit  int64
}

// DistributionInput tham số tính phân bổ. Field rỗng lấy theo chiến dịch.
type DistributionInput struct {
	Algorithm       string             `json:"algorithm,omitempty" validate:"omitempty,oneof=equal territory performance custom"`
	TotalTarget     *float64           `json:"totalTarget,omitempty" validate:"omitempty,gte=0"`
	SelectedRegions []string           `json:"selectedRegions,omitempty"`
	Weights         map[string]float64 `json:"weights,omitempty"`
	Custom          map[string]float64 `json:"custom,omitempty"`
	// Override = true thì ghi đè cả chỉ tiêu đã upload bằng CSV
	Override bool `json:"override,omitempty"`
}

// CustomDistributionInput chỉ tiêu nhập tay theo node lá
type CustomDistributionInput struct {
	Targets  map[string]float64 `json:"targets" validate:"required,min=1"`
	Override bool               `json:"override,omitempty"`
}

// DistributionResult kết quả phân bổ (xem trước hoặc đã lưu)
type DistributionResult struct {
	Algorithm    distribution.Algorithm              `json:"algorithm"`
	Distribution []distribution.RegionalDistribution `json:"distribution"`
	Summary      distribution.Summary                `json:"summary"`
	UserTargets  int                                 `json:"userTargets"`
	Saved        bool                                `json:"saved"`
	// CSVKept = true khi chỉ tiêu từ CSV được giữ nguyên
	CSVKept bool `json:"csvKept,omitempty"`
}

// UploadResult kết quả upload chỉ tiêu CSV
type UploadResult struct {
	Targets  int                 `json:"targets"`
	Warnings []targetcsv.Warning `json:"warnings"`
	Encoding string              `json:"encoding"`
}

// LeaderboardQuery bộ lọc bảng xếp hạng
type LeaderboardQuery struct {
	Region      string
	Designation string
	Limit       int
}

// LeaderboardView bảng xếp hạng trả về client
type LeaderboardView struct {
	CampaignID   string              `json:"campaignId"`
	ContestType  string              `json:"contestType"`
	Weighted     bool                `json:"weighted"`
	Participants int                 `json:"participants"`
	Entries      []leaderboard.Entry `json:"entries"`
}

// MyProgress tiến độ của nhân viên trong một chiến dịch
type MyProgress struct {
	Campaign     *CampaignSummary        `json:"campaign"`
	Target       *leaderboard.UserTarget `json:"target"`
	Entry        *leaderboard.Entry      `json:"entry"`
	Participants int                     `json:"participants"`
	Prize        *campmodels.Prize       `json:"prize,omitempty"`
}

// CampaignSummary thông tin rút gọn của chiến dịch cho nhân viên
type CampaignSummary struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description,omitempty"`
	ContestType    string                    `json:"contestType"`
	Status         string                    `json:"status"`
	StartDate      int64                     `json:"startDate"`
	EndDate        int64                     `json:"endDate"`
	TargetConfigs  []campmodels.TargetConfig `json:"targetConfigs"`
	PrizeStructure []campmodels.Prize        `json:"prizeStructure"`
}

// Summarize rút gọn chiến dịch (bỏ bảng phân bổ và chỉ tiêu của người khác)
func Summarize(c *campmodels.Campaign) *CampaignSummary {
	return &CampaignSummary{
		ID:             c.ID.Hex(),
		Name:           c.Name,
		Description:    c.Description,
		ContestType:    c.ContestType,
		Status:         c.Status,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		TargetConfigs:  c.TargetConfigs,
		PrizeStructure: c.PrizeStructure,
	}
}
