// Package models - model chiến dịch thưởng doanh số (Campaign).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"incentive_hub/internal/distribution"
	"incentive_hub/internal/leaderboard"
)

// Hình thức thi đua
const (
	ContestIndividual = "individual" // Xếp hạng từng nhân viên
	ContestRegional   = "regional"   // Xếp hạng theo khu vực
)

// Trạng thái chiến dịch
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Nguồn của chỉ tiêu theo người dùng
const (
	SourceDistribution = "distribution" // Sinh từ bảng phân bổ
	SourceCSV          = "csv"          // Upload file CSV, không bị phân bổ ghi đè trừ khi yêu cầu
)

// TargetConfig chỉ tiêu của một SKU trong chiến dịch
type TargetConfig struct {
	SkuID      string  `json:"skuId" bson:"skuId"`
	TargetType string  `json:"targetType" bson:"targetType"` // volume | value
	Target     float64 `json:"target" bson:"target"`
	Unit       string  `json:"unit,omitempty" bson:"unit,omitempty"`
	Weightage  float64 `json:"weightage,omitempty" bson:"weightage,omitempty"` // % trọng số trong điểm
}

// Prize giải thưởng theo thứ hạng
type Prize struct {
	Rank        int     `json:"rank" bson:"rank"`
	Title       string  `json:"title" bson:"title"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Value       float64 `json:"value,omitempty" bson:"value,omitempty"`
}

// Winner người (hoặc khu vực) đạt giải khi chiến dịch kết thúc
type Winner struct {
	Rank       int     `json:"rank" bson:"rank"`
	UserID     string  `json:"userId" bson:"userId"`
	UserName   string  `json:"userName" bson:"userName"`
	RegionName string  `json:"regionName,omitempty" bson:"regionName,omitempty"`
	Score      float64 `json:"score" bson:"score"`
	Prize      string  `json:"prize" bson:"prize"`
}

// Campaign tài liệu chiến dịch. Bảng phân bổ và chỉ tiêu người dùng được lưu lồng trong tài liệu.
type Campaign struct {
	ID                    primitive.ObjectID                  `json:"id,omitempty" bson:"_id,omitempty"`
	OrganizationID        primitive.ObjectID                  `json:"organizationId" bson:"organizationId" index:"single;compound:org_status"`
	Name                  string                              `json:"name" bson:"name" index:"text"`
	Description           string                              `json:"description,omitempty" bson:"description,omitempty"`
	ContestType           string                              `json:"contestType" bson:"contestType"`
	Status                string                              `json:"status" bson:"status" index:"compound:org_status;compound:status_dates"`
	StartDate             int64                               `json:"startDate" bson:"startDate" index:"compound:status_dates"`
	EndDate               int64                               `json:"endDate" bson:"endDate" index:"compound:status_dates"`
	TargetConfigs         []TargetConfig                      `json:"targetConfigs" bson:"targetConfigs"`
	SelectedRegions       []string                            `json:"selectedRegions" bson:"selectedRegions"`
	EligibleDesignations  []string                            `json:"eligibleDesignations" bson:"eligibleDesignations"`
	DistributionAlgorithm distribution.Algorithm              `json:"distributionAlgorithm" bson:"distributionAlgorithm"`
	DistributionWeights   map[string]float64                  `json:"distributionWeights,omitempty" bson:"distributionWeights,omitempty"`
	TotalTarget           float64                             `json:"totalTarget" bson:"totalTarget"`
	RegionalDistribution  []distribution.RegionalDistribution `json:"regionalDistribution" bson:"regionalDistribution"`
	UserTargets           []leaderboard.UserTarget            `json:"userTargets" bson:"userTargets"`
	UserTargetsSource     string                              `json:"userTargetsSource,omitempty" bson:"userTargetsSource,omitempty"`
	PrizeStructure        []Prize                             `json:"prizeStructure" bson:"prizeStructure"`
	Winners               []Winner                            `json:"winners,omitempty" bson:"winners,omitempty"`
	CreatedBy             primitive.ObjectID                  `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	ActivatedAt           int64                               `json:"activatedAt,omitempty" bson:"activatedAt,omitempty"`
	CompletedAt           int64                               `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt             int64                               `json:"createdAt" bson:"createdAt"`
	UpdatedAt             int64                               `json:"updatedAt" bson:"updatedAt"`
}

// SetOrganizationID gán tổ chức (BaseHandler gọi khi tạo mới)
func (c *Campaign) SetOrganizationID(id primitive.ObjectID) {
	c.OrganizationID = id
}

// CampaignKey id chiến dịch dùng để xoá cache leaderboard khi dữ liệu đổi
func (c Campaign) CampaignKey() primitive.ObjectID {
	return c.ID
}

// SkuConfigs cấu hình SKU cho tính điểm
func (c *Campaign) SkuConfigs() []leaderboard.SkuConfig {
	out := make([]leaderboard.SkuConfig, len(c.TargetConfigs))
	for i, tc := range c.TargetConfigs {
		out[i] = leaderboard.SkuConfig{SkuID: tc.SkuID, Weightage: tc.Weightage}
	}
	return out
}

// SkuIDs danh sách skuId theo thứ tự cấu hình
func (c *Campaign) SkuIDs() []string {
	out := make([]string, len(c.TargetConfigs))
	for i, tc := range c.TargetConfigs {
		out[i] = tc.SkuID
	}
	return out
}

// HasTargets chiến dịch đã có chỉ tiêu người dùng
func (c *Campaign) HasTargets() bool {
	return len(c.UserTargets) > 0
}

// TargetFor chỉ tiêu của userID
func (c *Campaign) TargetFor(userID string) (leaderboard.UserTarget, bool) {
	for _, ut := range c.UserTargets {
		if ut.UserID == userID {
			return ut, true
		}
	}
	return leaderboard.UserTarget{}, false
}

// Editable cho phép sửa phân bổ / chỉ tiêu (chưa kết thúc hoặc huỷ)
func (c *Campaign) Editable() bool {
	return c.Status == StatusDraft || c.Status == StatusActive
}

// PrizeFor giải thưởng cho thứ hạng rank
func (c *Campaign) PrizeFor(rank int) (Prize, bool) {
	for _, p := range c.PrizeStructure {
		if p.Rank == rank {
			return p, true
		}
	}
	return Prize{}, false
}
