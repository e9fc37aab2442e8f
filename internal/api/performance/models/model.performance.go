// Package models - kết quả bán hàng của nhân viên trong một chiến dịch (UserPerformance).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry một lần ghi nhận kết quả
type Entry struct {
	SkuID      string             `json:"skuId" bson:"skuId"`
	Value      float64            `json:"value" bson:"value"`
	Note       string             `json:"note,omitempty" bson:"note,omitempty"`
	RecordedBy primitive.ObjectID `json:"recordedBy,omitempty" bson:"recordedBy,omitempty"`
	RecordedAt int64              `json:"recordedAt" bson:"recordedAt"`
}

// UserPerformance kết quả gộp theo SKU. _id = "<userId>_<campaignId>" nên mỗi cặp chỉ có một tài liệu.
type UserPerformance struct {
	ID             string             `json:"id" bson:"_id"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId" index:"single"`
	CampaignID     primitive.ObjectID `json:"campaignId" bson:"campaignId" index:"single;compound:org_campaign"`
	OrganizationID primitive.ObjectID `json:"organizationId" bson:"organizationId" index:"compound:org_campaign"`
	Achievements   map[string]float64 `json:"achievements" bson:"achievements"`
	Entries        []Entry            `json:"entries" bson:"entries"`
	CreatedAt      int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`
}

// Key khoá tài liệu của user trong chiến dịch
func Key(userID, campaignID primitive.ObjectID) string {
	return userID.Hex() + "_" + campaignID.Hex()
}

// Empty tài liệu chưa có kết quả
func Empty(orgID, campaignID, userID primitive.ObjectID) UserPerformance {
	return UserPerformance{
		ID:             Key(userID, campaignID),
		UserID:         userID,
		CampaignID:     campaignID,
		OrganizationID: orgID,
		Achievements:   map[string]float64{},
		Entries:        []Entry{},
	}
}

// CampaignKey id chiến dịch dùng để xoá cache leaderboard khi kết quả đổi
func (p UserPerformance) CampaignKey() primitive.ObjectID {
	return p.CampaignID
}

// Total tổng kết quả đã đạt của skuID
func (p *UserPerformance) Total(skuID string) float64 {
	return p.Achievements[skuID]
}
