// Package perfsvc - service ghi nhận kết quả bán hàng theo chiến dịch.
package perfsvc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "incentive_hub/internal/api/base/service"
	campmodels "incentive_hub/internal/api/campaign/models"
	perfdto "incentive_hub/internal/api/performance/dto"
	perfmodels "incentive_hub/internal/api/performance/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/global"
	"incentive_hub/internal/logger"
)

// CampaignReader đọc chiến dịch thuộc tổ chức và xoá bảng xếp hạng đã cache khi kết quả thay đổi
type CampaignReader interface {
	Get(ctx context.Context, orgID, id primitive.ObjectID) (*campmodels.Campaign, error)
	InvalidateLeaderboard(campaignID primitive.ObjectID)
}

// PerformanceService là cấu trúc chứa các phương thức liên quan đến kết quả bán hàng
type PerformanceService struct {
	basesvc.BaseServiceMongo[perfmodels.UserPerformance]
	campaigns CampaignReader
	now       func() time.Time
}

// NewPerformanceService tạo service từ collection đã đăng ký
func NewPerformanceService() (*PerformanceService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.UserPerformances)
	if !exist {
		return nil, fmt.Errorf("failed to get user_performances collection: %v", common.ErrNotFound)
	}
	return NewPerformanceServiceWith(basesvc.NewBaseServiceMongo[perfmodels.UserPerformance](coll)), nil
}

// NewPerformanceServiceWith tạo service với store chỉ định
func NewPerformanceServiceWith(store basesvc.BaseServiceMongo[perfmodels.UserPerformance]) *PerformanceService {
	return &PerformanceService{BaseServiceMongo: store, now: time.Now}
}

// BindCampaigns gắn nguồn đọc chiến dịch. CampaignService cần PerformanceService khi khởi tạo nên gắn sau.
func (s *PerformanceService) BindCampaigns(campaigns CampaignReader) {
	s.campaigns = campaigns
}

// SetClock thay đồng hồ (dùng trong test)
func (s *PerformanceService) SetClock(now func() time.Time) {
	s.now = now
}

// Get kết quả của user trong chiến dịch; chưa có thì trả về tài liệu rỗng
func (s *PerformanceService) Get(ctx context.Context, orgID, campaignID, userID primitive.ObjectID) (*perfmodels.UserPerformance, error) {
	p, err := s.FindOne(ctx, bson.M{"_id": perfmodels.Key(userID, campaignID), "organizationId": orgID}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			empty := perfmodels.Empty(orgID, campaignID, userID)
			return &empty, nil
		}
		return nil, err
	}
	if p.Achievements == nil {
		p.Achievements = map[string]float64{}
	}
	return &p, nil
}

// writableCampaign chiến dịch đang chạy và user có chỉ tiêu trong đó
func (s *PerformanceService) writableCampaign(ctx context.Context, orgID, campaignID, userID primitive.ObjectID) (*campmodels.Campaign, error) {
	if s.campaigns == nil {
		return nil, common.NewError(common.ErrCodeInternalServer, "Chưa cấu hình nguồn chiến dịch", common.StatusInternalServerError, nil)
	}
	c, err := s.campaigns.Get(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != campmodels.StatusActive {
		return nil, common.NewStateError("Chỉ ghi nhận kết quả cho chiến dịch đang chạy", c.Status)
	}
	if _, ok := c.TargetFor(userID.Hex()); !ok {
		return nil, common.NewValidationError("Người dùng không có chỉ tiêu trong chiến dịch", userID.Hex())
	}
	return c, nil
}

func hasSku(c *campmodels.Campaign, skuID string) bool {
	for _, id := range c.SkuIDs() {
		if id == skuID {
			return true
		}
	}
	return false
}

func identity(orgID, campaignID, userID primitive.ObjectID) map[string]interface{} {
	return map[string]interface{}{
		"userId":         userID,
		"campaignId":     campaignID,
		"organizationId": orgID,
	}
}

// RecordEntry cộng kết quả vào SKU và lưu lịch sử trong một lệnh ($inc + $push, upsert)
func (s *PerformanceService) RecordEntry(ctx context.Context, orgID, campaignID, userID, recordedBy primitive.ObjectID, input *perfdto.EntryInput) (*perfmodels.UserPerformance, error) {
	c, err := s.writableCampaign(ctx, orgID, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if !hasSku(c, input.SkuID) {
		return nil, common.NewValidationError("SKU không thuộc chiến dịch", input.SkuID)
	}
	if input.Value <= 0 || math.IsNaN(input.Value) || math.IsInf(input.Value, 0) {
		return nil, common.NewValidationError("Giá trị ghi nhận phải là số dương", input.Value)
	}

	entry := perfmodels.Entry{
		SkuID:      input.SkuID,
		Value:      input.Value,
		Note:       input.Note,
		RecordedBy: recordedBy,
		RecordedAt: s.now().UnixMilli(),
	}
	update := &basesvc.UpdateData{
		SetOnInsert: identity(orgID, campaignID, userID),
		Inc:         map[string]interface{}{"achievements." + input.SkuID: input.Value},
		Push:        map[string]interface{}{"entries": entry},
	}
	updated, err := s.Upsert(ctx, bson.M{"_id": perfmodels.Key(userID, campaignID)}, update)
	if err != nil {
		return nil, err
	}
	s.campaigns.InvalidateLeaderboard(campaignID)
	logger.WithModule("performance").WithFields(logrus.Fields{
		"campaign_id": campaignID.Hex(),
		"user_id":     userID.Hex(),
		"sku_id":      input.SkuID,
		"value":       input.Value,
	}).Info("📈 [PERFORMANCE] Đã ghi nhận kết quả")
	return &updated, nil
}

// SetAchievements ghi đè kết quả theo SKU (admin điều chỉnh); lịch sử giữ nguyên
func (s *PerformanceService) SetAchievements(ctx context.Context, orgID, campaignID, userID primitive.ObjectID, values map[string]float64) (*perfmodels.UserPerformance, error) {
	c, err := s.writableCampaign(ctx, orgID, campaignID, userID)
	if err != nil {
		return nil, err
	}
	for skuID, v := range values {
		if !hasSku(c, skuID) {
			return nil, common.NewValidationError("SKU không thuộc chiến dịch", skuID)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, common.NewValidationError("Kết quả phải là số không âm", map[string]float64{skuID: v})
		}
	}

	onInsert := identity(orgID, campaignID, userID)
	onInsert["entries"] = []perfmodels.Entry{}
	update := &basesvc.UpdateData{
		Set:         map[string]interface{}{"achievements": values},
		SetOnInsert: onInsert,
	}
	updated, err := s.Upsert(ctx, bson.M{"_id": perfmodels.Key(userID, campaignID)}, update)
	if err != nil {
		return nil, err
	}
	s.campaigns.InvalidateLeaderboard(campaignID)
	return &updated, nil
}

// ListByCampaign kết quả của mọi nhân viên trong chiến dịch (không kèm lịch sử)
func (s *PerformanceService) ListByCampaign(ctx context.Context, orgID, campaignID primitive.ObjectID) ([]perfmodels.UserPerformance, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "userId", Value: 1}}).
		SetProjection(bson.M{"entries": 0})
	return s.Find(ctx, bson.M{"campaignId": campaignID, "organizationId": orgID}, opts)
}

// AchievementsByCampaign map userId → skuId → kết quả, dùng để tính bảng xếp hạng
func (s *PerformanceService) AchievementsByCampaign(ctx context.Context, campaignID primitive.ObjectID) (map[string]map[string]float64, error) {
	opts := options.Find().SetProjection(bson.M{"userId": 1, "achievements": 1})
	list, err := s.Find(ctx, bson.M{"campaignId": campaignID}, opts)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]float64, len(list))
	for _, p := range list {
		out[p.UserID.Hex()] = p.Achievements
	}
	return out, nil
}
