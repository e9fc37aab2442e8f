package campsvc

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "incentive_hub/internal/api/base/service"
	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/leaderboard"
	"incentive_hub/internal/logger"
)

// SelectWinners ghép giải thưởng với thứ hạng tương ứng. Dòng có điểm 0 không nhận giải.
func SelectWinners(c *campmodels.Campaign, entries []leaderboard.Entry) []campmodels.Winner {
	prizes := append([]campmodels.Prize{}, c.PrizeStructure...)
	sort.SliceStable(prizes, func(i, j int) bool { return prizes[i].Rank < prizes[j].Rank })

	winners := []campmodels.Winner{}
	for _, p := range prizes {
		if p.Rank < 1 || p.Rank > len(entries) {
			continue
		}
		e := entries[p.Rank-1]
		if e.Score <= 0 {
			continue
		}
		winners = append(winners, campmodels.Winner{
			Rank:       e.Rank,
			UserID:     e.UserID,
			UserName:   e.UserName,
			RegionName: e.RegionName,
			Score:      e.Score,
			Prize:      p.Title,
		})
	}
	return winners
}

// transition đổi trạng thái có điều kiện: chỉ áp dụng khi trạng thái hiện tại nằm trong from
func (s *CampaignService) transition(ctx context.Context, c *campmodels.Campaign, to string, from []string, extra map[string]interface{}) (*campmodels.Campaign, error) {
	set := map[string]interface{}{"status": to}
	for k, v := range extra {
		set[k] = v
	}
	filter := bson.M{"_id": c.ID, "organizationId": c.OrganizationID, "status": bson.M{"$in": from}}
	updated, err := s.UpdateOne(ctx, filter, &basesvc.UpdateData{Set: set}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewStateError(fmt.Sprintf("Không thể chuyển chiến dịch từ %s sang %s", c.Status, to), c.Status)
		}
		return nil, err
	}
	logger.WithModule("campaign").WithFields(logrus.Fields{
		"campaign_id": c.ID.Hex(),
		"from":        c.Status,
		"to":          to,
	}).Info("🏆 [CAMPAIGN] Đổi trạng thái chiến dịch")
	return &updated, nil
}

// ActivateCampaign kích hoạt chiến dịch nháp đã có chỉ tiêu
func (s *CampaignService) ActivateCampaign(ctx context.Context, c *campmodels.Campaign) (*campmodels.Campaign, error) {
	if c.Status != campmodels.StatusDraft {
		return nil, common.NewStateError("Chỉ kích hoạt được chiến dịch nháp", c.Status)
	}
	if !c.HasTargets() {
		return nil, common.NewStateError("Chiến dịch chưa có chỉ tiêu người dùng", nil)
	}
	return s.transition(ctx, c, campmodels.StatusActive, []string{campmodels.StatusDraft},
		map[string]interface{}{"activatedAt": s.now().UnixMilli()})
}

// Activate kích hoạt chiến dịch theo id
func (s *CampaignService) Activate(ctx context.Context, orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.ActivateCampaign(ctx, c)
}

// Cancel huỷ chiến dịch nháp hoặc đang chạy
func (s *CampaignService) Cancel(ctx context.Context, orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !c.Editable() {
		return nil, common.NewStateError("Chiến dịch đã kết thúc hoặc đã huỷ", c.Status)
	}
	return s.transition(ctx, c, campmodels.StatusCancelled, []string{campmodels.StatusDraft, campmodels.StatusActive}, nil)
}

// CompleteCampaign chốt bảng xếp hạng cuối, xác định người thắng, rồi gửi thông báo
func (s *CampaignService) CompleteCampaign(ctx context.Context, c *campmodels.Campaign) (*campmodels.Campaign, error) {
	if c.Status != campmodels.StatusActive {
		return nil, common.NewStateError("Chỉ kết thúc được chiến dịch đang chạy", c.Status)
	}
	entries, err := s.rankings(ctx, c)
	if err != nil {
		return nil, err
	}
	if c.ContestType == campmodels.ContestRegional {
		entries = leaderboard.ByRegion(c.SkuConfigs(), entries)
	}
	winners := SelectWinners(c, entries)

	completed, err := s.transition(ctx, c, campmodels.StatusCompleted, []string{campmodels.StatusActive},
		map[string]interface{}{"winners": winners, "completedAt": s.now().UnixMilli()})
	if err != nil {
		return nil, err
	}
	s.invalidate(c.ID)
	s.notifyResults(ctx, completed)
	return completed, nil
}

// Complete kết thúc chiến dịch theo id
func (s *CampaignService) Complete(ctx context.Context, orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.CompleteCampaign(ctx, c)
}

// notifyResults gửi email kết quả; lỗi chỉ được log
func (s *CampaignService) notifyResults(ctx context.Context, c *campmodels.Campaign) {
	if s.deps.Notifier == nil || s.deps.Users == nil {
		return
	}
	log := logger.WithModule("campaign").WithField("campaign_id", c.ID.Hex())
	ids := make([]string, 0, len(c.Winners))
	for _, w := range c.Winners {
		ids = append(ids, w.UserID)
	}
	recipients, err := s.deps.Users.NotificationEmails(ctx, c.OrganizationID, ids)
	if err != nil {
		log.WithError(err).Warn("📧 [CAMPAIGN] Không lấy được danh sách email nhận kết quả")
		return
	}
	if err := s.deps.Notifier.SendCampaignResults(ctx, c, recipients); err != nil {
		log.WithError(err).Warn("📧 [CAMPAIGN] Gửi email kết quả thất bại")
	}
}

// DueForActivation chiến dịch nháp đã tới ngày bắt đầu và có chỉ tiêu
func (s *CampaignService) DueForActivation(ctx context.Context, nowMs int64) ([]campmodels.Campaign, error) {
	filter := bson.M{
		"status":        campmodels.StatusDraft,
		"startDate":     bson.M{"$lte": nowMs},
		"endDate":       bson.M{"$gt": nowMs},
		"userTargets.0": bson.M{"$exists": true},
	}
	return s.Find(ctx, filter, options.Find().SetLimit(100))
}

// DueForCompletion chiến dịch đang chạy đã qua ngày kết thúc
func (s *CampaignService) DueForCompletion(ctx context.Context, nowMs int64) ([]campmodels.Campaign, error) {
	filter := bson.M{
		"status":  campmodels.StatusActive,
		"endDate": bson.M{"$lt": nowMs},
	}
	return s.Find(ctx, filter, options.Find().SetLimit(100))
}
