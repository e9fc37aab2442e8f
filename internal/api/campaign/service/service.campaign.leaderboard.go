package campsvc

import (
	"context"
	"io"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	authmodels "incentive_hub/internal/api/auth/models"
	campdto "incentive_hub/internal/api/campaign/dto"
	campmodels "incentive_hub/internal/api/campaign/models"
	"incentive_hub/internal/api/events"
	"incentive_hub/internal/common"
	"incentive_hub/internal/csvio"
	"incentive_hub/internal/global"
	"incentive_hub/internal/leaderboard"
	"incentive_hub/internal/targetcsv"
)

const leaderboardCachePrefix = "leaderboard:"

func cacheKey(id primitive.ObjectID) string {
	return leaderboardCachePrefix + id.Hex()
}

// invalidate xoá bảng xếp hạng đã cache của chiến dịch
func (s *CampaignService) invalidate(id primitive.ObjectID) {
	if s.deps.Cache != nil {
		s.deps.Cache.Delete(cacheKey(id))
	}
}

// InvalidateLeaderboard xoá bảng xếp hạng đã cache của chiến dịch ngay trong request ghi kết quả
func (s *CampaignService) InvalidateLeaderboard(campaignID primitive.ObjectID) {
	s.invalidate(campaignID)
}

// campaignKeyed tài liệu gắn với một chiến dịch (campaign, user performance)
type campaignKeyed interface {
	CampaignKey() primitive.ObjectID
}

// HandleDataChanged xoá cache bảng xếp hạng khi chiến dịch hoặc kết quả thay đổi.
// Thao tác hàng loạt (không có document) xoá toàn bộ cache.
func (s *CampaignService) HandleDataChanged(ctx context.Context, e events.DataChangeEvent) {
	if s.deps.Cache == nil {
		return
	}
	if e.CollectionName != global.MongoDB_ColNames.Campaigns && e.CollectionName != global.MongoDB_ColNames.UserPerformances {
		return
	}
	if doc, ok := e.Document.(campaignKeyed); ok {
		s.invalidate(doc.CampaignKey())
		return
	}
	s.deps.Cache.DeletePrefix(leaderboardCachePrefix)
}

// rankings bảng xếp hạng cá nhân đầy đủ của chiến dịch (có cache)
func (s *CampaignService) rankings(ctx context.Context, c *campmodels.Campaign) ([]leaderboard.Entry, error) {
	key := cacheKey(c.ID)
	if s.deps.Cache != nil {
		if v, ok := s.deps.Cache.Get(key); ok {
			if entries, ok := v.([]leaderboard.Entry); ok {
				return entries, nil
			}
		}
	}
	achieved, err := s.deps.Achievements.AchievementsByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	entries := leaderboard.Build(c.SkuConfigs(), c.UserTargets, achieved)
	if s.deps.Cache != nil {
		s.deps.Cache.Set(key, entries)
	}
	return entries, nil
}

// FilterEntries lọc theo khu vực (node bất kỳ trên đường đi của nhân viên) và chức danh.
// users chứa nhân viên thoả bộ lọc chức danh; nil khi không lọc.
func FilterEntries(entries []leaderboard.Entry, q *campdto.LeaderboardQuery, users map[string]authmodels.User) []leaderboard.Entry {
	if q == nil || (q.Region == "" && q.Designation == "") {
		return entries
	}
	return leaderboard.Filter(entries, func(e leaderboard.Entry) bool {
		u, known := users[e.UserID]
		if q.Designation != "" && !known {
			return false
		}
		if q.Region != "" && e.RegionID != q.Region && !(known && u.BelongsTo(q.Region)) {
			return false
		}
		return true
	})
}

// Leaderboard bảng xếp hạng của chiến dịch theo bộ lọc; thi đua theo vùng thì gộp theo khu vực
func (s *CampaignService) Leaderboard(ctx context.Context, orgID, id primitive.ObjectID, q *campdto.LeaderboardQuery) (*campdto.LeaderboardView, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = &campdto.LeaderboardQuery{}
	}

	var entries []leaderboard.Entry
	var users map[string]authmodels.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.rankings(gctx, c)
		return err
	})
	if q.Region != "" || q.Designation != "" {
		g.Go(func() error {
			var designations []string
			if q.Designation != "" {
				designations = []string{q.Designation}
			}
			list, err := s.deps.Users.ListEmployees(gctx, orgID, designations)
			if err != nil {
				return err
			}
			users = make(map[string]authmodels.User, len(list))
			for _, u := range list {
				users[u.ID.Hex()] = u
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries = FilterEntries(entries, q, users)
	if c.ContestType == campmodels.ContestRegional {
		entries = leaderboard.ByRegion(c.SkuConfigs(), entries)
	}
	return &campdto.LeaderboardView{
		CampaignID:   c.ID.Hex(),
		ContestType:  c.ContestType,
		Weighted:     leaderboard.HasWeightage(c.SkuConfigs()),
		Participants: len(entries),
		Entries:      leaderboard.Top(entries, q.Limit),
	}, nil
}

// LeaderboardExport dữ liệu để xuất CSV: bảng xếp hạng đầy đủ và cột SKU
func (s *CampaignService) LeaderboardExport(ctx context.Context, orgID, id primitive.ObjectID, q *campdto.LeaderboardQuery) (*campdto.LeaderboardView, []targetcsv.Column, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, nil, err
	}
	cols, err := s.columns(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	full := campdto.LeaderboardQuery{}
	if q != nil {
		full = *q
		full.Limit = 0
	}
	view, err := s.Leaderboard(ctx, orgID, id, &full)
	if err != nil {
		return nil, nil, err
	}
	return view, cols, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteLeaderboardCSV ghi bảng xếp hạng: rank,user_id,user_name,region,score rồi <mã>_target,<mã>_achieved,<mã>_pct từng SKU
func WriteLeaderboardCSV(w io.Writer, view *campdto.LeaderboardView, cols []targetcsv.Column) error {
	cw, err := csvio.NewWriter(w, true)
	if err != nil {
		return err
	}
	header := []string{"rank", "user_id", "user_name", "region", "score"}
	for _, c := range cols {
		header = append(header, c.Code+"_target", c.Code+"_achieved", c.Code+"_pct")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range view.Entries {
		row := []string{strconv.Itoa(e.Rank), e.UserID, e.UserName, e.RegionName, formatNumber(e.Score)}
		bySku := make(map[string]leaderboard.SkuScore, len(e.Skus))
		for _, sc := range e.Skus {
			bySku[sc.SkuID] = sc
		}
		for _, c := range cols {
			sc := bySku[c.SkuID]
			row = append(row, formatNumber(sc.Target), formatNumber(sc.Achieved), formatNumber(sc.Percentage))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ====================================
// GÓC NHÌN NHÂN VIÊN
// ====================================

// visibleStatuses trạng thái nhân viên được xem
var visibleStatuses = []string{campmodels.StatusActive, campmodels.StatusCompleted}

// MyProgress chỉ tiêu, kết quả và thứ hạng của nhân viên trong chiến dịch
func (s *CampaignService) MyProgress(ctx context.Context, orgID, id, userID primitive.ObjectID) (*campdto.MyProgress, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	target, ok := c.TargetFor(userID.Hex())
	if !ok || c.Status == campmodels.StatusDraft || c.Status == campmodels.StatusCancelled {
		return nil, common.NewError(common.ErrCodeDatabaseQuery, "Bạn không tham gia chiến dịch này", common.StatusNotFound, id.Hex())
	}
	entries, err := s.rankings(ctx, c)
	if err != nil {
		return nil, err
	}

	progress := &campdto.MyProgress{
		Campaign:     campdto.Summarize(c),
		Target:       &target,
		Participants: len(entries),
	}
	if entry, ok := leaderboard.FindUser(entries, userID.Hex()); ok {
		progress.Entry = &entry
		if c.ContestType != campmodels.ContestRegional {
			if prize, ok := c.PrizeFor(entry.Rank); ok {
				progress.Prize = &prize
			}
		}
	}
	return progress, nil
}

// ListForEmployee chiến dịch đang chạy / đã kết thúc có chỉ tiêu của nhân viên
func (s *CampaignService) ListForEmployee(ctx context.Context, orgID, userID primitive.ObjectID) ([]*campdto.CampaignSummary, error) {
	filter := bson.M{
		"organizationId":     orgID,
		"status":             bson.M{"$in": visibleStatuses},
		"userTargets.userId": userID.Hex(),
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: -1}}).
		SetProjection(bson.M{"userTargets": 0, "regionalDistribution": 0})
	list, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*campdto.CampaignSummary, len(list))
	for i := range list {
		out[i] = campdto.Summarize(&list[i])
	}
	return out, nil
}
