// Package campsvc - service chiến dịch: CRUD, phân bổ chỉ tiêu, upload CSV, vòng đời, bảng xếp hạng.
package campsvc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	authmodels "incentive_hub/internal/api/auth/models"
	basemodels "incentive_hub/internal/api/base/models"
	basesvc "incentive_hub/internal/api/base/service"
	campdto "incentive_hub/internal/api/campaign/dto"
	campmodels "incentive_hub/internal/api/campaign/models"
	orgmodels "incentive_hub/internal/api/organization/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/distribution"
	"incentive_hub/internal/global"
	"incentive_hub/internal/hierarchy"
	"incentive_hub/internal/leaderboard"
	"incentive_hub/internal/utility"
)

// OrganizationReader đọc cấu hình tổ chức (cây phân cấp, SKU, chức danh)
type OrganizationReader interface {
	Current(ctx context.Context, orgID primitive.ObjectID) (*orgmodels.Organization, error)
}

// UserDirectory tra cứu nhân viên của tổ chức
type UserDirectory interface {
	ListEmployees(ctx context.Context, orgID primitive.ObjectID, designations []string) ([]authmodels.User, error)
	NotificationEmails(ctx context.Context, orgID primitive.ObjectID, userIDs []string) ([]string, error)
}

// AchievementReader kết quả đạt được theo user → sku của một chiến dịch
type AchievementReader interface {
	AchievementsByCampaign(ctx context.Context, campaignID primitive.ObjectID) (map[string]map[string]float64, error)
}

// ResultNotifier gửi thông báo kết quả khi chiến dịch kết thúc
type ResultNotifier interface {
	SendCampaignResults(ctx context.Context, campaign *campmodels.Campaign, recipients []string) error
}

// Dependencies các service mà CampaignService cần
type Dependencies struct {
	Organizations OrganizationReader
	Users         UserDirectory
	Achievements  AchievementReader
	Notifier      ResultNotifier // nil = không gửi thông báo
	Cache         *utility.Cache // nil = không cache bảng xếp hạng
}

// CampaignService là cấu trúc chứa các phương thức liên quan đến chiến dịch
type CampaignService struct {
	basesvc.BaseServiceMongo[campmodels.Campaign]
	deps Dependencies
	now  func() time.Time
}

// NewCampaignService tạo CampaignService từ collection đã đăng ký; cache bảng xếp hạng theo LEADERBOARD_CACHE_TTL
func NewCampaignService(deps Dependencies) (*CampaignService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Campaigns)
	if !exist {
		return nil, fmt.Errorf("failed to get campaigns collection: %v", common.ErrNotFound)
	}
	if deps.Cache == nil && global.MongoDB_ServerConfig != nil && global.MongoDB_ServerConfig.LeaderboardCacheTTL > 0 {
		ttl := global.MongoDB_ServerConfig.LeaderboardCacheTTL
		deps.Cache = utility.NewCache(ttl, 2*ttl)
	}
	return NewCampaignServiceWith(basesvc.NewBaseServiceMongo[campmodels.Campaign](coll), deps), nil
}

// NewCampaignServiceWith tạo service với store chỉ định
func NewCampaignServiceWith(store basesvc.BaseServiceMongo[campmodels.Campaign], deps Dependencies) *CampaignService {
	return &CampaignService{BaseServiceMongo: store, deps: deps, now: time.Now}
}

// SetClock thay đồng hồ (dùng trong test)
func (s *CampaignService) SetClock(now func() time.Time) {
	s.now = now
}

// Get chiến dịch thuộc tổ chức
func (s *CampaignService) Get(ctx context.Context, orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
	c, err := s.FindOne(ctx, bson.M{"_id": id, "organizationId": orgID}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrCodeDatabaseQuery, "Chiến dịch không tồn tại", common.StatusNotFound, id.Hex())
		}
		return nil, err
	}
	return &c, nil
}

// getEditable chiến dịch còn cho phép sửa phân bổ / chỉ tiêu
func (s *CampaignService) getEditable(ctx context.Context, orgID, id primitive.ObjectID) (*campmodels.Campaign, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !c.Editable() {
		return nil, common.NewStateError(fmt.Sprintf("Chiến dịch đang ở trạng thái %s, không thể chỉnh sửa", c.Status), c.Status)
	}
	return c, nil
}

// ====================================
// KIỂM TRA HỢP LỆ
// ====================================

// ValidateCampaign kiểm tra chiến dịch với cấu hình tổ chức: ngày, SKU, khu vực, chức danh, giải thưởng
func ValidateCampaign(c *campmodels.Campaign, org *orgmodels.Organization) error {
	if c.StartDate >= c.EndDate {
		return common.NewValidationError("Ngày kết thúc phải sau ngày bắt đầu", map[string]int64{"startDate": c.StartDate, "endDate": c.EndDate})
	}
	if len(c.TargetConfigs) == 0 {
		return common.NewValidationError("Chiến dịch cần ít nhất một SKU", nil)
	}
	seen := map[string]bool{}
	weightage := 0.0
	for _, tc := range c.TargetConfigs {
		if _, ok := org.FindSKU(tc.SkuID); !ok {
			return common.NewValidationError("SKU không tồn tại trong tổ chức", tc.SkuID)
		}
		if seen[tc.SkuID] {
			return common.NewValidationError("SKU bị lặp trong cấu hình chỉ tiêu", tc.SkuID)
		}
		seen[tc.SkuID] = true
		weightage += tc.Weightage
	}
	if weightage > 100 {
		return common.NewValidationError("Tổng trọng số SKU không được vượt quá 100%", weightage)
	}

	idx := hierarchy.Index(org.HierarchyLevels)
	for _, id := range c.SelectedRegions {
		if _, ok := idx[id]; !ok {
			return common.NewValidationError("Khu vực được chọn không tồn tại trong cây phân cấp", id)
		}
	}
	for _, d := range c.EligibleDesignations {
		if !org.HasDesignation(d) {
			return common.NewValidationError("Chức danh không tồn tại trong tổ chức", d)
		}
	}
	ranks := map[int]bool{}
	for _, p := range c.PrizeStructure {
		if ranks[p.Rank] {
			return common.NewValidationError("Thứ hạng giải thưởng bị lặp", p.Rank)
		}
		ranks[p.Rank] = true
	}
	return nil
}

func toTargetConfigs(in []campdto.TargetConfigInput) []campmodels.TargetConfig {
	out := make([]campmodels.TargetConfig, len(in))
	for i, tc := range in {
		out[i] = campmodels.TargetConfig{
			SkuID:      tc.SkuID,
			TargetType: tc.TargetType,
			Target:     tc.Target,
			Unit:       tc.Unit,
			Weightage:  tc.Weightage,
		}
	}
	return out
}

func toPrizes(in []campdto.PrizeInput) []campmodels.Prize {
	out := make([]campmodels.Prize, len(in))
	for i, p := range in {
		out[i] = campmodels.Prize{Rank: p.Rank, Title: p.Title, Description: p.Description, Value: p.Value}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ====================================
// CRUD
// ====================================

// Create tạo chiến dịch nháp sau khi kiểm tra với cấu hình tổ chức
func (s *CampaignService) Create(ctx context.Context, orgID, userID primitive.ObjectID, input *campdto.CampaignCreateInput) (*campmodels.Campaign, error) {
	org, err := s.deps.Organizations.Current(ctx, orgID)
	if err != nil {
		return nil, err
	}
	c := campmodels.Campaign{
		OrganizationID:        orgID,
		Name:                  strings.TrimSpace(input.Name),
		Description:           input.Description,
		ContestType:           input.ContestType,
		Status:                campmodels.StatusDraft,
		StartDate:             input.StartDate,
		EndDate:               input.EndDate,
		TargetConfigs:         toTargetConfigs(input.TargetConfigs),
		SelectedRegions:       nonNil(input.SelectedRegions),
		EligibleDesignations:  nonNil(input.EligibleDesignations),
		DistributionAlgorithm: distribution.Algorithm(input.DistributionAlgorithm),
		TotalTarget:           input.TotalTarget,
		RegionalDistribution:  []distribution.RegionalDistribution{},
		UserTargets:           []leaderboard.UserTarget{},
		PrizeStructure:        toPrizes(input.PrizeStructure),
		CreatedBy:             userID,
	}
	if c.ContestType == "" {
		c.ContestType = campmodels.ContestIndividual
	}
	if c.DistributionAlgorithm == "" {
		c.DistributionAlgorithm = distribution.AlgorithmEqual
	}
	if err := ValidateCampaign(&c, org); err != nil {
		return nil, err
	}
	created, err := s.InsertOne(ctx, c)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// applyUpdate áp dụng input lên bản sao chiến dịch; structural = true khi đổi SKU / khu vực / chức danh / tổng chỉ tiêu
func applyUpdate(c campmodels.Campaign, input *campdto.CampaignUpdateInput) (campmodels.Campaign, bool) {
	structural := false
	if input.Name != "" {
		c.Name = strings.TrimSpace(input.Name)
	}
	if input.Description != nil {
		c.Description = *input.Description
	}
	if input.ContestType != "" {
		c.ContestType = input.ContestType
	}
	if input.StartDate > 0 {
		c.StartDate = input.StartDate
	}
	if input.EndDate > 0 {
		c.EndDate = input.EndDate
	}
	if input.PrizeStructure != nil {
		c.PrizeStructure = toPrizes(input.PrizeStructure)
	}
	if input.TargetConfigs != nil {
		c.TargetConfigs = toTargetConfigs(input.TargetConfigs)
		structural = true
	}
	if input.SelectedRegions != nil {
		c.SelectedRegions = input.SelectedRegions
		structural = true
	}
	if input.EligibleDesignations != nil {
		c.EligibleDesignations = input.EligibleDesignations
		structural = true
	}
	if input.TotalTarget != nil {
		c.TotalTarget = *input.TotalTarget
		structural = true
	}
	return c, structural
}

// Update cập nhật chiến dịch. Khi đang chạy chỉ được đổi thông tin mô tả, ngày, giải thưởng;
// đổi cấu trúc ở trạng thái nháp sẽ xoá bảng phân bổ (chỉ tiêu CSV được giữ).
func (s *CampaignService) Update(ctx context.Context, orgID, id primitive.ObjectID, input *campdto.CampaignUpdateInput) (*campmodels.Campaign, error) {
	current, err := s.getEditable(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	next, structural := applyUpdate(*current, input)
	if structural && current.Status != campmodels.StatusDraft {
		return nil, common.NewStateError("Chỉ chiến dịch nháp mới được đổi SKU, khu vực, chức danh hoặc tổng chỉ tiêu", current.Status)
	}
	org, err := s.deps.Organizations.Current(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := ValidateCampaign(&next, org); err != nil {
		return nil, err
	}

	set := map[string]interface{}{
		"name":           next.Name,
		"description":    next.Description,
		"contestType":    next.ContestType,
		"startDate":      next.StartDate,
		"endDate":        next.EndDate,
		"prizeStructure": next.PrizeStructure,
	}
	if structural {
		set["targetConfigs"] = next.TargetConfigs
		set["selectedRegions"] = nonNil(next.SelectedRegions)
		set["eligibleDesignations"] = nonNil(next.EligibleDesignations)
		set["totalTarget"] = next.TotalTarget
		set["regionalDistribution"] = []distribution.RegionalDistribution{}
		if current.UserTargetsSource != campmodels.SourceCSV {
			set["userTargets"] = []leaderboard.UserTarget{}
		}
	}
	updated, err := s.UpdateOne(ctx, bson.M{"_id": id, "organizationId": orgID}, &basesvc.UpdateData{Set: set}, nil)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete xoá chiến dịch nháp hoặc đã huỷ
func (s *CampaignService) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if c.Status != campmodels.StatusDraft && c.Status != campmodels.StatusCancelled {
		return common.NewStateError("Chỉ xoá được chiến dịch nháp hoặc đã huỷ", c.Status)
	}
	return s.DeleteOne(ctx, bson.M{"_id": id, "organizationId": orgID})
}

// BuildCampaignFilter filter danh sách chiến dịch
func BuildCampaignFilter(orgID primitive.ObjectID, q *campdto.CampaignListQuery) bson.M {
	filter := bson.M{"organizationId": orgID}
	if q == nil {
		return filter
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
	}
	return filter
}

// List danh sách chiến dịch phân trang (bỏ bảng phân bổ và chỉ tiêu cho nhẹ)
func (s *CampaignService) List(ctx context.Context, orgID primitive.ObjectID, q *campdto.CampaignListQuery) (*basemodels.PaginateResult[campmodels.Campaign], error) {
	if q == nil {
		q = &campdto.CampaignListQuery{}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: -1}}).
		SetProjection(bson.M{"userTargets": 0, "regionalDistribution": 0})
	return s.FindWithPagination(ctx, BuildCampaignFilter(orgID, q), q.Page, q.Limit, opts)
}
