package campsvc

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authmodels "incentive_hub/internal/api/auth/models"
	authsvc "incentive_hub/internal/api/auth/service"
	basesvc "incentive_hub/internal/api/base/service"
	campdto "incentive_hub/internal/api/campaign/dto"
	campmodels "incentive_hub/internal/api/campaign/models"
	orgmodels "incentive_hub/internal/api/organization/models"
	"incentive_hub/internal/common"
	"incentive_hub/internal/distribution"
	"incentive_hub/internal/hierarchy"
	"incentive_hub/internal/leaderboard"
	"incentive_hub/internal/logger"
	"incentive_hub/internal/targetcsv"
)

// DistributionTotal tổng chỉ tiêu dùng để phân bổ: TotalTarget, nếu chưa đặt thì Σ chỉ tiêu các SKU
func DistributionTotal(c *campmodels.Campaign) float64 {
	if c.TotalTarget > 0 {
		return c.TotalTarget
	}
	sum := 0.0
	for _, tc := range c.TargetConfigs {
		sum += tc.Target
	}
	return sum
}

func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// BuildUserTargets chia chỉ tiêu từng SKU xuống nhân viên:
// chỉ tiêu SKU × tỉ trọng node lá / max(1, số nhân viên của node). Mỗi nhân viên thuộc tối đa một node lá.
func BuildUserTargets(c *campmodels.Campaign, dists []distribution.RegionalDistribution, users []authmodels.User) []leaderboard.UserTarget {
	targets := []leaderboard.UserTarget{}
	assigned := map[string]bool{}
	for _, d := range dists {
		share := distribution.Share(dists, d.RegionID)
		for _, u := range users {
			uid := u.ID.Hex()
			if assigned[uid] || !u.BelongsTo(d.RegionID) {
				continue
			}
			assigned[uid] = true
			ut := leaderboard.UserTarget{
				UserID:     uid,
				UserName:   u.Name,
				RegionID:   d.RegionID,
				RegionName: d.RegionName,
				Targets:    make(map[string]float64, len(c.TargetConfigs)),
			}
			for _, tc := range c.TargetConfigs {
				ut.Targets[tc.SkuID] = round2(distribution.IndividualTarget(tc.Target*share, d.UserCount))
			}
			targets = append(targets, ut)
		}
	}
	return targets
}

// distributionPlan dữ liệu đã chuẩn bị để tính phân bổ
type distributionPlan struct {
	campaign *campmodels.Campaign
	request  distribution.Request
	users    []authmodels.User
}

func (s *CampaignService) preparePlan(ctx context.Context, c *campmodels.Campaign, input *campdto.DistributionInput) (*distributionPlan, error) {
	org, err := s.deps.Organizations.Current(ctx, c.OrganizationID)
	if err != nil {
		return nil, err
	}
	users, err := s.deps.Users.ListEmployees(ctx, c.OrganizationID, c.EligibleDesignations)
	if err != nil {
		return nil, err
	}

	req := distribution.Request{
		Total:      DistributionTotal(c),
		Levels:     org.HierarchyLevels,
		Selected:   c.SelectedRegions,
		Algorithm:  c.DistributionAlgorithm,
		Weights:    c.DistributionWeights,
		UserCounts: authsvc.CountByNode(users),
	}
	if input != nil {
		if input.Algorithm != "" {
			req.Algorithm = distribution.Algorithm(input.Algorithm)
		}
		if input.TotalTarget != nil {
			req.Total = *input.TotalTarget
		}
		if input.SelectedRegions != nil {
			idx := hierarchy.Index(org.HierarchyLevels)
			for _, id := range input.SelectedRegions {
				if _, ok := idx[id]; !ok {
					return nil, common.NewValidationError("Khu vực được chọn không tồn tại trong cây phân cấp", id)
				}
			}
			req.Selected = input.SelectedRegions
		}
		if input.Weights != nil {
			req.Weights = input.Weights
		}
		req.Custom = input.Custom
	}
	if req.Algorithm == "" {
		req.Algorithm = distribution.AlgorithmEqual
	}
	for id, v := range req.Custom {
		if v < 0 || math.IsNaN(v) {
			return nil, common.NewValidationError("Chỉ tiêu nhập tay phải là số không âm", id)
		}
	}
	return &distributionPlan{campaign: c, request: req, users: users}, nil
}

// PreviewDistribution tính phân bổ mà không lưu
func (s *CampaignService) PreviewDistribution(ctx context.Context, orgID, id primitive.ObjectID, input *campdto.DistributionInput) (*campdto.DistributionResult, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.preparePlan(ctx, c, input)
	if err != nil {
		return nil, err
	}
	dists, err := distribution.Calculate(plan.request)
	if err != nil {
		return nil, err
	}
	return &campdto.DistributionResult{
		Algorithm:    plan.request.Algorithm,
		Distribution: dists,
		Summary:      distribution.Summarize(dists, plan.request.Total),
		UserTargets:  len(BuildUserTargets(c, dists, plan.users)),
	}, nil
}

// saveDistribution lưu bảng phân bổ; chỉ tiêu người dùng chỉ ghi khi nguồn chưa phải CSV hoặc override
func (s *CampaignService) saveDistribution(ctx context.Context, plan *distributionPlan, dists []distribution.RegionalDistribution, override bool) (*campdto.DistributionResult, error) {
	c := plan.campaign
	set := map[string]interface{}{
		"regionalDistribution":  dists,
		"distributionAlgorithm": plan.request.Algorithm,
		"totalTarget":           plan.request.Total,
		"selectedRegions":       nonNil(plan.request.Selected),
	}
	if plan.request.Algorithm.Weighted() && plan.request.Weights != nil {
		set["distributionWeights"] = plan.request.Weights
	}

	result := &campdto.DistributionResult{
		Algorithm:    plan.request.Algorithm,
		Distribution: dists,
		Summary:      distribution.Summarize(dists, plan.request.Total),
		Saved:        true,
	}
	if c.UserTargetsSource == campmodels.SourceCSV && !override {
		result.CSVKept = true
		result.UserTargets = len(c.UserTargets)
	} else {
		userTargets := BuildUserTargets(c, dists, plan.users)
		set["userTargets"] = userTargets
		set["userTargetsSource"] = campmodels.SourceDistribution
		result.UserTargets = len(userTargets)
	}

	if _, err := s.UpdateOne(ctx, bson.M{"_id": c.ID, "organizationId": c.OrganizationID}, &basesvc.UpdateData{Set: set}, nil); err != nil {
		return nil, err
	}
	logger.WithModule("campaign").WithFields(logrus.Fields{
		"campaign_id": c.ID.Hex(),
		"algorithm":   plan.request.Algorithm,
		"leaves":      len(dists),
		"csv_kept":    result.CSVKept,
	}).Info("🎯 [DISTRIBUTION] Đã lưu bảng phân bổ chỉ tiêu")
	return result, nil
}

// Distribute tính và lưu phân bổ
func (s *CampaignService) Distribute(ctx context.Context, orgID, id primitive.ObjectID, input *campdto.DistributionInput) (*campdto.DistributionResult, error) {
	c, err := s.getEditable(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.preparePlan(ctx, c, input)
	if err != nil {
		return nil, err
	}
	dists, err := distribution.Calculate(plan.request)
	if err != nil {
		return nil, err
	}
	override := input != nil && input.Override
	return s.saveDistribution(ctx, plan, dists, override)
}

// SaveCustomDistribution lưu chỉ tiêu nhập tay theo node lá (thuật toán custom)
func (s *CampaignService) SaveCustomDistribution(ctx context.Context, orgID, id primitive.ObjectID, input *campdto.CustomDistributionInput) (*campdto.DistributionResult, error) {
	return s.Distribute(ctx, orgID, id, &campdto.DistributionInput{
		Algorithm: string(distribution.AlgorithmCustom),
		Custom:    input.Targets,
		Override:  input.Override,
	})
}

// AutoBalance cộng phần chênh lệch làm tròn vào các node để Σ = tổng chỉ tiêu, rồi lưu lại
func (s *CampaignService) AutoBalance(ctx context.Context, orgID, id primitive.ObjectID) (*campdto.DistributionResult, error) {
	c, err := s.getEditable(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if len(c.RegionalDistribution) == 0 {
		return nil, common.NewStateError("Chiến dịch chưa có bảng phân bổ", nil)
	}
	plan, err := s.preparePlan(ctx, c, nil)
	if err != nil {
		return nil, err
	}
	balanced := distribution.AutoBalance(c.RegionalDistribution, plan.request.Total)
	return s.saveDistribution(ctx, plan, balanced, false)
}

// ====================================
// CHỈ TIÊU CSV
// ====================================

// TargetColumns cột SKU của file chỉ tiêu theo thứ tự cấu hình chiến dịch
func TargetColumns(c *campmodels.Campaign, org *orgmodels.Organization) ([]targetcsv.Column, error) {
	cols := make([]targetcsv.Column, 0, len(c.TargetConfigs))
	for _, tc := range c.TargetConfigs {
		sku, ok := org.FindSKU(tc.SkuID)
		if !ok {
			return nil, common.NewStateError("SKU của chiến dịch không còn trong tổ chức", tc.SkuID)
		}
		cols = append(cols, targetcsv.Column{SkuID: sku.ID, Code: sku.Code})
	}
	return cols, nil
}

func (s *CampaignService) columns(ctx context.Context, c *campmodels.Campaign) ([]targetcsv.Column, error) {
	org, err := s.deps.Organizations.Current(ctx, c.OrganizationID)
	if err != nil {
		return nil, err
	}
	return TargetColumns(c, org)
}

// TargetTemplate header file CSV chỉ tiêu của chiến dịch
func (s *CampaignService) TargetTemplate(ctx context.Context, orgID, id primitive.ObjectID) (string, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return "", err
	}
	cols, err := s.columns(ctx, c)
	if err != nil {
		return "", err
	}
	return targetcsv.Template(cols), nil
}

// UploadTargets thay toàn bộ chỉ tiêu người dùng bằng file CSV. File lỗi thì không ghi gì.
func (s *CampaignService) UploadTargets(ctx context.Context, orgID, id primitive.ObjectID, data []byte) (*campdto.UploadResult, error) {
	c, err := s.getEditable(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	cols, err := s.columns(ctx, c)
	if err != nil {
		return nil, err
	}
	upload := targetcsv.Parse(data, cols)
	if !upload.OK() {
		return nil, common.NewValidationError(upload.Error, upload.Warnings)
	}

	set := map[string]interface{}{
		"userTargets":       upload.Targets,
		"userTargetsSource": campmodels.SourceCSV,
	}
	if _, err := s.UpdateOne(ctx, bson.M{"_id": c.ID, "organizationId": orgID}, &basesvc.UpdateData{Set: set}, nil); err != nil {
		return nil, err
	}
	return &campdto.UploadResult{Targets: len(upload.Targets), Warnings: upload.Warnings, Encoding: upload.Encoding}, nil
}
