// Package leaderboard tính điểm xếp hạng của người dùng trong chiến dịch từ chỉ tiêu và kết quả theo SKU.
package leaderboard

import (
	"math"
	"sort"
)

// SkuConfig SKU của chiến dịch; Weightage (%) > 0 ở bất kỳ SKU nào thì điểm là tổng có trọng số
type SkuConfig struct {
	SkuID     string  `json:"skuId"`
	Weightage float64 `json:"weightage"`
}

// UserTarget chỉ tiêu theo SKU của một người dùng
type UserTarget struct {
	UserID     string             `json:"userId" bson:"userId"`
	UserName   string             `json:"userName" bson:"userName"`
	RegionID   string             `json:"regionId,omitempty" bson:"regionId,omitempty"`
	RegionName string             `json:"regionName" bson:"regionName"`
	Targets    map[string]float64 `json:"targets" bson:"targets"`
}

// SkuScore kết quả một SKU
type SkuScore struct {
	SkuID      string  `json:"skuId"`
	Target     float64 `json:"target"`
	Achieved   float64 `json:"achieved"`
	Percentage float64 `json:"percentage"`
}

// Entry một dòng của bảng xếp hạng
type Entry struct {
	Rank       int        `json:"rank"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	RegionID   string     `json:"regionId,omitempty"`
	RegionName string     `json:"regionName"`
	Score      float64    `json:"score"`
	Skus       []SkuScore `json:"skus"`
}

// Percentage = round(achieved / target × 100), làm tròn nửa lên; target <= 0 thì 0
func Percentage(achieved, target float64) float64 {
	if target <= 0 || math.IsNaN(achieved) {
		return 0
	}
	return math.Floor(achieved/target*100 + 0.5)
}

// HasWeightage true nếu có SKU mang trọng số > 0
func HasWeightage(skus []SkuConfig) bool {
	for _, s := range skus {
		if s.Weightage > 0 {
			return true
		}
	}
	return false
}

// SkuScores phần trăm hoàn thành từng SKU theo thứ tự skus
func SkuScores(skus []SkuConfig, targets, achieved map[string]float64) []SkuScore {
	out := make([]SkuScore, len(skus))
	for i, s := range skus {
		t := targets[s.SkuID]
		a := achieved[s.SkuID]
		out[i] = SkuScore{SkuID: s.SkuID, Target: t, Achieved: a, Percentage: Percentage(a, t)}
	}
	return out
}

// Score điểm xếp hạng: có trọng số thì Σ(percentage × weightage / 100) (tổng, không chia trung bình),
// không có thì trung bình phần trăm các SKU. Không có SKU nào thì 0.
func Score(skus []SkuConfig, targets, achieved map[string]float64) float64 {
	return scoreOf(skus, SkuScores(skus, targets, achieved))
}

func scoreOf(skus []SkuConfig, scores []SkuScore) float64 {
	if len(skus) == 0 {
		return 0
	}
	if HasWeightage(skus) {
		sum := 0.0
		for i, s := range skus {
			sum += scores[i].Percentage * s.Weightage / 100
		}
		return sum
	}
	sum := 0.0
	for _, sc := range scores {
		sum += sc.Percentage
	}
	return sum / float64(len(skus))
}

// Build tạo bảng xếp hạng giảm dần theo điểm. Điểm bằng nhau giữ thứ tự đầu vào; rank 1..n.
func Build(skus []SkuConfig, userTargets []UserTarget, achieved map[string]map[string]float64) []Entry {
	entries := make([]Entry, 0, len(userTargets))
	for _, ut := range userTargets {
		scores := SkuScores(skus, ut.Targets, achieved[ut.UserID])
		entries = append(entries, Entry{
			UserID:     ut.UserID,
			UserName:   ut.UserName,
			RegionID:   ut.RegionID,
			RegionName: ut.RegionName,
			Score:      scoreOf(skus, scores),
			Skus:       scores,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ByRegion gộp bảng xếp hạng cá nhân theo khu vực (thi đua theo vùng).
// Điểm khu vực là trung bình điểm thành viên; chỉ tiêu / kết quả từng SKU được cộng dồn.
func ByRegion(skus []SkuConfig, entries []Entry) []Entry {
	type group struct {
		entry Entry
		total float64
		count int
	}
	var order []string
	groups := map[string]*group{}
	for _, e := range entries {
		key := e.RegionID
		if key == "" {
			key = e.RegionName
		}
		g, ok := groups[key]
		if !ok {
			g = &group{entry: Entry{UserID: key, UserName: e.RegionName, RegionID: e.RegionID, RegionName: e.RegionName}}
			g.entry.Skus = make([]SkuScore, len(skus))
			for i, s := range skus {
				g.entry.Skus[i].SkuID = s.SkuID
			}
			groups[key] = g
			order = append(order, key)
		}
		g.total += e.Score
		g.count++
		for i := range g.entry.Skus {
			if i < len(e.Skus) {
				g.entry.Skus[i].Target += e.Skus[i].Target
				g.entry.Skus[i].Achieved += e.Skus[i].Achieved
			}
		}
	}

	out := make([]Entry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		for i := range g.entry.Skus {
			g.entry.Skus[i].Percentage = Percentage(g.entry.Skus[i].Achieved, g.entry.Skus[i].Target)
		}
		g.entry.Score = g.total / float64(g.count)
		out = append(out, g.entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top n dòng đầu; n <= 0 trả về toàn bộ
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}

// FindUser dòng xếp hạng của userID
func FindUser(entries []Entry, userID string) (Entry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter giữ các dòng thoả keep rồi đánh lại rank 1..n
func Filter(entries []Entry, keep func(Entry) bool) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
