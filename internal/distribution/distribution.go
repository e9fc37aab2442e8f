// Package distribution chia tổng chỉ tiêu của chiến dịch xuống các node đã chọn trong cây
// Region → Cluster → Branch → Channel, rồi xuống từng người dùng.
package distribution

import (
	"fmt"
	"math"

	"incentive_hub/internal/common"
	"incentive_hub/internal/hierarchy"
)

// Algorithm cách chia chỉ tiêu
type Algorithm string

const (
	AlgorithmEqual       Algorithm = "equal"
	AlgorithmTerritory   Algorithm = "territory"
	AlgorithmPerformance Algorithm = "performance"
	AlgorithmCustom      Algorithm = "custom"
)

// Valid cho biết thuật toán có được hỗ trợ
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmEqual, AlgorithmTerritory, AlgorithmPerformance, AlgorithmCustom:
		return true
	}
	return false
}

// Weighted true với territory / performance
func (a Algorithm) Weighted() bool {
	return a == AlgorithmTerritory || a == AlgorithmPerformance
}

// Request đầu vào của Calculate.
// Weights dùng cho territory/performance (thiếu = 1, âm = 0); Custom dùng cho custom.
type Request struct {
	Total      float64
	Levels     []hierarchy.Level
	Selected   []string
	Algorithm  Algorithm
	Weights    map[string]float64
	Custom     map[string]float64
	UserCounts map[string]int
}

// RegionalDistribution chỉ tiêu của một node lá đã chọn
type RegionalDistribution struct {
	RegionID         string  `json:"regionId" bson:"regionId"`
	RegionName       string  `json:"regionName" bson:"regionName"`
	Level            int     `json:"level" bson:"level"`
	Target           float64 `json:"target" bson:"target"`
	UserCount        int     `json:"userCount" bson:"userCount"`
	IndividualTarget float64 `json:"individualTarget" bson:"individualTarget"`
}

// Round làm tròn nửa lên (x.5 → x+1, -x.5 → -x)
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// IndividualTarget chỉ tiêu mỗi người = target / max(1, users)
func IndividualTarget(target float64, users int) float64 {
	if users < 1 {
		users = 1
	}
	return target / float64(users)
}

type plan struct {
	items    []hierarchy.Item // các node đã chọn, theo thứ tự cấp rồi thứ tự item
	roots    []string
	detached []string // node sâu hơn cấp root nhưng không có tổ tiên nào được chọn
	children map[string][]string
}

// buildPlan nối mỗi node đã chọn với tổ tiên gần nhất cũng được chọn.
// Node ở cấp nông nhất là root. Node ở cấp sâu hơn mà không có tổ tiên được chọn vẫn có mặt trong kết quả
// nhưng không nhận phần chia (chỉ tiêu 0), để nhân viên của nó vẫn có dòng chỉ tiêu.
func buildPlan(levels []hierarchy.Level, selected []string) plan {
	idx := hierarchy.Index(levels)
	isSelected := make(map[string]bool, len(selected))
	for _, id := range selected {
		if _, ok := idx[id]; ok {
			isSelected[id] = true
		}
	}

	p := plan{children: map[string][]string{}}
	shallowest := math.MaxInt
	for _, l := range levels {
		for _, it := range l.Items {
			if isSelected[it.ID] {
				p.items = append(p.items, it)
				if it.Level < shallowest {
					shallowest = it.Level
				}
			}
		}
	}

	for _, it := range p.items {
		if anc := nearestSelectedAncestor(idx, isSelected, it); anc != "" {
			p.children[anc] = append(p.children[anc], it.ID)
		} else if it.Level == shallowest {
			p.roots = append(p.roots, it.ID)
		} else {
			p.detached = append(p.detached, it.ID)
		}
	}
	return p
}

func nearestSelectedAncestor(idx map[string]hierarchy.Item, isSelected map[string]bool, it hierarchy.Item) string {
	visited := map[string]bool{it.ID: true}
	for pid := it.ParentID; pid != ""; {
		if visited[pid] {
			return ""
		}
		visited[pid] = true
		if isSelected[pid] {
			return pid
		}
		parent, ok := idx[pid]
		if !ok {
			return ""
		}
		pid = parent.ParentID
	}
	return ""
}

// split chia amount cho các node, làm tròn riêng từng phần (không dồn phần dư)
func split(amount float64, ids []string, algo Algorithm, weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return out
	}

	if algo.Weighted() {
		ws := make([]float64, len(ids))
		sum := 0.0
		for i, id := range ids {
			w, ok := weights[id]
			if !ok {
				w = 1
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				w = 0
			}
			ws[i] = w
			sum += w
		}
		if sum > 0 {
			for i, id := range ids {
				out[id] = Round(amount * ws[i] / sum)
			}
			return out
		}
	}

	each := Round(amount / float64(len(ids)))
	for _, id := range ids {
		out[id] = each
	}
	return out
}

// Calculate chia req.Total từ cấp được chọn nông nhất xuống các node lá được chọn.
// Kết quả chỉ gồm node lá, sắp theo cấp rồi theo thứ tự item trong cấp.
func Calculate(req Request) ([]RegionalDistribution, error) {
	if req.Algorithm == "" {
		req.Algorithm = AlgorithmEqual
	}
	if !req.Algorithm.Valid() {
		return nil, common.NewValidationError("Thuật toán phân bổ không hợp lệ", string(req.Algorithm))
	}
	if req.Total < 0 || math.IsNaN(req.Total) || math.IsInf(req.Total, 0) {
		return nil, common.NewValidationError("Tổng chỉ tiêu phải là số không âm", req.Total)
	}

	p := buildPlan(req.Levels, req.Selected)
	result := []RegionalDistribution{}
	if len(p.roots) == 0 {
		return result, nil
	}

	targets := map[string]float64{}
	reachable := map[string]bool{}
	queue := append(append([]string{}, p.roots...), p.detached...)
	for _, id := range queue {
		reachable[id] = true
	}
	if req.Algorithm != AlgorithmCustom {
		for id, v := range split(req.Total, p.roots, req.Algorithm, req.Weights) {
			targets[id] = v
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		kids := p.children[id]
		if len(kids) == 0 {
			continue
		}
		if req.Algorithm != AlgorithmCustom {
			for kid, v := range split(targets[id], kids, req.Algorithm, req.Weights) {
				targets[kid] = v
			}
			// Chỉ tiêu chỉ nằm ở node lá
			targets[id] = 0
		}
		for _, kid := range kids {
			reachable[kid] = true
		}
		queue = append(queue, kids...)
	}

	for _, it := range p.items {
		if !reachable[it.ID] || len(p.children[it.ID]) > 0 {
			continue
		}
		target := targets[it.ID]
		if req.Algorithm == AlgorithmCustom {
			target = req.Custom[it.ID]
		}
		users := req.UserCounts[it.ID]
		result = append(result, RegionalDistribution{
			RegionID:         it.ID,
			RegionName:       it.Name,
			Level:            it.Level,
			Target:           target,
			UserCount:        users,
			IndividualTarget: IndividualTarget(target, users),
		})
	}
	return result, nil
}

// AutoBalance cộng phần chênh lệch (total − Σtarget) chia đều vào các node:
// phần nguyên chia đều trước, phần dư cộng từng đơn vị vào các node đầu danh sách.
// Sau khi cân bằng Σtarget = total.
func AutoBalance(dists []RegionalDistribution, total float64) []RegionalDistribution {
	out := append([]RegionalDistribution{}, dists...)
	n := len(out)
	if n == 0 {
		return out
	}

	variance := total - Sum(out)
	step := math.Trunc(variance / float64(n))
	rem := variance - step*float64(n)
	for i := range out {
		out[i].Target += step
	}
	unit := 1.0
	if rem < 0 {
		unit = -1
	}
	for i := 0; math.Abs(rem) >= 1 && i < n; i++ {
		out[i].Target += unit
		rem -= unit
	}
	if rem != 0 {
		out[0].Target += rem
	}

	for i := range out {
		out[i].IndividualTarget = IndividualTarget(out[i].Target, out[i].UserCount)
	}
	return out
}

// Sum tổng chỉ tiêu đã phân bổ
func Sum(dists []RegionalDistribution) float64 {
	s := 0.0
	for _, d := range dists {
		s += d.Target
	}
	return s
}

// Share tỉ trọng của regionID trong tổng đã phân bổ (0 nếu tổng = 0 hoặc không có node)
func Share(dists []RegionalDistribution, regionID string) float64 {
	sum := Sum(dists)
	if sum == 0 {
		return 0
	}
	for _, d := range dists {
		if d.RegionID == regionID {
			return d.Target / sum
		}
	}
	return 0
}

// Summary tổng quan một bảng phân bổ
type Summary struct {
	Total     float64 `json:"total"`
	Allocated float64 `json:"allocated"`
	Variance  float64 `json:"variance"`
	Leaves    int     `json:"leaves"`
	Users     int     `json:"users"`
}

// Summarize tính tổng đã phân bổ và chênh lệch so với total
func Summarize(dists []RegionalDistribution, total float64) Summary {
	s := Summary{Total: total, Allocated: Sum(dists), Leaves: len(dists)}
	s.Variance = total - s.Allocated
	for _, d := range dists {
		s.Users += d.UserCount
	}
	return s
}

// Find trả về phân bổ của regionID
func Find(dists []RegionalDistribution, regionID string) (RegionalDistribution, bool) {
	for _, d := range dists {
		if d.RegionID == regionID {
			return d, true
		}
	}
	return RegionalDistribution{}, false
}

// String dạng ngắn dùng cho log/CLI
func (d RegionalDistribution) String() string {
	return fmt.Sprintf("%s(%s): %.2f / %d users = %.2f", d.RegionName, d.RegionID, d.Target, d.UserCount, d.IndividualTarget)
}
