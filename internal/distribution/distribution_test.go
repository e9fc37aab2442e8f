package distribution

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"incentive_hub/internal/hierarchy"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fourByTwo: 4 region, mỗi region 2 branch (cấp 3, bỏ qua cấp cluster)
func fourByTwo() ([]hierarchy.Level, []string) {
	levels := hierarchy.DefaultLevels()
	var selected []string
	for r := 1; r <= 4; r++ {
		rid := fmt.Sprintf("r%d", r)
		levels[0].Items = append(levels[0].Items, hierarchy.Item{ID: rid, Name: "Region " + rid, Level: 1})
		selected = append(selected, rid)
		for b := 1; b <= 2; b++ {
			bid := fmt.Sprintf("%s-b%d", rid, b)
			levels[2].Items = append(levels[2].Items, hierarchy.Item{ID: bid, Name: "Branch " + bid, ParentID: rid, Level: 3})
			selected = append(selected, bid)
		}
	}
	return levels, selected
}

func TestCalculateEqualExample(t *testing.T) {
	levels, selected := fourByTwo()
	got, err := Calculate(Request{
		Total:      1000,
		Levels:     levels,
		Selected:   selected,
		Algorithm:  AlgorithmEqual,
		UserCounts: map[string]int{"r1-b1": 5},
	})
	require.NoError(t, err)
	require.Len(t, got, 8)

	for _, d := range got {
		assert.Equal(t, 125.0, d.Target, d.RegionID)
		assert.Equal(t, 3, d.Level)
	}
	want := RegionalDistribution{RegionID: "r1-b1", RegionName: "Branch r1-b1", Level: 3, Target: 125, UserCount: 5, IndividualTarget: 25}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("r1-b1 (-want +got):\n%s", diff)
	}
	// Không có user: chỉ tiêu cá nhân = chỉ tiêu vùng
	assert.Equal(t, 125.0, got[1].IndividualTarget)
}

func TestCalculateTopLevelOnly(t *testing.T) {
	levels, _ := fourByTwo()
	got, err := Calculate(Request{Total: 1000, Levels: levels, Selected: []string{"r1", "r2", "r3", "r4"}})
	require.NoError(t, err)

	want := []RegionalDistribution{
		{RegionID: "r1", RegionName: "Region r1", Level: 1, Target: 250, IndividualTarget: 250},
		{RegionID: "r2", RegionName: "Region r2", Level: 1, Target: 250, IndividualTarget: 250},
		{RegionID: "r3", RegionName: "Region r3", Level: 1, Target: 250, IndividualTarget: 250},
		{RegionID: "r4", RegionName: "Region r4", Level: 1, Target: 250, IndividualTarget: 250},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Calculate (-want +got):\n%s", diff)
	}
}

func TestCalculateEdgeCases(t *testing.T) {
	levels, _ := fourByTwo()

	t.Run("không chọn node nào", func(t *testing.T) {
		got, err := Calculate(Request{Total: 100, Levels: levels})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("làm tròn nửa lên, không dồn phần dư", func(t *testing.T) {
		got, err := Calculate(Request{Total: 10, Levels: levels, Selected: []string{"r1", "r2", "r3", "r4"}})
		require.NoError(t, err)
		for _, d := range got {
			assert.Equal(t, 3.0, d.Target)
		}
		assert.Equal(t, 12.0, Sum(got))
	})

	t.Run("node không có tổ tiên được chọn vẫn có mặt với chỉ tiêu 0", func(t *testing.T) {
		got, err := Calculate(Request{
			Total:      1000,
			Levels:     levels,
			Selected:   []string{"r1", "r2-b1", "r2-b2"},
			UserCounts: map[string]int{"r1": 3, "r2-b1": 7},
		})
		require.NoError(t, err)
		want := []RegionalDistribution{
			{RegionID: "r1", RegionName: "Region r1", Level: 1, Target: 1000, UserCount: 3, IndividualTarget: 1000.0 / 3},
			{RegionID: "r2-b1", RegionName: "Branch r2-b1", Level: 3, Target: 0, UserCount: 7, IndividualTarget: 0},
			{RegionID: "r2-b2", RegionName: "Branch r2-b2", Level: 3, Target: 0, UserCount: 0, IndividualTarget: 0},
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		assert.Equal(t, 1000.0, Summarize(got, 1000).Allocated)
	})

	t.Run("chỉ chọn node cấp sâu dưới node chưa chọn", func(t *testing.T) {
		got, err := Calculate(Request{Total: 500, Levels: levels, Selected: []string{"r2-b1"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 500.0, got[0].Target, "cấp được chọn nông nhất là root")
	})

	t.Run("id không tồn tại bị bỏ qua", func(t *testing.T) {
		got, err := Calculate(Request{Total: 100, Levels: levels, Selected: []string{"ghost", "r1"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("thuật toán không hợp lệ", func(t *testing.T) {
		_, err := Calculate(Request{Total: 100, Levels: levels, Selected: []string{"r1"}, Algorithm: "north-south"})
		assert.Error(t, err)
	})

	t.Run("tổng âm", func(t *testing.T) {
		_, err := Calculate(Request{Total: -1, Levels: levels, Selected: []string{"r1"}})
		assert.Error(t, err)
	})
}

func TestCalculateWeighted(t *testing.T) {
	levels, _ := fourByTwo()
	selected := []string{"r1", "r2", "r3", "r4"}

	got, err := Calculate(Request{
		Total:     1000,
		Levels:    levels,
		Selected:  selected,
		Algorithm: AlgorithmTerritory,
		Weights:   map[string]float64{"r1": 3, "r2": 0, "r3": -5},
	})
	require.NoError(t, err)
	// r1=3, r2=0, r3=0 (âm), r4=1 (mặc định)
	assert.Equal(t, []float64{750, 0, 0, 250}, targetsOf(got))

	got, err = Calculate(Request{
		Total:     1000,
		Levels:    levels,
		Selected:  selected,
		Algorithm: AlgorithmPerformance,
		Weights:   map[string]float64{"r1": 0, "r2": 0, "r3": 0, "r4": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{250, 250, 250, 250}, targetsOf(got), "tổng trọng số = 0 thì chia đều")
}

func TestCalculateCustom(t *testing.T) {
	levels, selected := fourByTwo()
	got, err := Calculate(Request{
		Total:      1000,
		Levels:     levels,
		Selected:   selected,
		Algorithm:  AlgorithmCustom,
		Custom:     map[string]float64{"r1-b1": 300, "r4-b2": 12.5},
		UserCounts: map[string]int{"r1-b1": 3},
	})
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Equal(t, 300.0, got[0].Target)
	assert.Equal(t, 100.0, got[0].IndividualTarget)
	assert.Equal(t, 12.5, got[7].Target)
	assert.Equal(t, 0.0, got[3].Target)
}

func TestAutoBalance(t *testing.T) {
	dists := []RegionalDistribution{
		{RegionID: "a", Target: 3, UserCount: 2},
		{RegionID: "b", Target: 3},
		{RegionID: "c", Target: 3},
	}
	got := AutoBalance(dists, 10)
	assert.Equal(t, []float64{4, 3, 3}, targetsOf(got))
	assert.Equal(t, 2.0, got[0].IndividualTarget)
	assert.Equal(t, 10.0, Sum(got))
	assert.Equal(t, 3.0, dists[0].Target, "không sửa slice đầu vào")

	got = AutoBalance([]RegionalDistribution{{Target: 4}, {Target: 4}, {Target: 4}, {Target: 4}}, 10)
	assert.Equal(t, []float64{2, 2, 3, 3}, targetsOf(got), "chênh lệch âm trừ vào các node đầu")

	got = AutoBalance([]RegionalDistribution{{RegionID: "a", Target: 1}, {RegionID: "b", Target: 1}}, 2.5)
	want := []RegionalDistribution{
		{RegionID: "a", Target: 1.5, IndividualTarget: 1.5},
		{RegionID: "b", Target: 1, IndividualTarget: 1},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("AutoBalance phần lẻ (-want +got):\n%s", diff)
	}

	assert.Empty(t, AutoBalance(nil, 100))
}

func TestShareAndSummary(t *testing.T) {
	dists := []RegionalDistribution{{RegionID: "a", Target: 30, UserCount: 2}, {RegionID: "b", Target: 10, UserCount: 1}}
	assert.InDelta(t, 0.75, Share(dists, "a"), 1e-9)
	assert.Equal(t, 0.0, Share(dists, "x"))
	assert.Equal(t, 0.0, Share([]RegionalDistribution{{RegionID: "a"}}, "a"))

	s := Summarize(dists, 50)
	assert.Equal(t, Summary{Total: 50, Allocated: 40, Variance: 10, Leaves: 2, Users: 3}, s)
}

func TestIndividualTarget(t *testing.T) {
	assert.Equal(t, 100.0, IndividualTarget(100, 0))
	assert.Equal(t, 100.0, IndividualTarget(100, -3))
	assert.Equal(t, 20.0, IndividualTarget(100, 5))
	assert.Equal(t, 3.0, Round(2.5))
	assert.Equal(t, -2.0, Round(-2.5))
}

// randomTree sinh cây ngẫu nhiên 4 cấp và chọn ngẫu nhiên một tập con liên thông từ cấp 1
func randomTree(rng *rand.Rand) ([]hierarchy.Level, []string) {
	levels := hierarchy.DefaultLevels()
	var selected []string
	var parents []string
	for r := 0; r < 1+rng.Intn(6); r++ {
		id := fmt.Sprintf("L1-%d", r)
		levels[0].Items = append(levels[0].Items, hierarchy.Item{ID: id, Name: id, Level: 1})
		parents = append(parents, id)
		selected = append(selected, id)
	}
	for depth := 1; depth < 4; depth++ {
		var next []string
		for _, p := range parents {
			for c := 0; c < rng.Intn(5); c++ {
				id := fmt.Sprintf("%s/%d", p, c)
				levels[depth].Items = append(levels[depth].Items, hierarchy.Item{ID: id, Name: id, ParentID: p, Level: depth + 1})
				if rng.Intn(3) > 0 {
					next = append(next, id)
					selected = append(selected, id)
				}
			}
		}
		parents = next
	}
	return levels, selected
}

func TestEqualDistributionRoundingBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		levels, selected := randomTree(rng)
		total := float64(rng.Intn(100000))

		got, err := Calculate(Request{Total: total, Levels: levels, Selected: selected})
		require.NoError(t, err)

		// Σ(n−1) trên mọi lần chia, gồm cả lần chia ở cấp root
		p := buildPlan(levels, selected)
		bound := float64(len(p.roots) - 1)
		for _, kids := range p.children {
			bound += float64(len(kids) - 1)
		}
		assert.LessOrEqual(t, math.Abs(Sum(got)-total), bound, "lần %d: total=%v", i, total)
	}
}

func targetsOf(dists []RegionalDistribution) []float64 {
	out := make([]float64, len(dists))
	for i, d := range dists {
		out[i] = d.Target
	}
	return out
}
