package leaderboard

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 50.0, Percentage(50, 100))
	assert.Equal(t, 33.0, Percentage(1, 3))
	assert.Equal(t, 67.0, Percentage(2, 3))
	assert.Equal(t, 1.0, Percentage(1, 200), "0.5 làm tròn lên")
	assert.Equal(t, 0.0, Percentage(10, 0))
	assert.Equal(t, 0.0, Percentage(10, -5))
	assert.Equal(t, 150.0, Percentage(150, 100))
}

func TestScoreSumVersusAverage(t *testing.T) {
	targets := map[string]float64{"A": 100, "B": 100}
	achieved := map[string]float64{"A": 80, "B": 40}

	plain := []SkuConfig{{SkuID: "A"}, {SkuID: "B"}}
	weighted := []SkuConfig{{SkuID: "A", Weightage: 70}, {SkuID: "B", Weightage: 30}}

	assert.Equal(t, 60.0, Score(plain, targets, achieved), "không trọng số: trung bình")
	assert.InDelta(t, 68.0, Score(weighted, targets, achieved), 1e-9, "có trọng số: tổng có trọng số")

	// Trọng số không cần cộng đủ 100: vẫn là tổng, không chuẩn hoá
	partial := []SkuConfig{{SkuID: "A", Weightage: 50}, {SkuID: "B"}}
	assert.InDelta(t, 40.0, Score(partial, targets, achieved), 1e-9)

	assert.Equal(t, 0.0, Score(nil, targets, achieved))
}

func TestBuild(t *testing.T) {
	skus := []SkuConfig{{SkuID: "A"}, {SkuID: "B"}}
	users := []UserTarget{
		{UserID: "u1", UserName: "An", RegionName: "North", Targets: map[string]float64{"A": 100, "B": 100}},
		{UserID: "u2", UserName: "Bình", RegionName: "South", Targets: map[string]float64{"A": 0, "B": 0}},
		{UserID: "u3", UserName: "Chi", RegionName: "North", Targets: map[string]float64{"A": 50, "B": 50}},
		{UserID: "u4", UserName: "Dũng", RegionName: "South", Targets: map[string]float64{"A": 100, "B": 100}},
	}
	achieved := map[string]map[string]float64{
		"u1": {"A": 50, "B": 50},
		"u2": {"A": 999},
		"u3": {"A": 50, "B": 50},
		"u4": {"A": 50, "B": 50},
	}

	entries := Build(skus, users, achieved)
	require.Len(t, entries, 4)

	var order []string
	for i, e := range entries {
		order = append(order, e.UserID)
		assert.Equal(t, i+1, e.Rank)
		assert.False(t, math.IsNaN(e.Score))
	}
	// u1 và u4 cùng 50 điểm: giữ thứ tự đầu vào
	assert.Equal(t, []string{"u3", "u1", "u4", "u2"}, order)
	assert.Equal(t, 0.0, entries[3].Score, "chỉ tiêu 0 ở mọi SKU thì điểm 0")

	want := []SkuScore{
		{SkuID: "A", Target: 50, Achieved: 50, Percentage: 100},
		{SkuID: "B", Target: 50, Achieved: 50, Percentage: 100},
	}
	if diff := cmp.Diff(want, entries[0].Skus); diff != "" {
		t.Errorf("SkuScores (-want +got):\n%s", diff)
	}

	e, ok := FindUser(entries, "u4")
	assert.True(t, ok)
	assert.Equal(t, 3, e.Rank)
	_, ok = FindUser(entries, "nope")
	assert.False(t, ok)

	assert.Len(t, Top(entries, 2), 2)
	assert.Len(t, Top(entries, 0), 4)

	north := Filter(entries, func(e Entry) bool { return e.RegionName == "North" })
	require.Len(t, north, 2)
	assert.Equal(t, 2, north[1].Rank)
	assert.Equal(t, 2, entries[1].Rank, "Filter không sửa slice gốc")
}

func TestBuildEmpty(t *testing.T) {
	entries := Build(nil, nil, nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestByRegion(t *testing.T) {
	skus := []SkuConfig{{SkuID: "a"}}
	entries := []Entry{
		{UserID: "u1", RegionID: "r1", RegionName: "North", Score: 50, Skus: []SkuScore{{SkuID: "a", Target: 100, Achieved: 50}}},
		{UserID: "u2", RegionID: "r2", RegionName: "South", Score: 80, Skus: []SkuScore{{SkuID: "a", Target: 100, Achieved: 80}}},
		{UserID: "u3", RegionID: "r1", RegionName: "North", Score: 100, Skus: []SkuScore{{SkuID: "a", Target: 100, Achieved: 100}}},
	}
	regions := ByRegion(skus, entries)
	require.Len(t, regions, 2)
	assert.Equal(t, "r2", regions[0].UserID)
	assert.Equal(t, 1, regions[0].Rank)
	assert.Equal(t, 75.0, regions[1].Score)
	assert.Equal(t, 200.0, regions[1].Skus[0].Target)
	assert.Equal(t, 75.0, regions[1].Skus[0].Percentage)
	assert.Empty(t, ByRegion(skus, nil))
}
