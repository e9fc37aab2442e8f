package hierarchy

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"incentive_hub/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLevels() []Level {
	levels := DefaultLevels()
	levels[0].Items = []Item{
		{ID: "north", Name: "North", Level: 1},
		{ID: "south", Name: "South", Level: 1},
	}
	levels[1].Items = []Item{
		{ID: "hn", Name: "Hà Nội", ParentID: "north", Level: 2},
		{ID: "hp", Name: "Hải Phòng", ParentID: "north", Level: 2},
		{ID: "hcm", Name: "HCM", ParentID: "south", Level: 2},
	}
	levels[2].Items = []Item{
		{ID: "hn-1", Name: "Cầu Giấy", ParentID: "hn", Level: 3},
	}
	return levels
}

func withSequentialIDs(t *testing.T) {
	t.Helper()
	orig := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = orig })
}

func TestDefaultLevels(t *testing.T) {
	levels := DefaultLevels()
	require.Len(t, levels, 4)
	for i, l := range levels {
		assert.Equal(t, i+1, l.Level)
		assert.Equal(t, LevelNames[i], l.Name)
		assert.NotNil(t, l.Items)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sampleLevels()))

	t.Run("trùng id", func(t *testing.T) {
		levels := sampleLevels()
		levels[1].Items = append(levels[1].Items, Item{ID: "north", Name: "X", ParentID: "south", Level: 2})
		err := Validate(levels)
		require.Error(t, err)
		var e *common.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "VAL_001", e.Code.Code)
	})

	t.Run("parent không tồn tại", func(t *testing.T) {
		levels := sampleLevels()
		levels[2].Items[0].ParentID = "ghost"
		assert.Error(t, Validate(levels))
	})

	t.Run("parent cùng cấp", func(t *testing.T) {
		levels := sampleLevels()
		levels[1].Items[0].ParentID = "hp"
		assert.Error(t, Validate(levels))
	})

	t.Run("cấp không tăng dần", func(t *testing.T) {
		levels := sampleLevels()
		levels[2].Level = 2
		assert.Error(t, Validate(levels))
	})
}

func TestBuildTree(t *testing.T) {
	levels := sampleLevels()
	levels[2].Items = append(levels[2].Items, Item{ID: "orphan", Name: "Orphan", ParentID: "missing", Level: 3})

	roots := BuildTree(levels)
	require.Len(t, roots, 3, "node mồ côi được gắn làm root")
	assert.Equal(t, "north", roots[0].ID)
	assert.Equal(t, "orphan", roots[2].ID)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "hn-1", roots[0].Children[0].Children[0].ID)
}

func TestDescendantsAndPath(t *testing.T) {
	levels := sampleLevels()

	var ids []string
	for _, it := range Descendants(levels, "north") {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"hn", "hp", "hn-1"}, ids)
	assert.Empty(t, Descendants(levels, "hn-1"))

	assert.Equal(t, "North / Hà Nội / Cầu Giấy", PathNames(levels, "hn-1", " / "))
	assert.Nil(t, PathTo(levels, "nope"))
	assert.Len(t, Children(levels, "north"), 2)
}

func TestImportCSV(t *testing.T) {
	withSequentialIDs(t)

	csvData := "\xEF\xBB\xBFregion,CLUSTER,Branch,Channel\n" +
		"North,Hà Nội,Cầu Giấy,GT\n" +
		"north,Hà Nội,Đống Đa,\n" +
		"Central,,Đà Nẵng,\n" +
		"Central,Đà Nẵng,,\n"

	res, err := ImportCSV(strings.NewReader(csvData), sampleLevels())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 4, res.Warnings[0].Row)

	// North, Hà Nội, Cầu Giấy đã có sẵn; tạo mới GT, Đống Đa, Central, Đà Nẵng
	assert.Equal(t, 4, res.Created)
	assert.Len(t, res.Levels[0].Items, 3)
	assert.Equal(t, "Central", res.Levels[0].Items[2].Name)
	assert.Equal(t, "GT", res.Levels[3].Items[0].Name)
	assert.Equal(t, "hn-1", res.Levels[3].Items[0].ParentID)
	assert.NoError(t, Validate(res.Levels))
}

func TestImportCSVMissingHeader(t *testing.T) {
	res, err := ImportCSV(strings.NewReader("Region,Cluster,Branch\nA,B,C\n"), nil)
	assert.Nil(t, res)
	var e *common.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "VAL_001", e.Code.Code)

	_, err = ImportCSV(strings.NewReader(""), nil)
	assert.Error(t, err)
}

func TestExportCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, sampleLevels()))

	want := "\xEF\xBB\xBFRegion,Cluster,Branch,Channel\n" +
		"North,Hà Nội,Cầu Giấy,\n" +
		"North,Hải Phòng,,\n" +
		"South,HCM,,\n"
	assert.Equal(t, want, buf.String())

	withSequentialIDs(t)
	res, err := ImportCSV(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, ItemCount(sampleLevels()), ItemCount(res.Levels))
}

func TestExportCSVKeepsLevelColumns(t *testing.T) {
	levels := DefaultLevels()
	levels[0].Items = []Item{{ID: "north", Name: "North", Level: 1}}
	levels[2].Items = []Item{
		{ID: "cg", Name: "Cầu Giấy", ParentID: "north", Level: 3},
		{ID: "td", Name: "Thủ Đức", ParentID: "ghost", Level: 3},
	}
	levels[3].Items = []Item{{ID: "gt", Name: "GT", ParentID: "td", Level: 4}}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, levels))
	want := "\xEF\xBB\xBFRegion,Cluster,Branch,Channel\n" +
		"North,,Cầu Giấy,\n" +
		",,Thủ Đức,GT\n"
	assert.Equal(t, want, buf.String(), "node mất cha không bị đẩy lên cột Region")
}
