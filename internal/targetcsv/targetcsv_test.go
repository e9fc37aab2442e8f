package targetcsv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incentive_hub/internal/leaderboard"
)

var columns = []Column{{SkuID: "sku-a", Code: "SOAP"}, {SkuID: "sku-b", Code: "Kem"}}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"12":      12,
		" 12.5 ":  12.5,
		"12abc":   12,
		"1,500":   1,
		".5":      0.5,
		"-3":      -3,
		"1e3":     1000,
		"1e":      1,
		"abc":     0,
		"":        0,
		"NaN":     0,
		"+7.":     7,
		"1e99999": 1,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseNumber(in), in)
	}
}

func TestParseWellFormed(t *testing.T) {
	data := "\xEF\xBB\xBFUser_ID,user_name,Region,soap,KEM\n" +
		"u1,An,North,100,50\n" +
		"u2,Bình,South,abc,\n" +
		"\n" +
		"u3,Chi,North,12.5kg,7\n"

	u := Parse([]byte(data), columns)
	require.True(t, u.OK(), u.Error)
	require.Len(t, u.Targets, 3)
	assert.Empty(t, u.Warnings)
	assert.Equal(t, "utf-8", u.Encoding)

	want := []leaderboard.UserTarget{
		{UserID: "u1", UserName: "An", RegionName: "North", Targets: map[string]float64{"sku-a": 100, "sku-b": 50}},
		{UserID: "u2", UserName: "Bình", RegionName: "South", Targets: map[string]float64{"sku-a": 0, "sku-b": 0}},
		{UserID: "u3", UserName: "Chi", RegionName: "North", Targets: map[string]float64{"sku-a": 12.5, "sku-b": 7}},
	}
	if diff := cmp.Diff(want, u.Targets); diff != "" {
		t.Errorf("Targets (-want +got):\n%s", diff)
	}
}

func TestParseMissingHeader(t *testing.T) {
	u := Parse([]byte("user_id,user_name,SOAP,Kem\nu1,An,1,2\n"), columns)
	assert.False(t, u.OK())
	assert.Contains(t, u.Error, "region")
	assert.Empty(t, u.Targets)

	u = Parse([]byte("user_id,user_name,region,SOAP\nu1,An,N,1\n"), columns)
	assert.Contains(t, u.Error, "Kem")
	assert.Empty(t, u.Targets)

	u = Parse(nil, columns)
	assert.False(t, u.OK())
	assert.Empty(t, u.Targets)
}

func TestParseRaggedRows(t *testing.T) {
	data := "user_id,user_name,region,SOAP,Kem\n" +
		"u1,An,North,10\n" +
		"u2,Bình,South,1,2,3\n" +
		",NoID,South,1,1\n"

	u := Parse([]byte(data), columns)
	require.True(t, u.OK())
	require.Len(t, u.Targets, 3)
	require.Len(t, u.Warnings, 3)
	assert.Equal(t, 2, u.Warnings[0].Row)
	assert.Equal(t, 3, u.Warnings[1].Row)
	assert.Equal(t, 4, u.Warnings[2].Row)
	assert.Equal(t, 0.0, u.Targets[0].Targets["sku-b"])
	assert.Equal(t, 2.0, u.Targets[1].Targets["sku-b"])
}

func TestParseWindows1252(t *testing.T) {
	// "José" mã hoá Windows-1252
	data := []byte("user_id,user_name,region,SOAP,Kem\nu1,Jos\xE9,North,1,2\n")
	u := Parse(data, columns)
	require.True(t, u.OK())
	assert.Equal(t, "windows-1252", u.Encoding)
	assert.Equal(t, "José", u.Targets[0].UserName)
}

func TestTemplate(t *testing.T) {
	assert.Equal(t, "user_id,user_name,region,SOAP,Kem\n", Template(columns))
	assert.Equal(t, "user_id,user_name,region\n", Template(nil))
}
