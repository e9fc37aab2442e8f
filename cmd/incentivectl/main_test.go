package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const hierarchyCSV = "Region,Cluster,Branch,Channel\n" +
	"North,HN,B1,\n" +
	"North,HN,B2,\n" +
	"South,HCM,B3,\n" +
	"South,HCM,B4,\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDistributeEqual(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "h.csv", hierarchyCSV)
	plan := writeFile(t, dir, "plan.yaml", "hierarchy: h.csv\ntotal: 1000\nuserCounts:\n  North/HN/B1: 5\n")

	report, err := runDistribute(plan, false)
	require.NoError(t, err)
	require.Len(t, report.Distribution, 4)
	assert.Equal(t, "equal", string(report.Algorithm))
	for _, d := range report.Distribution {
		assert.Equal(t, 250.0, d.Target, d.RegionName)
	}
	assert.Equal(t, "North/HN/B1", report.Distribution[0].RegionName)
	assert.Equal(t, 5, report.Distribution[0].UserCount)
	assert.Equal(t, 50.0, report.Distribution[0].IndividualTarget)
	assert.Equal(t, 1000.0, report.Summary.Allocated)

	out, err := run(t, "distribute", "--plan", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "North/HN/B1")
	assert.Contains(t, out, "variance=0.00")
}

func TestDistributeTerritoryYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "h.csv", hierarchyCSV)
	plan := writeFile(t, dir, "plan.yaml", "hierarchy: h.csv\ntotal: 1000\nalgorithm: territory\nweights:\n  North: 3\n  south: 1\n")

	out, err := run(t, "distribute", "--plan", plan, "-o", "yaml")
	require.NoError(t, err)

	var decoded struct {
		Distribution []struct {
			RegionName string  `yaml:"regionname"`
			Target     float64 `yaml:"target"`
		} `yaml:"distribution"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	got := map[string]float64{}
	for _, d := range decoded.Distribution {
		got[d.RegionName] = d.Target
	}
	assert.Equal(t, map[string]float64{
		"North/HN/B1": 375, "North/HN/B2": 375,
		"South/HCM/B3": 125, "South/HCM/B4": 125,
	}, got)
}

func TestDistributePlanErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "h.csv", hierarchyCSV)

	tests := []struct {
		name string
		plan string
	}{
		{name: "khoá lạ", plan: "hierarchy: h.csv\ntotall: 10\n"},
		{name: "thiếu hierarchy", plan: "total: 10\n"},
		{name: "node không tồn tại", plan: "hierarchy: h.csv\ntotal: 10\nselected: [West]\n"},
		{name: "thuật toán sai", plan: "hierarchy: h.csv\ntotal: 10\nalgorithm: random\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "plan.yaml", tt.plan)
			_, err := runDistribute(path, false)
			assert.Error(t, err)
		})
	}
}

func TestValidateTargets(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "t.csv", "user_id,user_name,region,COLA,TEA\nu1,Lan,North,100,10\nu2,Minh,South,50,\n")

	out, err := run(t, "validate-targets", "--file", file, "--skus", "COLA,TEA")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 2 users")
	assert.Contains(t, out, "COLA: 150.00")
	assert.Contains(t, out, "TEA: 10.00")

	_, err = run(t, "validate-targets", "--file", file, "--skus", "MILK")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MILK")
}

func TestHierarchyCommand(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "h.csv", hierarchyCSV+"East,,X1,\n")

	out, err := run(t, "hierarchy", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "- North\n  - HN\n    - B1\n    - B2\n")
	assert.Contains(t, out, "warning row 6")
	assert.Contains(t, out, "4 rows, 8 nodes")
}
