package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"incentive_hub/internal/distribution"
	"incentive_hub/internal/hierarchy"
)

// distributionReport kết quả xem trước, cũng là định dạng xuất yaml/json
type distributionReport struct {
	Algorithm    distribution.Algorithm              `json:"algorithm" yaml:"algorithm"`
	Summary      distribution.Summary                `json:"summary" yaml:"summary"`
	Distribution []distribution.RegionalDistribution `json:"distribution" yaml:"distribution"`
}

func newDistributeCmd() *cobra.Command {
	var (
		planPath string
		output   string
		balance  bool
	)
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Xem trước phân bổ chỉ tiêu theo file kế hoạch YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runDistribute(planPath, balance)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, output)
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "file kế hoạch YAML")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "định dạng: table, yaml, json")
	cmd.Flags().BoolVar(&balance, "auto-balance", false, "cộng phần chênh lệch làm tròn để tổng khớp")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func runDistribute(planPath string, balance bool) (*distributionReport, error) {
	plan, err := LoadPlan(planPath)
	if err != nil {
		return nil, err
	}
	imported, err := loadHierarchy(plan.Hierarchy)
	if err != nil {
		return nil, err
	}
	req, err := plan.Request(imported.Levels)
	if err != nil {
		return nil, err
	}
	dists, err := distribution.Calculate(req)
	if err != nil {
		return nil, err
	}
	if balance {
		dists = distribution.AutoBalance(dists, req.Total)
	}
	if req.Algorithm == "" {
		req.Algorithm = distribution.AlgorithmEqual
	}
	for i := range dists {
		dists[i].RegionName = hierarchy.PathNames(imported.Levels, dists[i].RegionID, "/")
	}
	return &distributionReport{
		Algorithm:    req.Algorithm,
		Summary:      distribution.Summarize(dists, req.Total),
		Distribution: dists,
	}, nil
}

func writeReport(w io.Writer, r *distributionReport, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "table", "":
		width := len("NODE")
		for _, d := range r.Distribution {
			if len(d.RegionName) > width {
				width = len(d.RegionName)
			}
		}
		fmt.Fprintf(w, "%-*s  %12s  %6s  %12s\n", width, "NODE", "TARGET", "USERS", "PER_USER")
		for _, d := range r.Distribution {
			fmt.Fprintf(w, "%-*s  %12.2f  %6d  %12.2f\n", width, d.RegionName, d.Target, d.UserCount, d.IndividualTarget)
		}
		fmt.Fprintf(w, "\nalgorithm=%s total=%.2f allocated=%.2f variance=%.2f leaves=%d\n",
			r.Algorithm, r.Summary.Total, r.Summary.Allocated, r.Summary.Variance, r.Summary.Leaves)
		return nil
	default:
		return fmt.Errorf("định dạng không hỗ trợ: %s", format)
	}
}
