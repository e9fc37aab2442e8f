package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"incentive_hub/internal/targetcsv"
)

func newValidateTargetsCmd() *cobra.Command {
	var (
		file string
		skus []string
	)
	cmd := &cobra.Command{
		Use:   "validate-targets",
		Short: "Kiểm tra file chỉ tiêu CSV (user_id,user_name,region,<mã SKU>...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			cols := make([]targetcsv.Column, 0, len(skus))
			for _, code := range skus {
				if code = strings.TrimSpace(code); code != "" {
					cols = append(cols, targetcsv.Column{SkuID: code, Code: code})
				}
			}

			upload := targetcsv.Parse(data, cols)
			out := cmd.OutOrStdout()
			for _, w := range upload.Warnings {
				fmt.Fprintf(out, "warning row %d: %s\n", w.Row, w.Message)
			}
			if !upload.OK() {
				return fmt.Errorf("file không hợp lệ: %s", upload.Error)
			}

			totals := make(map[string]float64, len(cols))
			for _, ut := range upload.Targets {
				for sku, v := range ut.Targets {
					totals[sku] += v
				}
			}
			fmt.Fprintf(out, "ok: %d users, encoding %s\n", len(upload.Targets), upload.Encoding)
			for _, c := range cols {
				fmt.Fprintf(out, "  %s: %.2f\n", c.Code, totals[c.SkuID])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "file CSV chỉ tiêu")
	cmd.Flags().StringSliceVar(&skus, "skus", nil, "mã SKU theo thứ tự cột, phân cách bởi dấu phẩy")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("skus")
	return cmd
}
