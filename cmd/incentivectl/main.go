// incentivectl công cụ dòng lệnh cho người vận hành: xem trước phân bổ chỉ tiêu từ file kế hoạch,
// kiểm tra file chỉ tiêu CSV và cây phân cấp trước khi tải lên server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "incentivectl",
		Short:         "Công cụ vận hành Incentive Hub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDistributeCmd(), newValidateTargetsCmd(), newHierarchyCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
