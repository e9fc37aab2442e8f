package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"incentive_hub/internal/hierarchy"
)

func newHierarchyCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Đọc file CSV cây phân cấp, kiểm tra và in dạng cây",
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := loadHierarchy(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range imported.Warnings {
				fmt.Fprintf(out, "warning row %d: %s\n", w.Row, w.Message)
			}
			if err := hierarchy.Validate(imported.Levels); err != nil {
				return err
			}
			printTree(out, hierarchy.BuildTree(imported.Levels), 0)
			fmt.Fprintf(out, "\n%d rows, %d nodes, encoding %s\n", imported.Rows, hierarchy.ItemCount(imported.Levels), imported.Encoding)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "file CSV Region,Cluster,Branch,Channel")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printTree(w io.Writer, nodes []*hierarchy.Node, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", depth), n.Name)
		printTree(w, n.Children, depth+1)
	}
}
