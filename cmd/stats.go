package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/query"
	"github.com/KaramelBytes/pedlens/internal/report"
)

var (
	statsFilter filterFlags
	statsBy     string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summary statistics of average counts, optionally grouped",
	Long: `Without --by, prints summary statistics of the locations matching the filters.
With --by borough|category, prints statistics per group over the whole dataset.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := service()
		if err != nil {
			return err
		}
		spec := statsFilter.spec(cmd)
		if statsBy == "" {
			sum, err := s.SummaryStatistics(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return emit(cmd, sum, report.Summary(sum, spec))
		}
		if !spec.IsEmpty() {
			return fmt.Errorf("--by cannot be combined with filters")
		}
		dim := strings.ToLower(strings.TrimSpace(statsBy))
		groups, err := s.GroupedStatistics(cmd.Context(), dim)
		if err != nil {
			return fmt.Errorf("%w (use %s|%s)", err, query.DimensionBorough, query.DimensionCategory)
		}
		return emit(cmd, map[string]interface{}{"dimension": dim, "statistics": groups}, report.Groups(dim, groups))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsFilter.bind(statsCmd)
	statsCmd.Flags().StringVar(&statsBy, "by", "", "group by dimension: borough|category")
}
