package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/report"
)

var (
	topLimit   int
	topBorough string
	cntBorough string
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank locations by average count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := service()
		if err != nil {
			return err
		}
		limit := topLimit
		if !cmd.Flags().Changed("limit") && cfg != nil {
			limit = cfg.TopLimit
		}
		if limit < 1 {
			return fmt.Errorf("--limit must be at least 1")
		}
		top, err := s.TopSites(cmd.Context(), limit, topBorough)
		if err != nil {
			return err
		}
		return emit(cmd, top, report.TopSites(top, topBorough))
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count rankable locations, optionally in one borough",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := service()
		if err != nil {
			return err
		}
		n, err := s.SiteCount(cmd.Context(), cntBorough)
		if err != nil {
			return err
		}
		label := cntBorough
		if label == "" {
			label = "all boroughs"
		}
		md := fmt.Sprintf("[SITE COUNT]\n%s: %d\n", label, n)
		return emit(cmd, map[string]interface{}{"borough": cntBorough, "count": n}, md)
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(countCmd)
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "number of sites (default from config top_limit)")
	topCmd.Flags().StringVar(&topBorough, "borough", "", "restrict to one borough label")
	countCmd.Flags().StringVar(&cntBorough, "borough", "", "restrict to one borough label")
}
