package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/compare"
	"github.com/KaramelBytes/pedlens/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare <dimension=value[,value...]> <dimension=value[,value...]>",
	Short: "Compare count statistics of two groups",
	Example: `  pedlens compare borough=Manhattan borough=Brooklyn,Queens
  pedlens compare category=Global category=Neighborhood`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g1, err := parseGroup(args[0])
		if err != nil {
			return err
		}
		g2, err := parseGroup(args[1])
		if err != nil {
			return err
		}
		s, err := service()
		if err != nil {
			return err
		}
		res, err := s.CompareGroups(cmd.Context(), g1, g2)
		if err != nil {
			return err
		}
		return emit(cmd, res, report.Comparison(res))
	},
}

// parseGroup reads "borough=Manhattan,The Bronx" into a GroupSpec.
func parseGroup(arg string) (compare.GroupSpec, error) {
	dim, vals, ok := strings.Cut(arg, "=")
	if !ok {
		return compare.GroupSpec{}, fmt.Errorf("invalid group %q (want dimension=value[,value...])", arg)
	}
	g := compare.GroupSpec{Dimension: strings.ToLower(strings.TrimSpace(dim))}
	for _, v := range strings.Split(vals, ",") {
		if v = strings.TrimSpace(v); v != "" {
			g.Values = append(g.Values, v)
		}
	}
	return g, nil
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
