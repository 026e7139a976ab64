package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/report"
)

var locFilter filterFlags

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List counting locations matching the filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := service()
		if err != nil {
			return err
		}
		fc, err := s.Locations(cmd.Context(), locFilter.spec(cmd))
		if err != nil {
			return err
		}
		return emit(cmd, fc.FeatureCollection, report.Locations(fc))
	},
}

func init() {
	rootCmd.AddCommand(locationsCmd)
	locFilter.bind(locationsCmd)
}
