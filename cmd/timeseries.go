package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/report"
)

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries <location-id>",
	Short: "Show the historical counts of one location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid location id: %s", args[0])
		}
		s, err := service()
		if err != nil {
			return err
		}
		series, err := s.TimeSeries(cmd.Context(), id)
		if err != nil {
			return err
		}
		return emit(cmd, series, report.Series(series))
	},
}

func init() {
	rootCmd.AddCommand(timeseriesCmd)
}
