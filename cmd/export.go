package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/utils"
)

var (
	expFilter filterFlags
	expFormat string
	expOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered dataset as CSV or GeoJSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := service()
		if err != nil {
			return err
		}
		spec := expFilter.spec(cmd)
		var (
			data []byte
			ext  string
		)
		switch strings.ToLower(strings.TrimSpace(expFormat)) {
		case "csv":
			data, err = s.ExportTabular(cmd.Context(), spec)
			ext = ".csv"
		case "geojson":
			data, err = s.ExportGeoSpatial(cmd.Context(), spec)
			ext = ".geojson"
		default:
			return fmt.Errorf("unsupported --format: %s (use csv|geojson)", expFormat)
		}
		if err != nil {
			return err
		}
		if expOutput == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		path := expOutput
		if path == "" {
			dir := "."
			if cfg != nil && cfg.ExportDir != "" {
				dir = cfg.ExportDir
			}
			if err := utils.EnsureDir(dir); err != nil {
				return fmt.Errorf("export dir: %w", err)
			}
			path = filepath.Join(dir, "pedestrian_export"+ext)
		}
		if err := utils.SafeWriteFile(path, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s export to %s\n", strings.TrimPrefix(ext, "."), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	expFilter.bind(exportCmd)
	exportCmd.Flags().StringVarP(&expFormat, "format", "f", "csv", "export format: csv|geojson")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "output path ('-' for stdout; default <export_dir>/pedestrian_export.<ext>)")
}
