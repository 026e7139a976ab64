package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/pedlens/internal/filter"
	"github.com/KaramelBytes/pedlens/internal/utils"
)

// emit prints v as JSON when --json is set, otherwise the Markdown rendering.
func emit(cmd *cobra.Command, v interface{}, markdown string) error {
	out := cmd.OutOrStdout()
	if asJSON {
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	_, err := fmt.Fprint(out, markdown)
	return err
}

// filterFlags binds the common filter flags to a command.
type filterFlags struct {
	boroughs   []string
	categories []string
	min, max   float64
	search     string
}

func (ff *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&ff.boroughs, "borough", nil, "borough label(s), e.g. Manhattan, 'The Bronx', Bridges (repeatable)")
	cmd.Flags().StringSliceVar(&ff.categories, "category", nil, "category label(s) (repeatable)")
	cmd.Flags().Float64Var(&ff.min, "min", 0, "minimum average count (inclusive)")
	cmd.Flags().Float64Var(&ff.max, "max", 0, "maximum average count (inclusive)")
	cmd.Flags().StringVar(&ff.search, "search", "", "case-insensitive text in street name or location code")
}

func (ff *filterFlags) spec(cmd *cobra.Command) filter.Spec {
	s := filter.Spec{Boroughs: ff.boroughs, Categories: ff.categories, Search: ff.search}
	if cmd.Flags().Changed("min") {
		v := ff.min
		s.MinCount = &v
	}
	if cmd.Flags().Changed("max") {
		v := ff.max
		s.MaxCount = &v
	}
	return s
}
