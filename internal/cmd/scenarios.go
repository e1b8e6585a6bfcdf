package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the learning paths and their scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range scenario.Default().Paths() {
			fmt.Fprintf(tw, "%s\t%s\n", p.Key, p.Level)
			for _, s := range p.Scenarios {
				var extras string
				if s.Quiz != nil {
					extras += " quiz"
				}
				if s.Assessment != nil {
					extras += " assessment"
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", s.ID, s.Name, s.Pathology, extras)
			}
		}
		return tw.Flush()
	},
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one scenario as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scenario.Default().Scenario(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.AddCommand(scenarioShowCmd)
}
