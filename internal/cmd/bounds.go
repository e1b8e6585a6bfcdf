package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
)

var boundsFlags patientFlags

var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Show lung-protective tidal volume bounds and slider ranges for a patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := boundsFlags.patient()
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"patient":         p,
			"category":        physiology.CategoryFor(p.Class),
			"referenceWeight": physiology.ReferenceWeight(p),
			"bounds":          physiology.TidalVolumeBounds(p),
			"targetTV":        physiology.TargetTidalVolume(p),
			"ranges":          physiology.RangesFor(p.Class, p.WeightKg),
		})
	},
}

func init() {
	rootCmd.AddCommand(boundsCmd)
	boundsFlags.register(boundsCmd.Flags())
}
