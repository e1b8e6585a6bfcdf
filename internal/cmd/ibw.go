package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
)

var (
	ibwHeight float64
	ibwGender string
)

var ibwCmd = &cobra.Command{
	Use:   "ibw",
	Short: "Compute ARDSnet ideal body weight",
	Example: `  lungiq ibw --height 172 --gender male
  lungiq ibw --height 160 --gender female`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ibwHeight <= 0 {
			return fmt.Errorf("height must be positive, got %g", ibwHeight)
		}
		g := physiology.Gender(ibwGender)
		p := physiology.Patient{Class: physiology.Adult, HeightCm: ibwHeight, Gender: g}
		b := physiology.TidalVolumeBounds(p)
		fmt.Fprintf(cmd.OutOrStdout(), "IBW: %.1f kg\nTidal volume 4-8 mL/kg: %.0f-%.0f mL\nTarget (6 mL/kg): %.0f mL\n",
			physiology.IdealBodyWeight(ibwHeight, g), b.Min, b.Max, physiology.TargetTidalVolume(p))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ibwCmd)

	ibwCmd.Flags().Float64Var(&ibwHeight, "height", 0, "height in cm")
	ibwCmd.Flags().StringVar(&ibwGender, "gender", string(physiology.Male), "male or female")
	_ = ibwCmd.MarkFlagRequired("height")
}
