package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/export"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

var (
	exportFlags  requestFlags
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a session snapshot as JSON",
	Long: `Export writes the session document the simulator offers for download:
parameters, patient, metrics, alarm thresholds, the scenario's quiz and
assessment, and the educational-use disclaimer. Alarms are those the
settings raise on their first breath.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, sc, err := exportFlags.request(cmd.Flags())
		if err != nil {
			return err
		}
		limits := analysis.DefaultLimits()
		now := time.Now()
		alarms := analysis.NewAlarmDetector(limits).Process(waveform.NewGenerator(0).Frame(req), now)

		sess := export.NewSession(export.Input{
			Request:  req,
			Limits:   limits,
			Scenario: sc,
			Alarms:   alarms,
		}, now)

		out, closeOut, err := openOutput(cmd, exportOutput)
		if err != nil {
			return err
		}
		defer closeOut()
		return export.WriteJSON(out, sess)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportFlags.register(exportCmd.Flags())
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}
