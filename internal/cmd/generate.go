package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nicholas-Amsler/lung-iq/internal/export"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

var (
	genFlags  requestFlags
	genKind   string
	genFormat string
	genOutput string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one breath cycle of waveforms",
	Long: `Generate computes the pressure, flow, volume and capnography curves of
one breath for the given settings. Without --kind all four curves and the
derived metrics are printed as a frame.`,
	Example: `  lungiq generate --pathology copd --ie 0.5
  lungiq generate --kind pressure --mode pressure --pip 25
  lungiq generate --scenario ards-recognition --format xlsx -o ards.xlsx`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	genFlags.register(generateCmd.Flags())
	generateCmd.Flags().StringVarP(&genKind, "kind", "k", "", "single curve: pressure, flow, volume or capnography")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "json", "json or xlsx")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "write to file instead of stdout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req, _, err := genFlags.request(cmd.Flags())
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, genOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	gen := waveform.NewGenerator(0)
	switch genFormat {
	case "json":
		if genKind != "" {
			return printJSON(out, gen.Generate(req.WithKind(waveform.Kind(genKind))))
		}
		return printJSON(out, gen.Frame(req))
	case "xlsx":
		if genOutput == "" {
			return fmt.Errorf("xlsx output needs --output")
		}
		return export.WriteWorkbook(out, req, gen.Frame(req))
	default:
		return fmt.Errorf("unknown format %q", genFormat)
	}
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
