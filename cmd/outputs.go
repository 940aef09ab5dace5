package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/ui"
)

// OutputsInfo is the JSON form of the outputs command
type OutputsInfo struct {
	Backend string       `json:"backend,omitempty"`
	Outputs []OutputInfo `json:"outputs"`
	Error   string       `json:"error,omitempty"`
}

// OutputInfo describes a single display
type OutputInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Rotation    string `json:"rotation"`
	Target      bool   `json:"target"`
}

var jsonOutput bool

var outputsCmd = &cobra.Command{
	Use:     "outputs",
	Aliases: []string{"monitors"},
	Short:   "List displays and their rotation",
	Long:    `List the displays reported by the selected backend and mark the one wayrot rotates.`,
	RunE:    runOutputs,
}

func init() {
	outputsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.AddCommand(outputsCmd)
}

func runOutputs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	backend, err := openBackend(cfg)
	if err != nil {
		if jsonOutput {
			return writeOutputsJSON(out, OutputsInfo{Outputs: []OutputInfo{}, Error: err.Error()})
		}
		return fmt.Errorf("failed to open display backend: %w", err)
	}
	defer backend.Close()

	outputs, err := backend.Outputs()
	if err != nil {
		if jsonOutput {
			return writeOutputsJSON(out, OutputsInfo{Backend: string(backend.Name()), Outputs: []OutputInfo{}, Error: err.Error()})
		}
		return err
	}

	if jsonOutput {
		return writeOutputsJSON(out, outputsInfo(backend.Name(), outputs, cfg.Display))
	}

	fmt.Fprintln(out, ui.RenderOutputs(outputs, cfg.Display))
	return nil
}

func outputsInfo(kind display.Kind, outputs []display.Output, target string) OutputsInfo {
	info := OutputsInfo{
		Backend: string(kind),
		Outputs: make([]OutputInfo, len(outputs)),
	}
	for i, o := range outputs {
		info.Outputs[i] = OutputInfo{
			Name:        o.Name,
			Description: o.Description,
			Enabled:     o.Enabled,
			Rotation:    o.Rotation,
			Target:      o.Name == target,
		}
	}
	return info
}

func writeOutputsJSON(w io.Writer, info OutputsInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
