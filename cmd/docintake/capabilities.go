package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Probe optional tools and print what is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		proc := newProcessor(cfg, logger, 0)
		out := struct {
			Capabilities capability.Set                  `json:"capabilities"`
			Diagnostics  map[constants.Capability]string `json:"diagnostics,omitempty"`
		}{proc.Capabilities(cmd.Context()), proc.Registry.Diagnostics()}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}
