package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studioloop/backend/internal/config"
	"github.com/studioloop/backend/internal/services"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the effective weight table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		table, err := loadTable(cfg.WeightsFile)
		if err != nil {
			return fmt.Errorf("failed to load weight table: %w", err)
		}
		return printWeights(cmd.OutOrStdout(), table, jsonOutput)
	},
}

func printWeights(w io.Writer, table services.WeightTable, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	out, err := table.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
