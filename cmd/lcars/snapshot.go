package main

import (
	"encoding/json"
	"fmt"
	"os"

	"lcars-core/internal/config"
	"lcars-core/internal/core/telemetry"
	"lcars-core/internal/logger"
	"lcars-core/internal/ui"

	"github.com/spf13/cobra"
)

var (
	snapshotLight bool
	snapshotJSON  bool
)

func init() {
	cmdSnapshot.Flags().BoolVar(&snapshotLight, "light", false, "collect dynamic fields only")
	cmdSnapshot.Flags().BoolVar(&snapshotJSON, "json", false, "print the snapshot as JSON")
	rootCmd.AddCommand(cmdSnapshot)
}

var cmdSnapshot = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect and print one telemetry snapshot",
	Long:  `Runs the telemetry aggregator once and renders the result as LCARS panels or JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log := logger.Nop()
		if cfg.DevMode {
			log = logger.New(cfg)
		}

		svc := telemetry.NewDefaultService(log, cfg.StaticTTL, cfg.AttemptTimeout, cfg.ScriptTimeout)
		ctx := cmd.Context()

		var value any
		var rendered string
		if snapshotLight {
			dyn := svc.Light(ctx)
			value, rendered = dyn, ui.RenderDynamic(dyn)
		} else {
			snap := svc.Full(ctx)
			value, rendered = snap, ui.RenderSystem(snap)
		}

		if snapshotJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		}

		fmt.Fprintln(os.Stdout, rendered)
		return nil
	},
}
