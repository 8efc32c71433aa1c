package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lcars [command]",
	Short: "lcars: desktop shell host core",
	Long: `lcars runs the host side of the LCARS desktop shell: system telemetry,
interactive terminal sessions and filesystem access, exposed over a local
websocket and HTTP IPC endpoint.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
