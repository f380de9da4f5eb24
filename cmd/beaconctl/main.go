// Package main implements beaconctl, the operator CLI for telemetry
// configuration: a live preflight validator and a dry-run inspector.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// envFile is the optional .env-style fallback source.
	envFile string
	// serviceName is used for resource attributes and probe payloads.
	serviceName string

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "beaconctl",
	Short: "Validate and inspect beacon telemetry configuration",
	Long: `beaconctl checks the telemetry configuration the beacon services will
run with.

validate performs live connectivity probes against each configured cloud
backend and exits non-zero when any configured backend rejects its probe.
inspect prints the resolved configuration and heuristic warnings without
touching the network and always exits zero.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env fallback file")
	rootCmd.PersistentFlags().StringVar(&serviceName, "service", "beaconctl", "service name for probes")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(inspectCmd)
}
