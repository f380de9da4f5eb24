package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/beacon/internal/config"
	"github.com/fyrsmithlabs/beacon/internal/preflight"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Probe configured telemetry backends with the live credentials",
	Long: `validate re-derives the telemetry configuration through the same
resolver the services use, then performs a minimal live write against each
cloud backend: an empty span batch for tracing, a minimal profile payload
for profiling.

Backends not configured for the cloud pattern are skipped and count as
success; local-only setups are valid. Exit code 0 means every configured
backend accepted its probe or was skipped, 1 otherwise.

Examples:
  # Validate the environment a deployment will run with
  beaconctl validate

  # Validate a specific env file
  beaconctl validate --env-file deploy/.env`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(serviceName, envFile)
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	results := preflight.New(cfg).Run(cmd.Context())

	printOutcome(cmd, "tracing  ", results.Tracing)
	printOutcome(cmd, "profiling", results.Profiling)

	if !results.Passed() {
		return fmt.Errorf("one or more configured backends rejected their probe")
	}
	return nil
}

func printOutcome(cmd *cobra.Command, backend string, o preflight.Outcome) {
	state := "FAIL"
	switch {
	case o.Skip:
		state = "skip"
	case o.OK:
		state = "ok  "
	}
	cmd.Printf("%s %s  %s\n", backend, state, o.Detail)
}
