package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove every resource in the harness namespace",
	Long: `Tear down every domain, volume, pool, network and host interface whose
name carries the harness prefix, whether or not a manifest declares it.
Use it to recover from runs that crashed before reaping.

Resources without the prefix are never touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHarness(ctx)
		if err != nil {
			return err
		}
		defer closeHarness(h)

		reaped, sweepErr := h.Sweep(ctx)
		if err := printResources(reaped); err != nil {
			return err
		}
		if sweepErr != nil {
			return fmt.Errorf("sweep incomplete: %w", sweepErr)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources in the harness namespace",
	Long: `List every libvirt resource whose name carries the harness prefix,
with its persistence mode and current phase.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHarness(ctx)
		if err != nil {
			return err
		}
		defer closeHarness(h)

		resources, listErr := h.List(ctx)
		if err := printResources(resources); err != nil {
			return err
		}
		if listErr != nil {
			return fmt.Errorf("listing incomplete: %w", listErr)
		}
		return nil
	},
}
