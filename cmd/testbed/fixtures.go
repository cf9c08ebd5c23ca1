package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/testbed/api/v1alpha1"
	"github.com/jbweber/testbed/internal/loader"
)

var (
	manifestPath string
	statusPath   string
)

var applyCmd = &cobra.Command{
	Use:   "apply -f <fixtures.yaml>",
	Short: "Build the resources of a FixtureSet",
	Long: `Build every resource declared in a FixtureSet manifest, in order.

Stale resources with the same namespaced name are torn down first; existing
storage volumes are reused as they are. If any resource fails, everything
built so far is reaped before the error is returned. Resources stay on the
endpoint after a successful apply; remove them with delete or sweep.

Example:
  testbed apply -f fixtures.yaml --status status.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := loader.LoadFromFile(manifestPath)
		if err != nil {
			return fmt.Errorf("failed to load fixture set: %w", err)
		}

		ctx := cmd.Context()
		h, err := openHarness(ctx)
		if err != nil {
			return err
		}
		defer closeHarness(h)

		handles, applyErr := h.Apply(ctx, fs)
		for _, r := range handles {
			// Keep the resources, drop the handles.
			if err := r.Release(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}

		if err := report(fs); err != nil {
			return err
		}
		if applyErr != nil {
			return fmt.Errorf("failed to apply fixture set %s: %w", fs.Name, applyErr)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete -f <fixtures.yaml>",
	Short: "Tear down the resources of a FixtureSet",
	Long: `Tear down every resource declared in a FixtureSet manifest, in reverse
order. Resources that no longer exist are skipped.

Example:
  testbed delete -f fixtures.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := loader.LoadFromFile(manifestPath)
		if err != nil {
			return fmt.Errorf("failed to load fixture set: %w", err)
		}

		ctx := cmd.Context()
		h, err := openHarness(ctx)
		if err != nil {
			return err
		}
		defer closeHarness(h)

		deleteErr := h.Delete(ctx, fs)
		if err := report(fs); err != nil {
			return err
		}
		if deleteErr != nil {
			return fmt.Errorf("failed to delete fixture set %s: %w", fs.Name, deleteErr)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{applyCmd, deleteCmd} {
		cmd.Flags().StringVarP(&manifestPath, "filename", "f", "", "FixtureSet manifest (YAML)")
		cmd.Flags().StringVar(&statusPath, "status", "", "also write the manifest with its status to this file")
		_ = cmd.MarkFlagRequired("filename")
	}
}

// report prints the set's status and optionally saves it.
func report(fs *v1alpha1.FixtureSet) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	result, err := formatter.FormatSet(fs)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(result)

	if statusPath != "" {
		if err := loader.SaveToFile(fs, statusPath); err != nil {
			return fmt.Errorf("failed to save status: %w", err)
		}
	}
	return nil
}

// printResources prints a flat resource listing in the selected format.
func printResources(resources []v1alpha1.ResourceStatus) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	result, err := formatter.FormatResources(resources)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(result)
	return nil
}
