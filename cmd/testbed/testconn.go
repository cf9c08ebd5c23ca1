package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/testbed/internal/libvirt"
)

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test the libvirt connection",
	Long:  `Test connectivity to the configured libvirt endpoint and display version information.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Testing libvirt connection to %s...\n", cfg.URI)

		session, err := libvirt.OpenWithContext(cmd.Context(), cfg.URI, cfg.SessionOptions()...)
		if err != nil {
			return fmt.Errorf("failed to connect to libvirt: %w", err)
		}
		defer func() {
			if closeErr := session.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
			}
		}()

		fmt.Println("✓ Connected to libvirt daemon")

		if err := session.Ping(); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		version, err := session.Version()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Libvirt version: %s\n", version)

		hostname, err := session.Hostname()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Hypervisor hostname: %s\n", hostname)
		fmt.Printf("✓ Resource prefix: %s\n", cfg.Prefix)

		fmt.Println("\nConnection test successful!")
		return nil
	},
}
