package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumen/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the compiled-program cache",
}

func init() {
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := driver.OpenDiskCache("lumen")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
			return nil
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := driver.OpenDiskCache("lumen")
			if err != nil {
				return err
			}
			if err := c.DropAll(); err != nil {
				return fmt.Errorf("failed to clean %s: %w", c.Dir(), err)
			}
			if !quiet(cmd) {
				fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", c.Dir())
			}
			return nil
		},
	})
}
