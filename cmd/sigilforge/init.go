package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/sigilforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .sigilforge directory and default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}
		if err := config.InitDir(dir); err != nil {
			return err
		}
		cfg, err := config.NewConfig(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", cfg.StateDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Add catalog fragments under %s\n", cfg.CatalogRoot())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
