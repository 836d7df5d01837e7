package main

import (
	"fmt"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/actions"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lattice",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lattice version %s (debug=%t)\n", lattice.Version, actions.Debug)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
