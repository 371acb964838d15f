package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sessionshard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sessionshard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sessionshard version %s\n", strings.TrimSpace(sessionshard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
