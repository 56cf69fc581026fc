package main

import (
	"fmt"

	"github.com/peepdrive/peepdrive/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the peepdrive version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("peepdrive %s\n", version.Version)
	},
}
