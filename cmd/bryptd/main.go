package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bryptd",
	Short: "bryptd - brypt peer-to-peer mesh node",
	Long: `bryptd runs a brypt node: a peer that authenticates and encrypts
every exchange with its neighbors, routes application messages across
the mesh, and tracks awaitable request/response and fan-out exchanges.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
