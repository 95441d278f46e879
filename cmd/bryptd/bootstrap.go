package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brypt-community/brypt-node/internal/bootstrap"
)

var (
	bootstrapCachePath string
	bootstrapProtocol  string
	bootstrapEntry     string
	bootstrapLocation  string
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Inspect or edit a node's bootstrap cache file",
}

var bootstrapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known entries for a protocol",
	RunE:  runBootstrapList,
}

var bootstrapAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace an entry for a protocol",
	RunE:  runBootstrapAdd,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.PersistentFlags().StringVarP(&bootstrapCachePath, "cache", "f", "bootstrap.json", "path to the bootstrap cache file")

	bootstrapCmd.AddCommand(bootstrapListCmd)
	bootstrapListCmd.Flags().StringVarP(&bootstrapProtocol, "protocol", "p", "", "protocol name (e.g. tcp, ws, loopback)")
	bootstrapListCmd.MarkFlagRequired("protocol")

	bootstrapCmd.AddCommand(bootstrapAddCmd)
	bootstrapAddCmd.Flags().StringVarP(&bootstrapProtocol, "protocol", "p", "", "protocol name (e.g. tcp, ws, loopback)")
	bootstrapAddCmd.Flags().StringVar(&bootstrapEntry, "entry", "", "dial string (e.g. host:port)")
	bootstrapAddCmd.Flags().StringVar(&bootstrapLocation, "location", "", "optional human-readable label")
	bootstrapAddCmd.MarkFlagRequired("protocol")
	bootstrapAddCmd.MarkFlagRequired("entry")
}

func runBootstrapList(cmd *cobra.Command, args []string) error {
	svc := bootstrap.NewService(bootstrapCachePath)
	if err := svc.Load(); err != nil {
		return fmt.Errorf("load bootstrap cache: %w", err)
	}

	for _, entry := range svc.EntriesFor(bootstrapProtocol) {
		fmt.Printf("%s\t%s\t%s\n", entry.Identifier, entry.Entry, entry.Location)
	}
	return nil
}

func runBootstrapAdd(cmd *cobra.Command, args []string) error {
	svc := bootstrap.NewService(bootstrapCachePath)
	if err := svc.Load(); err != nil {
		return fmt.Errorf("load bootstrap cache: %w", err)
	}

	svc.Upsert(bootstrapProtocol, bootstrap.Entry{
		Entry:    bootstrapEntry,
		Location: bootstrapLocation,
	})

	if err := svc.Save(); err != nil {
		return fmt.Errorf("save bootstrap cache: %w", err)
	}
	return nil
}
