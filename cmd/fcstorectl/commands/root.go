// Package commands implements fcstorectl's CLI commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cachebarn/fcstore/pkg/bucketstore"
	"github.com/cachebarn/fcstore/pkg/bucketstore/filesync"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var location string

var rootCmd = &cobra.Command{
	Use:   "fcstorectl",
	Short: "Inspect and manage a bucketstore.Store on disk",
	Long: `fcstorectl opens a bucketstore.Store directory directly for
offline inspection and maintenance: listing buckets, running expiry
sweeps, clearing the store, and exporting/importing the bulk stream
format.

Use "fcstorectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&location, "location", "", "Store root directory (required)")
	rootCmd.MarkPersistentFlagRequired("location")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore opens the store at --location with a PerWrite durability
// strategy, the safest default for an offline CLI that may be invoked
// concurrently with a live process.
func openStore() (*bucketstore.Store, error) {
	store, err := bucketstore.New(location, filesync.NewPerWrite(0, 0), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fcstorectl: open store at %q: %w", location, err)
	}
	return store, nil
}
