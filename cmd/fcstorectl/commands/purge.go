package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var purgeWorkers int

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Run an expiry sweep across every bucket",
	Long: `purge removes expired entries from every bucket in the store.

With --workers greater than 1, buckets are swept concurrently via
Store.PurgeExpiredParallel, bounded to that many goroutines at once.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().IntVar(&purgeWorkers, "workers", 1, "Number of buckets to sweep concurrently")
}

func runPurge(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Stop()

	var removed int
	if purgeWorkers > 1 {
		removed, err = store.PurgeExpiredParallel(context.Background(), purgeWorkers)
	} else {
		removed, err = store.PurgeExpired(context.Background())
	}
	if err != nil {
		return err
	}

	fmt.Printf("removed %d expired entries\n", removed)
	return nil
}
