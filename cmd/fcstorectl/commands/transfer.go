package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every bucket to file in the bulk stream format",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load buckets from a bulk stream file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Stop()

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("fcstorectl: create %q: %w", args[0], err)
	}
	defer f.Close()

	n, err := store.ToStream(context.Background(), f)
	if err != nil {
		return err
	}

	fmt.Printf("exported %d bytes to %s\n", n, args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Stop()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("fcstorectl: open %q: %w", args[0], err)
	}
	defer f.Close()

	n, err := store.FromStream(context.Background(), f)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d bytes from %s\n", n, args[0])
	return nil
}
