package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cachebarn/fcstore/internal/cliutil"
	"github.com/cachebarn/fcstore/pkg/bucketstore"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "Inspect buckets in the store",
}

var bucketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every bucket in the store",
	RunE:  runBucketsList,
}

var bucketsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Dump a single bucket's entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runBucketsShow,
}

func init() {
	bucketsCmd.AddCommand(bucketsListCmd)
	bucketsCmd.AddCommand(bucketsShowCmd)
}

type bucketRow struct {
	id    string
	count int
}

type bucketRows []bucketRow

func (bucketRows) Headers() []string { return []string{"ID", "ENTRIES"} }

func (r bucketRows) Rows() [][]string {
	out := make([][]string, len(r))
	for i, row := range r {
		out[i] = []string{row.id, strconv.Itoa(row.count)}
	}
	return out
}

func runBucketsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Stop()

	var rows bucketRows
	err = store.LoopOverBuckets(context.Background(), func(id string, b *bucketstore.Bucket) bool {
		rows = append(rows, bucketRow{id: id, count: len(b.Entries)})
		return true
	})
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("no buckets found")
		return nil
	}
	cliutil.PrintTable(os.Stdout, rows)
	return nil
}

func runBucketsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Stop()

	bucket, err := store.LoadBucket(context.Background(), args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bucket)
}
