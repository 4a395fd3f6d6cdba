// Command fcstorectl inspects and manages a bucketstore.Store directly on
// disk, without requiring a running admin HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/cachebarn/fcstore/cmd/fcstorectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
