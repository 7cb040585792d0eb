// mockserver CLI - runs a throwaway HTTP/HTTPS server for tests
package main

import (
	"os"

	"github.com/getmockd/mockserver/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	return cli.Main()
}
