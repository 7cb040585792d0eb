package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCommand builds the mockserver command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mockserver",
		Short: "mockserver runs a throwaway HTTP/HTTPS server for tests",
		Long: `mockserver starts an HTTP or HTTPS server that echoes requests or serves
files from a directory, and stops when it receives a signal or a request
to /__admin/stop.

Settings can come from flags or a YAML/JSON configuration file. Without
--config, mockserver looks for mockserver.yaml in the current directory or
the file named by MOCKSERVER_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newStopCommand(),
		newConfigCommand(),
		newCertCommand(),
		newVersionCommand(),
	)
	return root
}

// Main runs the root command with the process arguments and returns the
// exit code.
func Main() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
