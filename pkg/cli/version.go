package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockserver/pkg/cli/internal/output"
)

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func newVersionCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show mockserver version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := currentVersion()
			if jsonOutput {
				return output.JSON(cmd.OutOrStdout(), out)
			}

			v := out.Version
			if len(v) > 0 && v[0] != 'v' && v != "dev" && v != "(devel)" {
				v = "v" + v
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mockserver %s (%s, %s)\n", v, out.Commit, out.Date)
			fmt.Fprintf(w, "%s %s/%s\n", out.Go, out.OS, out.Arch)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

// currentVersion fills unset build variables from the embedded build info.
func currentVersion() VersionOutput {
	version, commit, date := Version, Commit, BuildDate

	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "dev" && info.Main.Version != "" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "none" {
					commit = setting.Value
				}
			case "vcs.time":
				if date == "unknown" {
					date = setting.Value
				}
			case "vcs.modified":
				if setting.Value == "true" {
					commit += "-dirty"
				}
			}
		}
	}

	return VersionOutput{
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}
