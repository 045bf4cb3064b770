package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// currentBuild reports the ldflags-stamped build, falling back to the
// module version recorded by go install.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Version != "dev" {
		return b
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		b.Version = bi.Main.Version
	}
	return b
}

func versionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the evalboard version with the commit, build date and toolchain it was built from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := currentBuild()
			out := cmd.OutOrStdout()
			switch {
			case short:
				fmt.Fprintln(out, b.Version)
			case asJSON:
				return json.NewEncoder(out).Encode(b)
			default:
				fmt.Fprintf(out, "evalboard %s (commit %s, built %s) %s %s\n",
					b.Version, b.Commit, b.Date, b.GoVersion, b.Platform)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")

	return cmd
}
