package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/evalboard/internal/errors"
	"github.com/vango-dev/evalboard/pkg/routepath"
)

type resolution struct {
	Path    string   `json:"path"`
	Visited []string `json:"visited"`
	Final   string   `json:"final"`
	View    string   `json:"view,omitempty"`
	Name    string   `json:"name,omitempty"`
}

func resolveCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve paths against the route table",
		Long: `Resolve paths against the route table and print the redirect chain.

Guards are not run; this shows where the table alone sends a path.

Examples:
  evalboard resolve /
  evalboard resolve /accuracy /performance --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newQuietShell(cmd, flags)
			if err != nil {
				return err
			}

			var results []resolution
			for _, arg := range args {
				path, err := routepath.Clean(arg)
				if err != nil {
					return errors.New("E300").
						WithDetail(fmt.Sprintf("%q is not a valid route path: %v", arg, err)).
						Wrap(err)
				}
				route, visited, err := sh.Table().Follow(path, sh.Config().Navigation.RedirectLimit)
				if err != nil {
					return errors.FromNavigation(err)
				}
				res := resolution{Path: arg, Visited: visited, Final: route.Path, Name: route.Name}
				res.View, _ = sh.Views().NameOf(route.View)
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for _, res := range results {
				fmt.Fprintf(out, "%s => %s (%s)\n", res.Path, res.Final, dash(res.View))
				if len(res.Visited) > 1 {
					info(out, "via %s", strings.Join(res.Visited, " -> "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}
