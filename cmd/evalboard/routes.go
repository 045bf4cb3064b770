package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/evalboard/pkg/router"
	"github.com/vango-dev/evalboard/pkg/shell"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Long: `Print the flattened route table built from the configuration.

Routes hidden by an earlier route with the same path are listed
separately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newQuietShell(cmd, flags)
			if err != nil {
				return err
			}
			printRoutes(cmd.OutOrStdout(), sh)
			return nil
		},
	}
}

// newQuietShell builds a shell whose logs go to stderr at the configured level.
func newQuietShell(cmd *cobra.Command, flags *globalFlags) (*shell.Shell, error) {
	cfg, err := loadConfig(cmd.Context(), flags)
	if err != nil {
		return nil, err
	}
	return shell.New(cfg, shell.WithLogger(shell.NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Debug())))
}

func printRoutes(w io.Writer, sh *shell.Shell) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tNAME\tVIEW\tLAYOUTS")
	for _, r := range sh.Table().Routes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Path, r.Kind, dash(r.Name), viewColumn(sh, r), layoutsColumn(sh, r))
	}
	tw.Flush()

	if shadowed := sh.Table().Shadowed(); len(shadowed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Shadowed:")
		for _, r := range shadowed {
			fmt.Fprintf(w, "  %s (%s)\n", r.Path, r.Kind)
		}
	}
}

func viewColumn(sh *shell.Shell, r router.Route) string {
	if r.Kind == router.KindRedirect {
		return "-> " + r.Target
	}
	name, _ := sh.Views().NameOf(r.View)
	return dash(name)
}

func layoutsColumn(sh *shell.Shell, r router.Route) string {
	names := make([]string, 0, len(r.Layouts))
	for _, l := range r.Layouts {
		if name, ok := sh.Views().NameOf(l); ok {
			names = append(names, name)
		}
	}
	return dash(strings.Join(names, " > "))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
