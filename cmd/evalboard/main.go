package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/evalboard/internal/config"
	"github.com/vango-dev/evalboard/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config  string
	region  string
	noColor bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		errors.Fprint(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "evalboard",
		Short: "Evaluation dashboard shell",
		Long: `evalboard serves the model evaluation dashboard.

It resolves dashboard routes, runs navigation guards and keeps one
navigation session per connected client. Features include:

  • Layout groups, named routes and redirects
  • Cancel-in-flight navigation over WebSocket
  • Prometheus metrics and OpenTelemetry tracing
  • JSON, TOML or S3-hosted configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Config file, directory or s3://bucket/key (default: current directory)")
	pf.StringVar(&flags.region, "region", "", "AWS region for s3:// configs (default: $AWS_REGION)")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		serveCmd(flags),
		routesCmd(flags),
		resolveCmd(flags),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads and validates the configuration named by the flags.
// Without --config, the current directory is tried and the built-in
// dashboard is used when it has no configuration file.
func loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.config == "":
		cfg, err = config.Load(".")
		var coded *errors.Error
		if stderrors.As(err, &coded) && coded.Code == "E100" {
			cfg, err = config.New(), nil
		}
	case strings.HasPrefix(flags.config, "s3://"):
		cfg, err = config.LoadSource(ctx, flags.config, config.NewS3Client(flags.region, os.Getenv))
	default:
		cfg, err = config.LoadSource(ctx, flags.config, nil)
	}
	if err != nil {
		return nil, err
	}

	cfg.ResolveMode(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
