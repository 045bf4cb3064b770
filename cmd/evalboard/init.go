package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/evalboard/internal/config"
	"github.com/vango-dev/evalboard/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default configuration file",
		Long: `Write a configuration file with the default dashboard routes.

Examples:
  evalboard init
  evalboard init ./deploy --format=toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			var name string
			switch format {
			case "json":
				name = config.ConfigFileName
			case "toml":
				name = config.TOMLConfigFileName
			default:
				return errors.New("E300").
					WithDetail(fmt.Sprintf("unknown format %q", format)).
					WithSuggestion("Use --format=json or --format=toml")
			}

			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E300").
					WithFile(path).
					WithDetail("configuration file already exists").
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Configuration format: json or toml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
