// Package cli implements the envcascade command: resolve typed values from
// the environment, validate dotenv files and export variables.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vivaneiona/envcascade"
)

var version = "dev"

type options struct {
	envFile  string
	override bool
	noColor  bool
	verbose  bool
}

// flagDefault reads a flag default from the environment, ignoring values
// that do not parse.
func flagDefault[T any](def T, keys ...string) T {
	v, err := envcascade.ResolveOr(def, keys...)
	if err != nil {
		return def
	}
	return v
}

// NewRootCommand builds the command tree. Each call returns fresh state.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "envcascade",
		Short: "Typed environment variables with fallbacks",
		Long: `envcascade resolves typed values from environment variables, trying
candidate keys in order, and works with .env files.

Examples:
  envcascade get --type uint16 --default 8080 PORT HTTP_PORT
  envcascade check .env .env.local
  envcascade export -o snapshot.env PORT HOST`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
			if opts.verbose {
				envcascade.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", flagDefault("", "ENVCASCADE_ENV_FILE"), "dotenv file to load (default $DOTENV_PATH or .env) (env: ENVCASCADE_ENV_FILE)")
	flags.BoolVar(&opts.override, "override", flagDefault(false, "ENVCASCADE_OVERRIDE"), "let dotenv values replace existing variables (env: ENVCASCADE_OVERRIDE)")
	flags.BoolVar(&opts.noColor, "no-color", flagDefault(false, "ENVCASCADE_NO_COLOR", "NO_COLOR"), "disable colored output (env: ENVCASCADE_NO_COLOR, NO_COLOR)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log dotenv activity to stderr")

	root.AddCommand(newGetCommand(opts))
	root.AddCommand(newCheckCommand())
	root.AddCommand(newExportCommand(opts))

	return root
}

// loadDotenv applies --env-file, or the default dotenv location, to the
// process environment.
func (o *options) loadDotenv() error {
	loader := &envcascade.Loader{Override: o.override}
	if o.envFile != "" {
		return loader.LoadPath(o.envFile)
	}
	return loader.Load()
}

// Execute runs the command line and reports a failure on stderr.
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
	}
	return err
}
