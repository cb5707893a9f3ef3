package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vivaneiona/envcascade"
)

func newCheckCommand() *cobra.Command {
	var showKeys bool

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate dotenv files without applying them",
		Long: `Parse dotenv files and report malformed lines. Nothing is written to
the environment.

Examples:
  envcascade check .env
  envcascade check --keys .env .env.production`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			bold := color.New(color.Bold).SprintFunc()

			failed := 0
			for _, path := range args {
				entries, err := envcascade.ParseFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", red("invalid:"), err)
					failed++
					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d entries)\n", green("valid:"), path, len(entries))
				if showKeys {
					for _, e := range entries {
						fmt.Fprintf(cmd.OutOrStdout(), "  %4d  %s\n", e.Line, bold(e.Key))
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed validation", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showKeys, "keys", "k", false, "list the keys of valid files with their line numbers")

	return cmd
}
