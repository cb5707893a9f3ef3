package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envcascade"
)

func newExportCommand(opts *options) *cobra.Command {
	var (
		output string
		noLoad bool
	)

	cmd := &cobra.Command{
		Use:   "export KEY...",
		Short: "Write the given environment variables to a dotenv file",
		Long: `Write the given variables, as currently set, to a dotenv file. Keys
that are not set are skipped.

Examples:
  envcascade export -o snapshot.env DATABASE_URL PORT`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noLoad {
				if err := opts.loadDotenv(); err != nil {
					return err
				}
			}

			if err := envcascade.Export(output, args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", flagDefault(".env.export", "ENVCASCADE_EXPORT_FILE"), "destination file (env: ENVCASCADE_EXPORT_FILE)")
	cmd.Flags().BoolVar(&noLoad, "no-dotenv", false, "do not load a dotenv file first")

	return cmd
}
