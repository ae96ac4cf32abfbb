package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check documents against the placement rules",
	Long: `Reads page documents (.json, .yaml or .yml) and reports every component placed
under a parent that does not accept it. Exits non-zero when any document fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sectionsOnly := cfg.Editor.SectionsOnly
		if cmd.Flags().Changed("sections-only") {
			sectionsOnly, _ = cmd.Flags().GetBool("sections-only")
		}
		return cli.RunValidate(cmd.OutOrStdout(), args, sectionsOnly)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("sections-only", false, "Only allow sections at the root")
}
