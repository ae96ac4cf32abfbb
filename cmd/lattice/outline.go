package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the component tree of a document",
	Long: `Prints the document as a Markdown outline or as a Mermaid diagram (graph TD).
Misplaced components are listed (markdown) or styled as invalid (mermaid).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		render, _ := cmd.Flags().GetBool("render")
		selected, _ := cmd.Flags().GetStringSlice("select")

		return cli.RunOutline(cmd.OutOrStdout(), args[0], cli.OutlineOptions{
			Format:       format,
			Render:       render,
			SectionsOnly: cfg.Editor.SectionsOnly,
			Selected:     selected,
		})
	},
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().StringP("format", "f", cli.FormatMarkdown, "Output format: markdown or mermaid")
	outlineCmd.Flags().Bool("render", false, "Render the output for the terminal")
	outlineCmd.Flags().StringSlice("select", nil, "Component ids to highlight (mermaid)")
}
