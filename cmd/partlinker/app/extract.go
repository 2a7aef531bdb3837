package app

import (
	"github.com/spf13/cobra"

	"github.com/dbx-solutions/partlinker/internal/extract"
)

// NewExtractCommand creates the extract command.
func (a *App) NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a template starter from an existing KiCad library",
		Long: `Extract reads a symbol out of an existing .kicad_sym file and prints a
ready-to-edit YAML template snippet for it.

The snippet contains the symbol's drawing blocks, its pin/name display
options, and its property lines with the values replaced by {VALUE}
placeholders. Paste it into the template file and rename the category key.`,
		Example: `  partlinker extract -l /usr/share/kicad/symbols/Device.kicad_sym -s R`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library := mustGetString(cmd, "library")
			symbol := mustGetString(cmd, "symbol")

			template, err := extract.FromFile(library, symbol)
			if err != nil {
				return err
			}

			cmd.Print(template.YAML())
			return nil
		},
	}

	cmd.Flags().StringP("library", "l", "", "path to the .kicad_sym file to read")
	cmd.Flags().StringP("symbol", "s", "", "name of the symbol to extract (case-sensitive)")
	_ = cmd.MarkFlagRequired("library")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}
