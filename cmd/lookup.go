package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// lookupCmd checks the lookup table without processing any document.
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Load and check the product lookup table",
	Long: `Lookup reads the configured product table and reports duplicate names,
empty identifiers and identifiers that fail the GS1 check digit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, rows, warnings, err := loadLookup(appConfig)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
		fmt.Fprintf(out, "%s: %d rows, %d products, %d warnings\n",
			table.Source(), len(rows), table.Len(), len(warnings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
