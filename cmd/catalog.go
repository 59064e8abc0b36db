package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadquery/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List target databases and their column profiles",
	Run: func(cmd *cobra.Command, args []string) {
		for _, db := range catalog.All() {
			fmt.Printf("%s\n", db.ID)
			fmt.Printf("  focus:            %s\n", db.FocusDescription)
			fmt.Printf("  location columns: %s\n", strings.Join(db.Columns.LocationColumns, ", "))
			fmt.Printf("  industry column:  %s\n", db.Columns.IndustryColumn)
			if db.Columns.JobTitleColumnHint != "" {
				fmt.Printf("  job title column: %s\n", db.Columns.JobTitleColumnHint)
			}
			if db.SupplementRef != "" {
				fmt.Printf("  supplement ref:   %s\n", db.SupplementRef)
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
