package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadquery/internal/model"
)

var parseFollowUp string

var parseCmd = &cobra.Command{
	Use:   "parse <description>",
	Short: "Parse one query and print the result as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline()
		if err != nil {
			return err
		}

		result, err := p.Run(cmd.Context(), model.ParseRequest{
			Description:      strings.Join(args, " "),
			FollowUpResponse: parseFollowUp,
		})
		if err != nil {
			return eris.Wrap(err, "parse")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFollowUp, "follow-up", "", "answer to a previous follow-up question")
	rootCmd.AddCommand(parseCmd)
}
