package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillgate/pkg/presenter"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered skills",
	Long:  `List all registered skills with their names, descriptions, and allowed tools.`,
	Run: func(cmd *cobra.Command, _ []string) {
		eng, _, _, err := setupEngine(cmd.Context())
		if err != nil {
			presenter.Error(err, "failed to set up engine")
			os.Exit(1)
		}

		records := eng.List()
		if len(records) == 0 {
			presenter.Info("No skills registered.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tALLOWED TOOLS\tORIGIN")
		for _, record := range records {
			tools := strings.Join(record.AllowedTools, ",")
			if tools == "" {
				tools = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", record.Name, truncate(record.Description, 60), tools, record.Origin)
		}
		w.Flush()
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	rootCmd.AddCommand(listCmd)
}
