package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillgate/pkg/presenter"
)

var showCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a registered skill",
	Long: `Show the metadata and body of a registered skill.

Examples:
  skillgate show docker-patterns
  skillgate show docker-patterns --format json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")

		eng, _, _, err := setupEngine(cmd.Context())
		if err != nil {
			presenter.Error(err, "failed to set up engine")
			os.Exit(1)
		}

		record, err := eng.Lookup(args[0])
		if err != nil {
			presenter.Error(err, "lookup failed")
			os.Exit(1)
		}

		switch format {
		case "json":
			out, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				presenter.Error(err, "failed to encode skill")
				os.Exit(1)
			}
			fmt.Println(string(out))
		case "yaml":
			out, err := yaml.Marshal(record)
			if err != nil {
				presenter.Error(err, "failed to encode skill")
				os.Exit(1)
			}
			fmt.Print(string(out))
		case "text":
			presenter.Section(record.Name)
			presenter.Info("Description: " + record.Description)
			presenter.Info(fmt.Sprintf("Allowed tools: %v", record.AllowedTools))
			if record.Origin != "" {
				presenter.Info("Origin: " + record.Origin)
			}
			presenter.Separator()
			fmt.Println(record.Body)
		default:
			presenter.Error(errors.Errorf("unknown format %q", format), "invalid flag")
			os.Exit(1)
		}
	},
}

func init() {
	showCmd.Flags().String("format", "text", "Output format (text, json, yaml)")
	rootCmd.AddCommand(showCmd)
}
