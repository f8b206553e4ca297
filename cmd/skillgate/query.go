package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Select skills for a task description",
	Long: `Rank all registered skills against the task text, select an activation
set under the configured policy, and print the result.

Examples:
  skillgate query "write a multi-stage Dockerfile"
  skillgate query "audit shell scripts" --mode threshold --budget 3 --min-score 0.1
  skillgate query "review security checklist" --tool Bash`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		text := strings.Join(args, " ")

		eng, _, config, err := setupEngine(ctx)
		if err != nil {
			presenter.Error(err, "failed to set up engine")
			os.Exit(1)
		}

		policy := policyFromFlags(cmd, config.Selector)
		result, err := eng.Query(ctx, text, &policy)
		if err != nil {
			presenter.Error(err, "query failed")
			os.Exit(1)
		}

		showScores, _ := cmd.Flags().GetBool("scores")
		if showScores {
			presenter.Section("Ranking")
			for _, candidate := range result.Candidates {
				presenter.Info(fmt.Sprintf("%3d. %-30s %.4f", candidate.Rank, candidate.SkillName, candidate.Score))
			}
			presenter.Separator()
		}

		if len(result.Tokens) == 0 {
			presenter.Info("No applicable skill.")
			return
		}

		tool, _ := cmd.Flags().GetString("tool")
		showBody, _ := cmd.Flags().GetBool("body")

		presenter.Section("Activated")
		for _, token := range result.Tokens {
			record := token.Record()
			presenter.Success(fmt.Sprintf("%s (score %.4f, token %s)", token.SkillName(), token.Score(), token.ID()))
			presenter.Info("  allowed tools: " + strings.Join(record.AllowedTools, ", "))

			if tool != "" {
				decision := eng.Authorize(ctx, token, tool)
				if decision.Allowed {
					presenter.Success("  " + decision.String())
				} else {
					presenter.Warning("  " + decision.String())
				}
			}
			if showBody {
				presenter.Separator()
				fmt.Println(record.Body)
			}

			eng.Release(token)
		}

		for _, dropped := range result.Overflow {
			presenter.Warning(fmt.Sprintf("budget overflow: %s (score %.4f) qualified but was dropped", dropped.SkillName, dropped.Score))
		}
	},
}

// policyFromFlags overlays explicitly set flags onto the configured policy.
func policyFromFlags(cmd *cobra.Command, base skills.Policy) skills.Policy {
	policy := base
	if cmd.Flags().Changed("mode") {
		mode, _ := cmd.Flags().GetString("mode")
		policy.Mode = skills.SelectionMode(mode)
	}
	if cmd.Flags().Changed("budget") {
		policy.Budget, _ = cmd.Flags().GetInt("budget")
	}
	if cmd.Flags().Changed("min-score") {
		policy.MinScore, _ = cmd.Flags().GetFloat64("min-score")
	}
	return policy
}

func init() {
	queryCmd.Flags().String("mode", "top1", "Selection mode (top1, topk, threshold)")
	queryCmd.Flags().Int("budget", 1, "Maximum number of skills to activate")
	queryCmd.Flags().Float64("min-score", 0, "Minimum relevance score for activation")
	queryCmd.Flags().String("tool", "", "Run an authorization check for this tool against each activation")
	queryCmd.Flags().Bool("scores", false, "Print the full ranking")
	queryCmd.Flags().Bool("body", false, "Print activated skill bodies")
	rootCmd.AddCommand(queryCmd)
}
