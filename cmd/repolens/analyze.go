package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/analyze"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/llm"
	"github.com/repolens/repolens/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <owner/repo> <question>",
	Short: "Ask a question about a repository's cached issues",
	Long: `Builds a bounded context from the repository's cached issues and sends
it with your question to the configured language model. The repository
must be scanned first.

The model defaults to a local OpenAI-compatible endpoint (e.g. Ollama).
Set llm.provider to "anthropic" to use the Anthropic API instead.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		repo := args[0]
		question := strings.Join(args[1:], " ")
		if err := types.ValidateRepoSlug(repo); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		store, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		client, err := llm.NewClient(config.LLMConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		analyzer := analyze.NewAnalyzer(store, client)
		answer, err := analyzer.Analyze(context.Background(), repo, question)
		if err != nil {
			if errors.Is(err, analyze.ErrNoCachedIssues) {
				fmt.Fprintf(os.Stderr, "Error: no cached issues for %s, run 'repolens scan %s' first\n", repo, repo)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{
				"repo":     repo,
				"question": question,
				"answer":   answer,
			})
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s %s\n\n%s\n", cyan("Q:"), question, answer)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
