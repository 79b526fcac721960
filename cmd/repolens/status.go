package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <owner/repo>",
	Short: "Show the cached scan state for a repository",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo := args[0]
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

		state, err := store.GetScanState(context.Background(), repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if state == nil {
			fmt.Fprintf(os.Stderr, "Error: %s has never been scanned, run 'repolens scan %s' first\n", repo, repo)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(state)
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s %s\n", cyan("Repository:"), state.Repo)
		fmt.Printf("%s %d\n", cyan("Cached issues:"), state.TotalIssues)
		fmt.Printf("%s %s\n", cyan("Last scanned:"), state.LastScannedAt.Local().Format("2006-01-02 15:04:05"))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
