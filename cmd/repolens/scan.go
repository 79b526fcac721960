package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/scan"
	"github.com/repolens/repolens/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan <owner/repo>",
	Short: "Scan a repository's open issues into the local cache",
	Long: `Fetches open issues from the GitHub API, newest first, and stores them
in the local cache. Subsequent scans only fetch issues created since the
last scan, so they converge quickly on active repositories.`,
	Args: cobra.ExactArgs(1),
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

		timeout := config.GetDuration("scan.timeout")
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		scanner := scan.New(store, newGitHubClient(), nil)
		result, err := scanner.Scan(ctx, repo)
		if err != nil {
			if errors.Is(err, scan.ErrRepoNotFound) {
				fmt.Fprintf(os.Stderr, "Error: repository %s not found or not accessible\n", repo)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		switch result.Status {
		case types.ScanFirstScan:
			fmt.Printf("%s Scanned %s for the first time: %d issues cached\n",
				green("✓"), repo, result.IssuesFetched)
		case types.ScanUpdated:
			fmt.Printf("%s Updated %s: %d new issues, %d cached in total\n",
				green("✓"), repo, result.NewFetched, result.IssuesFetched)
		default:
			fmt.Printf("%s %s is up to date: %d issues cached\n",
				green("✓"), repo, result.IssuesFetched)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
