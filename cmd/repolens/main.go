package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/storage"
)

var (
	dbPath     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "repolens - GitHub issue scanner and analyzer",
	Long: `Incrementally scans a repository's open GitHub issues into a local
SQLite cache and answers questions about them with a language model.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Priority: flags > viper (config file + env vars) > defaults
		if !cmd.Flags().Changed("json") {
			jsonOutput = config.GetBool("json")
		}
		if !cmd.Flags().Changed("db") && dbPath == "" {
			dbPath = config.GetString("db")
		}
	},
}

// openStore opens the SQLite cache, discovering the path when none was
// given and creating the default location on first use.
func openStore() (storage.Storage, error) {
	path := dbPath
	if path == "" {
		path = repolens.FindDatabasePath()
	}
	if path == "" {
		path = repolens.DefaultDatabasePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return repolens.NewSQLiteStorage(path)
}

// newGitHubClient builds the API client from configuration
func newGitHubClient() *github.Client {
	return github.NewClient(config.GetString("github.base-url"), config.GetString("github.token"))
}

func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Local credentials commonly live in a .env file
	_ = godotenv.Load()

	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .repolens/*.db or ~/.repolens/repolens.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("repolens version %s (%s)\n", Version, Build)
			return
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
