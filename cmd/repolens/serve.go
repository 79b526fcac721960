package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/repolens/repolens/internal/analyze"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/llm"
	"github.com/repolens/repolens/internal/scan"
	"github.com/repolens/repolens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the scan and analysis operations over HTTP. Endpoints:

  POST /api/scan                         {"repo": "owner/name"}
  POST /api/analyze                      {"repo": "owner/name", "question": "..."}
  GET  /api/repos/:owner/:name/status
  GET  /healthz`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = config.GetString("serve.addr")
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

		logger := setupServerLogger(config.GetString("log.file"))
		scanner := scan.New(store, newGitHubClient(), logger)
		analyzer := analyze.NewAnalyzer(store, client)

		srv := server.New(store, scanner, analyzer, logger)
		if err := srv.Run(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// setupServerLogger logs JSON to stderr, or to a rotating file when a
// log path is configured.
func setupServerLogger(logPath string) *slog.Logger {
	var w io.Writer = os.Stderr
	if logPath != "" {
		w = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		}
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

func init() {
	serveCmd.Flags().String("addr", ":8484", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
