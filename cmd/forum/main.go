package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "forum",
	Short: "Q&A forum front-end",
	Long: `forum talks to the Q&A forum API and keeps a live, sorted view of
all questions. Run "forum serve" for the browser front-end or
"forum watch" to follow the forum in a terminal.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("api", "", "forum API base URL (overrides FORUM_API_URL)")
	rootCmd.PersistentFlags().String("ws", "", "push channel URL (overrides FORUM_WS_URL)")
	rootCmd.PersistentFlags().String("data-dir", "", "session storage directory (overrides FORUM_DATA_DIR)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
