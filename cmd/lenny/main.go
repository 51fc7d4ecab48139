package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uiaudit/lenny/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lenny",
	Short: "Lenny answers questions about where things live in the app UI",
	Long: `Lenny is a retrieval-augmented chat assistant. It searches scraped
application UI content and knowledge-base articles, then streams a grounded
answer over server-sent events.

Configuration is read from config/<ENV>.yaml (ENV defaults to "local").`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, ingestCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
