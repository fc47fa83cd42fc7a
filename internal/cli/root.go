// Package cli provides the Cobra-based command-line interface for llm-gw.
// Grounded on the teacher's own internal/cli/root.go (persistent
// --config/--debug flags, a default Run that falls through to serve),
// rewritten in full: the teacher's file referenced
// internal/cli/{importcmd,login,service} subpackages this retrieval slice
// never included, so there was no serveCmd/accounts/warmup to adapt — only
// the rootCmd shape itself survives unchanged.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nghyane/llm-gw/internal/buildinfo"
)

var (
	cfgFile string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "llm-gw",
	Short: "Local AI gateway for OpenAI/Anthropic/Gemini-compatible clients",
	Long:  `llm-gw translates OpenAI-, Anthropic-, and Gemini-compatible chat requests onto Google's internal Gemini endpoint over a pool of OAuth-backed accounts.`,
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(serveCmd, args)
	},
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	rootCmd.Version = buildinfo.Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv secrets file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(warmupCmd)
}

func getConfigPath() string { return cfgFile }
func getEnvPath() string    { return envFile }
func getDebug() bool        { return debug }
