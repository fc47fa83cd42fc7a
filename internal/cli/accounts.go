package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nghyane/llm-gw/internal/config"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the accounts configured in config.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAccounts(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func runAccounts() error {
	cfg, err := config.Load(getConfigPath(), getEnvPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Accounts) == 0 {
		fmt.Println("no accounts configured")
		return nil
	}
	for _, a := range cfg.Accounts {
		hasToken := "no"
		if a.AccessToken != "" {
			hasToken = "yes"
		}
		fmt.Printf("%s\tproject=%s\taccess_token=%s\n", a.Email, a.ProjectID, hasToken)
	}
	return nil
}
