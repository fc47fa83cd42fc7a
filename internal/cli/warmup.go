package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/nghyane/llm-gw/internal/config"
	"github.com/nghyane/llm-gw/internal/pool"
	"github.com/nghyane/llm-gw/internal/upstream"
	"github.com/nghyane/llm-gw/internal/warmup"
)

var (
	warmupEmail string
	warmupModel string
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Trigger a single warmup probe against one configured account",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWarmup(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	warmupCmd.Flags().StringVar(&warmupEmail, "email", "", "account email to warm up (required)")
	warmupCmd.Flags().StringVar(&warmupModel, "model", "", "model name to probe (required)")
	warmupCmd.MarkFlagRequired("email")
	warmupCmd.MarkFlagRequired("model")
}

// runWarmup builds the same pool/upstream stack runServe does, then drives
// warmup.Engine.Handle directly through a synthesized gin.Context rather
// than duplicating Handle's credential-resolution and canned-probe logic
// for a second time here.
func runWarmup() error {
	cfg, err := config.Load(getConfigPath(), getEnvPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	accounts := config.BuildAccounts(cfg.Accounts)
	accountPool := pool.New(accounts)
	upstreamClient := upstream.NewClient()
	wu := warmup.New(accountPool, upstreamClient)

	body, err := json.Marshal(warmup.Request{Email: warmupEmail, Model: warmupModel})
	if err != nil {
		return fmt.Errorf("encode warmup request: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/internal/warmup", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	wu.Handle(c)

	fmt.Println(rec.Body.String())
	if rec.Code >= 300 {
		return fmt.Errorf("warmup failed with status %d", rec.Code)
	}
	return nil
}
