package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nghyane/llm-gw/internal/api"
	"github.com/nghyane/llm-gw/internal/config"
	"github.com/nghyane/llm-gw/internal/logging"
	"github.com/nghyane/llm-gw/internal/monitor"
	"github.com/nghyane/llm-gw/internal/orchestrator"
	"github.com/nghyane/llm-gw/internal/pool"
	"github.com/nghyane/llm-gw/internal/registry"
	"github.com/nghyane/llm-gw/internal/upstream"
	"github.com/nghyane/llm-gw/internal/warmup"
)

// poolGaugePeriod is how often serveCmd refreshes the pool-size gauges —
// cheap enough (an RLock and a slice walk) to run far more often than a
// typical scrape interval without mattering.
const poolGaugePeriod = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func runServe() error {
	cfg, err := config.Load(getConfigPath(), getEnvPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if getDebug() {
		cfg.Debug = true
	}
	store := config.NewStore(cfg)

	reg := registry.New()
	reg.SetCustomMapping(cfg.CustomMapping)

	accounts := config.BuildAccounts(cfg.Accounts)
	accountPool := pool.New(accounts)
	upstreamClient := upstream.NewClient()
	go upstream.PrewarmConnections(context.Background())

	logger := logging.New(cfg.Debug, cfg.RequestLogPath)
	metrics := monitor.New()
	hub := monitor.NewHub()
	logger.SetCollaborators(logging.Collaborators{
		OnRequestEnd: func(rl *logging.RequestLog) {
			metrics.ObserveRequest(string(rl.Protocol), strconv.Itoa(rl.Status), rl.Duration)
			hub.Broadcast(rl)
		},
		OnRotate: func(accountID, reason string) {
			metrics.ObserveRotation(reason)
			hub.Broadcast(map[string]string{"event": "rotate", "account_id": accountID, "reason": reason})
		},
	})

	orch := orchestrator.New(accountPool, reg, upstreamClient, store, logger)
	wu := warmup.New(accountPool, upstreamClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config.Watch(ctx, store, getConfigPath(), cfg.MappingFile, getEnvPath(), func(reloaded *config.Config) {
		reg.SetCustomMapping(reloaded.CustomMapping)
	})

	stopGauges := make(chan struct{})
	go reportPoolSize(accountPool, metrics, stopGauges)
	defer close(stopGauges)

	router := api.New(orch, wu, metrics, hub, cfg.Debug)
	srv := &http.Server{Addr: cfg.ServerAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func reportPoolSize(p *pool.AccountPool, m *monitor.Metrics, stop <-chan struct{}) {
	ticker := time.NewTicker(poolGaugePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.SetPoolSize(p.Len(), p.Total())
		case <-stop:
			return
		}
	}
}
