// Command pilot-server runs the browser-automation agent orchestrator: it
// loads configuration from the environment, wires the session orchestrator
// and its collaborators, and serves the client channel over a websocket.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/pilot/pkg/browser"
	"github.com/entrhq/pilot/pkg/channel"
	"github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/decider"
	"github.com/entrhq/pilot/pkg/guardrail"
	"github.com/entrhq/pilot/pkg/llm/openai"
	"github.com/entrhq/pilot/pkg/logging"
	"github.com/entrhq/pilot/pkg/orchestrator"
	"github.com/entrhq/pilot/pkg/planner"
	"github.com/entrhq/pilot/pkg/server"
	"github.com/entrhq/pilot/pkg/store"
	"github.com/entrhq/pilot/pkg/synth"
	"github.com/entrhq/pilot/pkg/visibility"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger("pilot-server")
	if err != nil {
		log.Printf("logging fell back to stderr: %v", err)
	}
	defer logger.Close()

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	manager := browser.NewSessionManager()
	if err := manager.Initialize(); err != nil {
		log.Fatalf("browser: %v", err)
	}
	defer manager.Shutdown()

	provider, err := openai.NewProvider(cfg.LLMAPIKey, openai.WithModel(cfg.LLMModel), openai.WithBaseURL(cfg.LLMBaseURL))
	if err != nil {
		log.Fatalf("llm provider: %v", err)
	}

	scoutLog := func(message string) { logger.Infof("scout: %s", message) }
	scout := planner.NewScout(provider, manager, scoutLog)

	visibilityProvider := provider.CloneForVisibility(cfg.VisibilityModel)

	hub := channel.NewHub()

	deps := orchestrator.Deps{
		Config:      cfg,
		Manager:     manager,
		DB:          db,
		Planner:     planner.New(provider, scout),
		Decider:     decider.New(provider),
		Visibility:  visibility.New(visibilityProvider),
		Gate:        guardrail.NewGate(cfg.ConfirmationKeywords, nil, cfg.AllowedDomains),
		Synthesizer: synth.New(provider),
		Emit:        hub.Broadcast,
	}
	orch := orchestrator.New(deps)

	srv := server.New(listenAddr(cfg.Port), cfg.ArtifactsDir, hub, orch, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Infof("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Errorf("server: %v", err)
		log.Fatalf("server: %v", err)
	}
}

func listenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
