/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the deskrelay chat relay service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/deskrelay/agent"
	"chainguard.dev/deskrelay/confirm"
	"chainguard.dev/deskrelay/linechat"
	"chainguard.dev/deskrelay/notiondoc"
	"chainguard.dev/deskrelay/relay"
	"chainguard.dev/deskrelay/tracker"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	Port        int `env:"PORT,default=8080"`
	MetricsPort int `env:"METRICS_PORT,default=2112"`

	LineChannelSecret string `env:"LINE_CHANNEL_SECRET,required"`
	LineChannelToken  string `env:"LINE_CHANNEL_TOKEN,required"`

	NotionToken  string `env:"NOTION_TOKEN,required"`
	NotionPageID string `env:"NOTION_PAGE_ID,required"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY,required"`
	Model           string `env:"MODEL_NAME,default=claude-sonnet-4-20250514"`
	MaxToolRounds   int    `env:"MAX_TOOL_ROUNDS,default=10"`

	GitHubToken string `env:"GITHUB_TOKEN,required"`
	GitHubOrg   string `env:"GITHUB_ORG,required"`

	PendingTTL time.Duration `env:"PENDING_TTL,default=5m"`

	// RegistryPath points at the YAML file holding the target registry and
	// the yes/no phrase lists.
	RegistryPath string `env:"REGISTRY_PATH,required"`
}

const agentSystem = `あなたは共有ドキュメントを管理するアシスタントです。
ユーザーのメッセージとドキュメントの現在の内容をもとに、必要であれば提供されたツールでドキュメントを編集し、最後に必ずユーザーへの返信を日本語のテキストで出力してください。`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	registryCfg, err := confirm.LoadConfig(cfg.RegistryPath)
	if err != nil {
		clog.FatalContextf(ctx, "loading target registry: %v", err)
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))

	loop, err := agent.New(client,
		agent.WithModel(cfg.Model),
		agent.WithSystemPrompt(agentSystem),
		agent.WithMaxRounds(cfg.MaxToolRounds),
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating agent loop: %v", err)
	}

	router, err := relay.NewRouter(
		notiondoc.New(cfg.NotionToken, cfg.NotionPageID),
		loop,
		relay.NewClassifier(client, cfg.Model),
		tracker.New(ctx, cfg.GitHubToken, cfg.GitHubOrg),
		confirm.NewMemoryStore(cfg.PendingTTL),
		registryCfg.Matcher(),
		registryCfg.Targets,
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating router: %v", err)
	}

	webhook := linechat.NewServer(cfg.LineChannelSecret,
		linechat.NewReplyClient(cfg.LineChannelToken),
		router.HandleMessage,
	)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		clog.InfoContextf(ctx, "Serving metrics on port %d", cfg.MetricsPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), mux); err != nil {
			clog.ErrorContextf(ctx, "metrics server: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           webhook,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			clog.ErrorContextf(ctx, "shutting down: %v", err)
		}
	}()

	clog.InfoContextf(ctx, "Starting deskrelay on port %d", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}
