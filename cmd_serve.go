package main

import (
	"os/signal"
	"syscall"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/bot"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/httpapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serveCmd はSocket Modeのボットと監視用HTTPサーバーを起動する
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Socket Modeでボットを起動する",
	Long: `メッセージショートカットを受け付けるボットを起動します。

  get_reaction_users   リアクションしたユーザーの一覧をDMで送る
  get_reaction_report  オプションを選ぶモーダルを開き、結果をDMで送る

同時に /health と /metrics を提供するHTTPサーバーを起動します。`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(true); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)
	b := bot.New(a.client, a.reporter, a.messages, bot.Config{
		Workspace: cfg.Slack.Workspace,
		ChunkSize: cfg.Report.ChunkSize,
		Timeout:   cfg.Report.Timeout,
		Debug:     cfg.Slack.Debug,
	}, logger.Named("bot"))
	srv := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(a.metrics.Handler(), logger.Named("http")), logger.Named("http"))

	logger.Info("起動します",
		zap.String("workspace", cfg.Slack.Workspace),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Duration("cache_ttl", cfg.Report.CacheTTL),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(ctx)
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("異常終了しました", zap.Error(err))
		return err
	}
	logger.Info("停止しました")
	return nil
}
