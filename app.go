package main

import (
	"math"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/cache"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/config"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	slackinfra "github.com/april-knights-dev/slack-reaction-indexer/internal/infrastructure/slack"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/metrics"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/pagination"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/service"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// app はコマンド間で共有する依存関係
type app struct {
	client   *slack.Client
	metrics  *metrics.Metrics
	channels *slackinfra.ChannelRepository
	messages *slackinfra.MessageRepository
	reporter *service.Reporter
}

// newApp は設定からSlackクライアントとReporterを組み立てる
func newApp(cfg *config.Config, logger *zap.Logger) *app {
	client := slackinfra.NewClient(cfg.Slack.BotToken, cfg.Slack.AppToken, cfg.Slack.Debug)
	m := metrics.New()

	channels := slackinfra.NewChannelRepository(client, cfg.Slack.PageLimit)
	messages := slackinfra.NewMessageRepository(client)
	users := slackinfra.NewUserRepository(client, cfg.Slack.PageLimit)

	pager := pagination.NewPager(logger.Named("pager"),
		pagination.WithLimiter(newLimiter(cfg.Slack.RateRPS, cfg.Slack.RateBurst)),
		pagination.WithObserver(m),
		pagination.WithErrorFields(slackinfra.ErrorFields),
	)

	reporter := service.NewReporter(messages, channels, users,
		service.WithPager(pager),
		service.WithUserCache(cache.NewTTL[string, map[string]domain.User](cfg.Report.CacheTTL, cache.WithObserver(m))),
		service.WithMemberCache(cache.NewTTL[string, domain.UserSet](cfg.Report.CacheTTL, cache.WithObserver(m))),
		service.WithLogger(logger.Named("reporter")),
		service.WithReportObserver(m),
	)

	return &app{
		client:   client,
		metrics:  m,
		channels: channels,
		messages: messages,
		reporter: reporter,
	}
}

// newLimiter はSlack APIの呼び出し間隔を制御するリミッタを作成する
// rps が0以下の場合は制限しない
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 || math.IsInf(rps, 1) {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
