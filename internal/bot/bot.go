// Package bot はSocket Modeでメッセージショートカットを受け付け、
// リアクションのレポートを実行者にDMで送る
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/presentation"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// ショートカットとモーダルのコールバックID
const (
	CallbackReactionUsers  = "get_reaction_users"
	CallbackReactionReport = "get_reaction_report"
	CallbackReportModal    = "reaction_report_modal"
)

const postTimeout = 10 * time.Second

// SlackAPI はボットが使うSlack Web APIの操作
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
}

// ReportComputer はレポートを計算する
type ReportComputer interface {
	ComputeReport(ctx context.Context, ref domain.MessageRef, opts domain.ReportOptions) (*domain.Report, error)
}

// Config はボットの設定
type Config struct {
	Workspace string        // アーカイブURLのフォールバックに使うワークスペース名
	ChunkSize int           // 未リアクションのメンバーを何人ずつ表示するか
	Timeout   time.Duration // 1回のレポート作成にかける上限時間
	Debug     bool
}

// Bot はメッセージショートカットを処理するSlackボット
type Bot struct {
	client     SlackAPI
	socketMode *socketmode.Client
	reporter   ReportComputer
	permalinks presentation.PermalinkGetter
	cfg        Config
	logger     *zap.Logger

	// 実行中のレポート作成
	wg sync.WaitGroup
}

// New はSocket Modeで動作するボットを作成する
// client は SLACK_APP_TOKEN を設定して作成されている必要がある
func New(client *slack.Client, reporter ReportComputer, permalinks presentation.PermalinkGetter, cfg Config, logger *zap.Logger) *Bot {
	b := newBot(client, reporter, permalinks, cfg, logger)
	b.socketMode = socketmode.New(client, socketmode.OptionDebug(cfg.Debug))
	return b
}

func newBot(client SlackAPI, reporter ReportComputer, permalinks presentation.PermalinkGetter, cfg Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Bot{
		client:     client,
		reporter:   reporter,
		permalinks: permalinks,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run はイベントループを開始し、ctx がキャンセルされるまでブロックする
// 終了時は実行中のレポート作成が終わるのを待つ
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-b.socketMode.Events:
				if !ok {
					return
				}
				b.handleEvent(ctx, evt)
			}
		}
	}()

	err := b.socketMode.RunContext(ctx)
	cancel()
	<-loopDone
	b.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Wait は実行中のレポート作成がすべて終わるまで待つ
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("Socket Modeに接続しています")

	case socketmode.EventTypeConnected:
		b.logger.Info("Socket Modeに接続しました")

	case socketmode.EventTypeConnectionError:
		b.logger.Warn("Socket Modeの接続エラー", zap.Any("data", evt.Data))

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.socketMode.Ack(*evt.Request)
		}
		b.handleInteraction(ctx, callback)
	}
}

// handleInteraction はショートカットとモーダルの送信を振り分ける
func (b *Bot) handleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	logger := b.logger.With(
		zap.String("type", string(callback.Type)),
		zap.String("callback_id", callback.CallbackID),
		zap.String("user", callback.User.ID),
	)

	switch callback.Type {
	case slack.InteractionTypeMessageAction:
		ref := domain.MessageRef{ChannelID: callback.Channel.ID, Timestamp: callback.MessageTs}
		if ref.Timestamp == "" {
			ref.Timestamp = callback.Message.Timestamp
		}

		switch callback.CallbackID {
		case CallbackReactionUsers:
			b.dispatch(ctx, callback.User.ID, ref, domain.ReportOptions{})
		case CallbackReactionReport:
			if _, err := b.client.OpenViewContext(ctx, callback.TriggerID, buildReportModal(ref)); err != nil {
				logger.Error("モーダルを開けませんでした", zap.Error(err))
				b.postText(ctx, callback.User.ID, presentation.ApologyText)
			}
		default:
			logger.Debug("未対応のショートカット")
		}

	case slack.InteractionTypeViewSubmission:
		if callback.View.CallbackID != CallbackReportModal {
			logger.Debug("未対応のモーダル")
			return
		}
		ref, err := parseMetadata(callback.View.PrivateMetadata)
		if err != nil {
			logger.Error("モーダルのメタデータが不正です", zap.Error(err))
			b.postText(ctx, callback.User.ID, presentation.ApologyText)
			return
		}
		b.dispatch(ctx, callback.User.ID, ref, domain.ReportOptions{
			IncludeNonReacted: includeNonReacted(callback.View.State),
		})
	}
}

// dispatch はレポートの作成と送信をイベントループとは別のゴルーチンで行う
func (b *Bot) dispatch(ctx context.Context, userID string, ref domain.MessageRef, opts domain.ReportOptions) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("レポート作成中にパニックが発生しました",
					zap.Any("panic", r), zap.String("message", ref.String()), zap.Stack("stack"))
				b.postText(ctx, userID, presentation.ApologyText)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.Timeout)
		defer cancel()
		b.deliver(ctx, userID, ref, opts)
	}()
}

// deliver はレポートを作成して userID にDMで送る
func (b *Bot) deliver(ctx context.Context, userID string, ref domain.MessageRef, opts domain.ReportOptions) {
	logger := b.logger.With(zap.String("user", userID), zap.String("message", ref.String()))

	report, err := b.reporter.ComputeReport(ctx, ref, opts)
	if err != nil {
		logger.Error("レポートの作成に失敗しました", zap.Error(err))
		b.postText(ctx, userID, presentation.ApologyText)
		return
	}
	if !report.HasReactions() && !report.Options.IncludeNonReacted {
		b.postText(ctx, userID, presentation.NoReactionsText)
		return
	}

	permalink := presentation.ResolvePermalink(ctx, b.permalinks, ref, b.cfg.Workspace, logger)
	blocks := presentation.BuildBlocks(report, permalink, b.cfg.ChunkSize)
	for _, part := range presentation.SplitBlocks(blocks, presentation.MaxBlocks) {
		_, _, err := b.client.PostMessageContext(ctx, userID,
			slack.MsgOptionText(presentation.FallbackText(report), false),
			slack.MsgOptionBlocks(part...),
		)
		if err != nil {
			logger.Error("レポートを送信できませんでした", zap.Error(err))
			return
		}
	}
	logger.Info("レポートを送信しました", zap.Bool("degraded", report.Degraded))
}

// postText はテキストのみのDMを送る
// 呼び出し元のキャンセルは引き継がない
func (b *Bot) postText(ctx context.Context, userID, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postTimeout)
	defer cancel()
	if _, _, err := b.client.PostMessageContext(ctx, userID, slack.MsgOptionText(text, false)); err != nil {
		b.logger.Error("メッセージを送信できませんでした", zap.String("user", userID), zap.Error(fmt.Errorf("chat.postMessage: %w", err)))
	}
}
