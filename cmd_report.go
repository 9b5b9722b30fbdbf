package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/presentation"
	"github.com/spf13/cobra"
)

var (
	reportChannel    string
	reportTimestamp  string
	reportNonReacted bool
)

// reportCmd は1件のメッセージを集計して標準出力に表示する
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "メッセージのリアクションを集計して表示する",
	Long: `指定したメッセージにリアクションしたチャンネルメンバーを表示します。

例:
  slack-reaction-indexer report --channel general --ts 1504840306.000009
  slack-reaction-indexer report --channel C0123ABCD --ts 1504840306.000009 --non-reacted`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportChannel, "channel", "", "チャンネル名またはチャンネルID（必須）")
	reportCmd.Flags().StringVar(&reportTimestamp, "ts", "", "メッセージのタイムスタンプ（必須）")
	reportCmd.Flags().BoolVar(&reportNonReacted, "non-reacted", false, "リアクションしていないメンバーも表示する")
	_ = reportCmd.MarkFlagRequired("channel")
	_ = reportCmd.MarkFlagRequired("ts")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(false); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Report.Timeout)
	defer cancel()

	a := newApp(cfg, logger)
	channelID, err := resolveChannelID(ctx, a.channels, reportChannel)
	if err != nil {
		return err
	}

	ref := domain.MessageRef{ChannelID: channelID, Timestamp: reportTimestamp}
	report, err := a.reporter.ComputeReport(ctx, ref, domain.ReportOptions{IncludeNonReacted: reportNonReacted})
	if err != nil {
		return fmt.Errorf("レポート作成エラー: %w", err)
	}

	permalink := presentation.ResolvePermalink(ctx, a.messages, ref, cfg.Slack.Workspace, logger)
	return presentation.WriteText(cmd.OutOrStdout(), report, permalink)
}

var channelIDPattern = regexp.MustCompile(`^[CG][A-Z0-9]{6,}$`)

// resolveChannelID はチャンネルIDならそのまま返し、それ以外はチャンネル名として検索する
func resolveChannelID(ctx context.Context, repo domain.ChannelRepository, channel string) (string, error) {
	if channelIDPattern.MatchString(channel) {
		return channel, nil
	}
	ch, err := repo.FindByName(ctx, channel)
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}
