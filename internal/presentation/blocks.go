// Package presentation はレポートをSlackのBlock Kitとテキストに整形する
package presentation

import (
	"context"
	"fmt"
	"strings"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/service"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const (
	// MaxSectionText はsectionブロックのテキスト上限
	MaxSectionText = 3000
	// MaxBlocks は1メッセージに含められるブロック数の上限
	MaxBlocks = 50

	HeaderText      = "リアクションしたユーザーの一覧"
	FallbackMessage = "メッセージにリアクションしたユーザーを一覧化しました！"
	NoReactionsText = "このメッセージにはリアクションがありません。"
	ApologyText     = "レポートの作成に失敗しました。しばらくしてからもう一度お試しください。"
	DegradedText    = ":warning: 一部のメンバー情報を取得できなかったため、結果が不完全な可能性があります"
)

// PermalinkGetter はメッセージのパーマリンクを取得する
type PermalinkGetter interface {
	Permalink(ctx context.Context, ref domain.MessageRef) (string, error)
}

// ResolvePermalink はパーマリンクを取得し、失敗した場合はアーカイブURLを返す
func ResolvePermalink(ctx context.Context, getter PermalinkGetter, ref domain.MessageRef, workspace string, logger *zap.Logger) string {
	if getter != nil {
		link, err := getter.Permalink(ctx, ref)
		if err == nil && link != "" {
			return link
		}
		if logger != nil && err != nil {
			logger.Warn("パーマリンクを取得できないためアーカイブURLを使用します",
				zap.String("message", ref.String()), zap.Error(err))
		}
	}
	return ref.ArchiveURL(workspace)
}

// BuildBlocks はレポートをBlock Kitのブロックに変換する
func BuildBlocks(report *domain.Report, permalink string, chunkSize int) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, HeaderText, false, false)),
		mrkdwnSection(fmt.Sprintf("*元のメッセージ*: %s", permalink)),
		slack.NewDividerBlock(),
	}

	if !report.HasReactions() {
		blocks = append(blocks, mrkdwnSection(NoReactionsText))
	}
	for _, ec := range report.PerEmoji {
		for _, text := range splitText(EmojiLine(ec), MaxSectionText) {
			blocks = append(blocks, mrkdwnSection(text))
		}
	}

	blocks = append(blocks, slack.NewContextBlock("summary",
		slack.NewTextBlockObject(slack.MarkdownType, Summary(report), false, false)))

	if report.Options.IncludeNonReacted {
		blocks = append(blocks, slack.NewDividerBlock())
		chunks := service.Chunk(report.NonReactedUsers, chunkSize)
		if len(chunks) == 0 {
			blocks = append(blocks, mrkdwnSection("*未リアクション*: なし"))
		}
		for i, chunk := range chunks {
			text := fmt.Sprintf("*未リアクション* (%d/%d)\n%s", i+1, len(chunks), mentions(chunk))
			for _, part := range splitText(text, MaxSectionText) {
				blocks = append(blocks, mrkdwnSection(part))
			}
		}
	}

	if report.Degraded {
		blocks = append(blocks, slack.NewContextBlock("degraded",
			slack.NewTextBlockObject(slack.MarkdownType, DegradedText, false, false)))
	}
	return blocks
}

// SplitBlocks はブロックを1メッセージあたり size 個以下に分ける
func SplitBlocks(blocks []slack.Block, size int) [][]slack.Block {
	if len(blocks) == 0 {
		return nil
	}
	if size <= 0 {
		size = MaxBlocks
	}
	var out [][]slack.Block
	for start := 0; start < len(blocks); start += size {
		end := min(start+size, len(blocks))
		out = append(out, blocks[start:end])
	}
	return out
}

// EmojiLine は絵文字1行分のテキストを作る
// 例: ":+1: (人数: 2) : <@U1>, <@U2>"
func EmojiLine(ec domain.EmojiCount) string {
	line := fmt.Sprintf(":%s: (人数: %d) :", ec.Emoji, ec.Count)
	if len(ec.Users) > 0 {
		line += " " + mentions(ec.Users)
	}
	return line
}

// Summary はリアクション済み人数と対象人数の要約を返す
func Summary(report *domain.Report) string {
	s := fmt.Sprintf("リアクション済み: %d人 / 対象メンバー: %d人", len(report.ReactedUsers), report.EligibleCount)
	if report.Options.IncludeNonReacted {
		s += fmt.Sprintf(" / 未リアクション: %d人", len(report.NonReactedUsers))
	}
	return s
}

// FallbackText は通知に表示されるテキストを返す
func FallbackText(report *domain.Report) string {
	if !report.HasReactions() {
		return NoReactionsText
	}
	return FallbackMessage
}

func mrkdwnSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func mentions(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "<@" + id + ">"
	}
	return strings.Join(parts, ", ")
}

// splitText は limit バイト以下になるよう ", " の区切りでテキストを分割する
// 区切りが無い場合はルーン境界で切る
func splitText(text string, limit int) []string {
	const sep = ", "
	var out []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:min(limit+len(sep), len(text))], sep)
		next := cut + len(sep)
		if cut <= 0 {
			cut = runeBoundary(text, limit)
			next = cut
		}
		out = append(out, text[:cut])
		text = text[next:]
	}
	return append(out, text)
}

func runeBoundary(s string, n int) int {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return n
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
