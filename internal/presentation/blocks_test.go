package presentation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		Message: domain.MessageRef{ChannelID: "C123", Timestamp: "1504840306.000009"},
		Options: domain.ReportOptions{IncludeNonReacted: true},
		PerEmoji: []domain.EmojiCount{
			{Emoji: "+1", Count: 2, Users: []string{"U1", "U2"}},
			{Emoji: "eyes", Count: 0},
		},
		ReactedUsers:    []string{"U1", "U2"},
		NonReactedUsers: []string{"U3", "U4", "U5"},
		EligibleCount:   5,
		Users: map[string]domain.User{
			"U1": {ID: "U1", DisplayName: "たろう"},
			"U2": {ID: "U2", Name: "hanako"},
		},
	}
}

// sectionTexts はsectionブロックのテキストを順に取り出す
func sectionTexts(blocks []slack.Block) []string {
	var out []string
	for _, b := range blocks {
		if s, ok := b.(*slack.SectionBlock); ok {
			out = append(out, s.Text.Text)
		}
	}
	return out
}

func contextTexts(blocks []slack.Block) []string {
	var out []string
	for _, b := range blocks {
		if c, ok := b.(*slack.ContextBlock); ok {
			for _, e := range c.ContextElements.Elements {
				if t, ok := e.(*slack.TextBlockObject); ok {
					out = append(out, t.Text)
				}
			}
		}
	}
	return out
}

func TestEmojiLine(t *testing.T) {
	tests := []struct {
		name     string
		ec       domain.EmojiCount
		expected string
	}{
		{
			name:     "複数ユーザー",
			ec:       domain.EmojiCount{Emoji: "+1", Count: 2, Users: []string{"U1", "U2"}},
			expected: ":+1: (人数: 2) : <@U1>, <@U2>",
		},
		{
			name:     "対象ユーザーなし",
			ec:       domain.EmojiCount{Emoji: "robot_face", Count: 0},
			expected: ":robot_face: (人数: 0) :",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EmojiLine(tt.ec))
		})
	}
}

func TestBuildBlocks(t *testing.T) {
	blocks := BuildBlocks(sampleReport(), "https://example.slack.com/archives/C123/p1", 2)

	header, ok := blocks[0].(*slack.HeaderBlock)
	require.True(t, ok, "先頭はヘッダーブロック")
	assert.Equal(t, HeaderText, header.Text.Text)

	assert.Equal(t, []string{
		"*元のメッセージ*: https://example.slack.com/archives/C123/p1",
		":+1: (人数: 2) : <@U1>, <@U2>",
		":eyes: (人数: 0) :",
		"*未リアクション* (1/2)\n<@U3>, <@U4>",
		"*未リアクション* (2/2)\n<@U5>",
	}, sectionTexts(blocks))
	assert.Equal(t, []string{
		"リアクション済み: 2人 / 対象メンバー: 5人 / 未リアクション: 3人",
	}, contextTexts(blocks))
}

func TestBuildBlocks_WithoutNonReacted(t *testing.T) {
	report := sampleReport()
	report.Options.IncludeNonReacted = false
	report.NonReactedUsers = nil
	report.Degraded = true

	blocks := BuildBlocks(report, "link", 30)

	for _, text := range sectionTexts(blocks) {
		assert.NotContains(t, text, "未リアクション")
	}
	assert.Equal(t, []string{
		"リアクション済み: 2人 / 対象メンバー: 5人",
		DegradedText,
	}, contextTexts(blocks))
}

func TestBuildBlocks_NoNonReactedMembers(t *testing.T) {
	report := sampleReport()
	report.NonReactedUsers = nil

	texts := sectionTexts(BuildBlocks(report, "link", 30))
	assert.Equal(t, "*未リアクション*: なし", texts[len(texts)-1])
}

func TestBuildBlocks_LongSectionIsSplit(t *testing.T) {
	users := make([]string, 400)
	for i := range users {
		users[i] = "U0123456789"
	}
	report := &domain.Report{
		PerEmoji: []domain.EmojiCount{{Emoji: "tada", Count: len(users), Users: users}},
	}

	texts := sectionTexts(BuildBlocks(report, "link", 30))
	require.Greater(t, len(texts), 2)

	var mentions int
	for _, text := range texts[1:] {
		assert.LessOrEqual(t, len(text), MaxSectionText)
		assert.False(t, strings.HasPrefix(text, ", "))
		mentions += strings.Count(text, "<@U0123456789>")
	}
	assert.Equal(t, len(users), mentions)
}

func TestBuildBlocks_NoReactionsWithNonReacted(t *testing.T) {
	report := &domain.Report{
		Options:         domain.ReportOptions{IncludeNonReacted: true},
		NonReactedUsers: []string{"UA", "UB"},
		EligibleCount:   2,
	}

	assert.Equal(t, []string{
		"*元のメッセージ*: link",
		NoReactionsText,
		"*未リアクション* (1/1)\n<@UA>, <@UB>",
	}, sectionTexts(BuildBlocks(report, "link", 30)))
	assert.Equal(t, NoReactionsText, FallbackText(report))
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected []string
	}{
		{name: "上限以内", text: "a, b", limit: 10, expected: []string{"a, b"}},
		{name: "区切りで分割", text: "aa, bb, cc", limit: 6, expected: []string{"aa, bb", "cc"}},
		{name: "区切りなし", text: "abcdef", limit: 4, expected: []string{"abcd", "ef"}},
		{name: "マルチバイト", text: "あいう", limit: 4, expected: []string{"あ", "い", "う"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitText(tt.text, tt.limit))
		})
	}
}

func TestSplitBlocks(t *testing.T) {
	blocks := make([]slack.Block, 7)
	for i := range blocks {
		blocks[i] = slack.NewDividerBlock()
	}

	parts := SplitBlocks(blocks, 3)
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 3)
	assert.Len(t, parts[2], 1)
	assert.Nil(t, SplitBlocks(nil, 3))
}

func TestFallbackText(t *testing.T) {
	assert.Equal(t, FallbackMessage, FallbackText(sampleReport()))
	assert.Equal(t, NoReactionsText, FallbackText(&domain.Report{}))
}

type stubPermalinkGetter struct {
	link string
	err  error
}

func (s stubPermalinkGetter) Permalink(context.Context, domain.MessageRef) (string, error) {
	return s.link, s.err
}

func TestResolvePermalink(t *testing.T) {
	ref := domain.MessageRef{ChannelID: "C123", Timestamp: "1504840306.000009"}
	archive := "https://aprilknights.slack.com/archives/C123/p1504840306000009"

	tests := []struct {
		name     string
		getter   PermalinkGetter
		expected string
	}{
		{name: "取得成功", getter: stubPermalinkGetter{link: "https://x/p1"}, expected: "https://x/p1"},
		{name: "取得失敗", getter: stubPermalinkGetter{err: errors.New("channel_not_found")}, expected: archive},
		{name: "取得手段なし", getter: nil, expected: archive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePermalink(context.Background(), tt.getter, ref, "aprilknights", zaptest.NewLogger(t))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport(), "link"))

	out := buf.String()
	assert.Contains(t, out, ":+1: (人数: 2) : たろう, hanako\n")
	assert.Contains(t, out, ":eyes: (人数: 0) : なし\n")
	assert.Contains(t, out, "未リアクション: U3, U4, U5\n")
	assert.NotContains(t, out, NoReactionsText)
}

func TestWriteText_NoReactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, &domain.Report{}, "link"))
	assert.Contains(t, buf.String(), NoReactionsText)
}
