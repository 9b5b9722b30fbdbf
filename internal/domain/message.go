package domain

import (
	"fmt"
	"strings"
)

// MessageRef はチャンネルIDとタイムスタンプでメッセージを特定する値オブジェクト
type MessageRef struct {
	ChannelID string
	Timestamp string // "1504840306.000009" 形式
}

// Validate は参照が取得処理に使える形式かどうかを検証する
func (r MessageRef) Validate() error {
	if strings.TrimSpace(r.ChannelID) == "" {
		return &MalformedInputError{Field: "channel", Reason: "チャンネルIDが指定されていません"}
	}
	if strings.TrimSpace(r.Timestamp) == "" {
		return &MalformedInputError{Field: "ts", Reason: "メッセージのタイムスタンプが指定されていません"}
	}
	sec, micro, ok := strings.Cut(r.Timestamp, ".")
	if !ok || !isDigits(sec) || !isDigits(micro) {
		return &MalformedInputError{Field: "ts", Value: r.Timestamp, Reason: "タイムスタンプの形式が不正です"}
	}
	return nil
}

// ArchiveURL はワークスペースのアーカイブURLを組み立てる
// chat.getPermalink が使えない場合のフォールバック
func (r MessageRef) ArchiveURL(workspace string) string {
	return fmt.Sprintf("https://%s.slack.com/archives/%s/p%s",
		workspace, r.ChannelID, strings.ReplaceAll(r.Timestamp, ".", ""))
}

func (r MessageRef) String() string {
	return r.ChannelID + "/" + r.Timestamp
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Message はSlackメッセージを表すドメインモデル
type Message struct {
	Ref       MessageRef
	Reactions []Reaction
}

// HasReactions はメッセージにリアクションがあるかどうかを返す
func (m *Message) HasReactions() bool {
	return len(m.Reactions) > 0
}

// TotalReactionCount はメッセージの総リアクション数を返す
func (m *Message) TotalReactionCount() int {
	total := 0
	for _, r := range m.Reactions {
		total += r.Count()
	}
	return total
}
