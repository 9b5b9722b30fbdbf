package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
)

// WriteText はレポートを端末向けのテキストとして書き出す
// ユーザーはメンションではなく表示名で出力する
func WriteText(w io.Writer, report *domain.Report, permalink string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", HeaderText)
	fmt.Fprintf(&b, "元のメッセージ: %s\n", permalink)

	if !report.HasReactions() {
		fmt.Fprintf(&b, "%s\n", NoReactionsText)
	}
	for _, ec := range report.PerEmoji {
		fmt.Fprintf(&b, ":%s: (人数: %d) : %s\n", ec.Emoji, ec.Count, displayNames(report, ec.Users))
	}
	fmt.Fprintf(&b, "%s\n", Summary(report))

	if report.Options.IncludeNonReacted {
		fmt.Fprintf(&b, "未リアクション: %s\n", displayNames(report, report.NonReactedUsers))
	}
	if report.Degraded {
		fmt.Fprintf(&b, "警告: 一部のメンバー情報を取得できなかったため、結果が不完全な可能性があります\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func displayNames(report *domain.Report, ids []string) string {
	if len(ids) == 0 {
		return "なし"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = report.DisplayName(id)
	}
	return strings.Join(names, ", ")
}
