package domain

import "time"

// ReportOptions はレポート作成時のオプション
type ReportOptions struct {
	IncludeNonReacted bool
}

// Report はメッセージのリアクション状況のレポート
type Report struct {
	Message         MessageRef
	Options         ReportOptions
	PerEmoji        []EmojiCount // Count の降順
	ReactedUsers    []string
	NonReactedUsers []string // Options.IncludeNonReacted の場合のみ
	EligibleCount   int
	// Users は集計対象ユーザーの詳細（表示名の解決用）
	Users map[string]User
	// Degraded はメンバーまたはユーザー一覧の取得が途中で失敗し、
	// 一部のデータのみで集計されたことを示す
	Degraded    bool
	GeneratedAt time.Time
}

// DisplayName はユーザーIDに対応する表示名を返す
// 詳細が無い場合はIDをそのまま返す
func (r *Report) DisplayName(id string) string {
	if u, ok := r.Users[id]; ok {
		return u.GetDisplayName()
	}
	return id
}

// HasReactions はレポートに絵文字の行があるかどうかを返す
func (r *Report) HasReactions() bool {
	return len(r.PerEmoji) > 0
}
