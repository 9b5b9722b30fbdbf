package domain

// Reaction はSlackのリアクション（絵文字）を表すドメインモデル
type Reaction struct {
	Name  string   // 絵文字名（例: "thumbsup", "smile"）
	Users []string // リアクションしたユーザーID（Slackが返した順）
}

// Count はリアクション数を返す
func (r Reaction) Count() int {
	return len(r.Users)
}

// EmojiCount は絵文字ごとの集計結果
// Users には集計対象のユーザーのみが含まれる
type EmojiCount struct {
	Emoji string
	Count int
	Users []string
}
