package domain

import "context"

// Page はカーソル形式のAPIの1ページ分の結果
// NextCursor が空の場合は最後のページ
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// PageFunc はカーソルを受け取って1ページ分を取得する関数
// 最初のページは空のカーソルで呼び出される
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// ChannelRepository はチャンネル情報を取得するリポジトリインターフェース
type ChannelRepository interface {
	FindByName(ctx context.Context, name string) (*Channel, error)
}

// MessageRepository はメッセージとリアクションを取得するリポジトリインターフェース
type MessageRepository interface {
	GetReactions(ctx context.Context, ref MessageRef) (*Message, error)
}

// MemberRepository はチャンネルのメンバーを取得するリポジトリインターフェース
type MemberRepository interface {
	ListMembersPage(ctx context.Context, channelID, cursor string) (Page[string], error)
}

// UserRepository はワークスペースのユーザーを取得するリポジトリインターフェース
type UserRepository interface {
	// UserPages は users.list を先頭から辿る PageFunc を返す
	UserPages() PageFunc[User]
}
