package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/slack-go/slack"
)

// ChannelRepository はSlack APIを使用してチャンネル情報とメンバーを取得するリポジトリ
type ChannelRepository struct {
	client    *slack.Client
	pageLimit int
}

// NewChannelRepository は新しいChannelRepositoryを作成する
func NewChannelRepository(client *slack.Client, pageLimit int) *ChannelRepository {
	return &ChannelRepository{
		client:    client,
		pageLimit: pageLimit,
	}
}

// FindByName はチャンネル名からチャンネルを検索する
// 先頭の # は無視する
func (r *ChannelRepository) FindByName(ctx context.Context, name string) (*domain.Channel, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "#")
	if name == "" {
		return nil, &domain.MalformedInputError{Field: "channel", Reason: "チャンネル名が指定されていません"}
	}

	cursor := ""
	for {
		conversations, nextCursor, err := r.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			ExcludeArchived: true,
			Limit:           r.pageLimit,
			Cursor:          cursor,
			Types:           []string{"public_channel", "private_channel"},
		})
		if err != nil {
			return nil, fmt.Errorf("チャンネル一覧取得エラー: %w", err)
		}

		// 指定されたチャンネル名に一致するチャンネルを検索
		for _, conversation := range conversations {
			if conversation.Name == name {
				return &domain.Channel{
					ID:   conversation.ID,
					Name: conversation.Name,
				}, nil
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return nil, fmt.Errorf("チャンネル '%s' が見つかりません", name)
}

// ListMembersPage はチャンネルメンバーのIDを1ページ分取得する
func (r *ChannelRepository) ListMembersPage(ctx context.Context, channelID, cursor string) (domain.Page[string], error) {
	members, nextCursor, err := r.client.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
		ChannelID: channelID,
		Cursor:    cursor,
		Limit:     r.pageLimit,
	})
	if err != nil {
		return domain.Page[string]{}, fmt.Errorf("conversations.members エラー (%s): %w", channelID, err)
	}
	return domain.Page[string]{Items: members, NextCursor: nextCursor}, nil
}
