package slack

import (
	"context"
	"fmt"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/slack-go/slack"
)

// MessageRepository はSlack APIを使用してメッセージのリアクションを取得するリポジトリ
type MessageRepository struct {
	client *slack.Client
}

// NewMessageRepository は新しいMessageRepositoryを作成する
func NewMessageRepository(client *slack.Client) *MessageRepository {
	return &MessageRepository{
		client: client,
	}
}

// GetReactions はメッセージに付いたリアクションを取得する
// full=true を指定し、リアクションしたユーザーを省略なしで受け取る
func (r *MessageRepository) GetReactions(ctx context.Context, ref domain.MessageRef) (*domain.Message, error) {
	items, err := r.client.GetReactionsContext(ctx,
		slack.NewRefToMessage(ref.ChannelID, ref.Timestamp),
		slack.GetReactionsParameters{Full: true},
	)
	if err != nil {
		return nil, fmt.Errorf("reactions.get エラー (%s): %w", ref, err)
	}

	return &domain.Message{
		Ref:       ref,
		Reactions: convertToDomainReactions(items),
	}, nil
}

// Permalink はメッセージのパーマリンクを取得する
func (r *MessageRepository) Permalink(ctx context.Context, ref domain.MessageRef) (string, error) {
	link, err := r.client.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: ref.ChannelID,
		Ts:      ref.Timestamp,
	})
	if err != nil {
		return "", fmt.Errorf("chat.getPermalink エラー (%s): %w", ref, err)
	}
	return link, nil
}

// convertToDomainReactions はSlackのリアクションをドメインモデルに変換する
func convertToDomainReactions(items []slack.ItemReaction) []domain.Reaction {
	reactions := make([]domain.Reaction, 0, len(items))
	for _, item := range items {
		users := make([]string, len(item.Users))
		copy(users, item.Users)
		reactions = append(reactions, domain.Reaction{
			Name:  item.Name,
			Users: users,
		})
	}
	return reactions
}
