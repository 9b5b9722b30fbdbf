package slack

import (
	"context"
	"fmt"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/slack-go/slack"
)

// continueCursor は users.list の続きがあることを表す
// slack-go はカーソルを公開しないため、ページング状態はクロージャ側で保持する
const continueCursor = "continue"

// UserRepository はSlack APIを使用してユーザー情報を取得するリポジトリ
type UserRepository struct {
	client    *slack.Client
	pageLimit int
}

// NewUserRepository は新しいUserRepositoryを作成する
func NewUserRepository(client *slack.Client, pageLimit int) *UserRepository {
	return &UserRepository{
		client:    client,
		pageLimit: pageLimit,
	}
}

// UserPages は users.list を先頭から辿る PageFunc を返す
// 空のカーソルで呼ぶと最初のページからやり直す
func (r *UserRepository) UserPages() domain.PageFunc[domain.User] {
	var p slack.UserPagination
	return func(ctx context.Context, cursor string) (domain.Page[domain.User], error) {
		if cursor == "" {
			p = r.client.GetUsersPaginated(slack.GetUsersOptionLimit(r.pageLimit))
		}

		next, err := p.Next(ctx)
		if p.Done(err) {
			return domain.Page[domain.User]{}, nil
		}
		if err != nil {
			return domain.Page[domain.User]{}, fmt.Errorf("users.list エラー: %w", p.Failure(err))
		}
		p = next

		users := make([]domain.User, 0, len(next.Users))
		for i := range next.Users {
			users = append(users, convertToDomainUser(&next.Users[i]))
		}
		return domain.Page[domain.User]{Items: users, NextCursor: continueCursor}, nil
	}
}

// convertToDomainUser はSlackのUserをドメインモデルに変換する
func convertToDomainUser(u *slack.User) domain.User {
	return domain.User{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.Profile.DisplayName,
		RealName:    u.RealName,
		IsBot:       u.IsBot,
		IsAppUser:   u.IsAppUser,
		IsDeleted:   u.Deleted,
	}
}
