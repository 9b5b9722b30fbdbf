package service

import (
	"sort"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
)

// Aggregation はリアクションの集計結果
type Aggregation struct {
	PerEmoji        []domain.EmojiCount
	ReactedUsers    domain.UserSet
	NonReactedUsers domain.UserSet // オプション指定時のみ
}

// Aggregate はリアクション一覧を集計対象ユーザーで絞り込んで集計する
// 集計対象外のユーザーのリアクションは件数にもユーザー一覧にも含めない
// 絵文字は件数の降順、同数の場合は元の順序を保つ
func Aggregate(reactions []domain.Reaction, eligible domain.UserSet, opts domain.ReportOptions) Aggregation {
	perEmoji := make([]domain.EmojiCount, 0, len(reactions))
	reacted := make(domain.UserSet)

	for _, reaction := range reactions {
		// 同じ絵文字内の重複ユーザーは1人として数える
		seen := make(domain.UserSet, len(reaction.Users))
		users := make([]string, 0, len(reaction.Users))
		for _, id := range reaction.Users {
			if !eligible.Contains(id) || seen.Contains(id) {
				continue
			}
			seen.Add(id)
			users = append(users, id)
			reacted.Add(id)
		}
		perEmoji = append(perEmoji, domain.EmojiCount{
			Emoji: reaction.Name,
			Count: len(users),
			Users: users,
		})
	}

	sort.SliceStable(perEmoji, func(i, j int) bool {
		return perEmoji[i].Count > perEmoji[j].Count
	})

	result := Aggregation{
		PerEmoji:     perEmoji,
		ReactedUsers: reacted,
	}
	if opts.IncludeNonReacted {
		result.NonReactedUsers = eligible.Difference(reacted)
	}
	return result
}

// Chunk はIDの一覧を size 件ずつに分割する
// size が0以下の場合は分割しない
func Chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]string{ids}
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
