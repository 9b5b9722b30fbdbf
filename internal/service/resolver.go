package service

import "github.com/april-knights-dev/slack-reaction-indexer/internal/domain"

// ResolveEligible はチャンネルメンバーのうち集計対象となるユーザーの集合を返す
// ワークスペースのユーザー一覧に存在しないメンバーは対象外
// 何度実行しても同じ結果になる
func ResolveEligible(members domain.UserSet, users map[string]domain.User) domain.UserSet {
	eligible := make(domain.UserSet, len(members))
	for id := range members {
		user, ok := users[id]
		if !ok || !user.IsEligible() {
			continue
		}
		eligible.Add(id)
	}
	return eligible
}
