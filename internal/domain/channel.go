package domain

import "sort"

// Channel はSlackチャンネルを表すドメインモデル
type Channel struct {
	ID   string
	Name string
}

// UserSet はユーザーIDの集合
// ページ境界をまたいで同じIDが返されても重複しない
type UserSet map[string]struct{}

// NewUserSet は指定されたIDから集合を作成する
func NewUserSet(ids ...string) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add はIDを集合に追加する
func (s UserSet) Add(id string) {
	s[id] = struct{}{}
}

// Contains はIDが集合に含まれるかどうかを返す
func (s UserSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Len は集合の要素数を返す
func (s UserSet) Len() int {
	return len(s)
}

// Difference は s に含まれ other に含まれないIDの集合を返す
func (s UserSet) Difference(other UserSet) UserSet {
	out := make(UserSet)
	for id := range s {
		if !other.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Sorted はIDを昇順に並べたスライスを返す
func (s UserSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
