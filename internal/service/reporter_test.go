package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/cache"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/metrics"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mockMessageRepository はMessageRepositoryのモック実装
type mockMessageRepository struct {
	reactions []domain.Reaction
	err       error
	calls     int
}

func (m *mockMessageRepository) GetReactions(ctx context.Context, ref domain.MessageRef) (*domain.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Message{Ref: ref, Reactions: m.reactions}, nil
}

// mockMemberRepository はページごとにメンバーを返すモック実装
type mockMemberRepository struct {
	pages  [][]string
	failAt int // 1始まり、0なら失敗しない
	calls  int
}

func (m *mockMemberRepository) ListMembersPage(ctx context.Context, channelID, cursor string) (domain.Page[string], error) {
	m.calls++
	idx := pageIndex(cursor)
	if m.failAt == idx+1 {
		return domain.Page[string]{}, errors.New("conversations.members failed")
	}
	page := domain.Page[string]{Items: m.pages[idx]}
	if idx < len(m.pages)-1 {
		page.NextCursor = nextCursor(idx)
	}
	return page, nil
}

// mockUserRepository はページごとにユーザーを返すモック実装
type mockUserRepository struct {
	pages  [][]domain.User
	failAt int
	calls  int
}

func (m *mockUserRepository) UserPages() domain.PageFunc[domain.User] {
	return func(ctx context.Context, cursor string) (domain.Page[domain.User], error) {
		m.calls++
		idx := pageIndex(cursor)
		if m.failAt == idx+1 {
			return domain.Page[domain.User]{}, errors.New("users.list failed")
		}
		page := domain.Page[domain.User]{Items: m.pages[idx]}
		if idx < len(m.pages)-1 {
			page.NextCursor = nextCursor(idx)
		}
		return page, nil
	}
}

func pageIndex(cursor string) int {
	if cursor == "" {
		return 0
	}
	return int(cursor[0] - '0')
}

func nextCursor(idx int) string {
	return string(rune('0' + idx + 1))
}

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *recordingObserver) ObserveReport(result string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

var validRef = domain.MessageRef{ChannelID: "C1", Timestamp: "1700000000.000100"}

func defaultUsers() [][]domain.User {
	return [][]domain.User{
		{{ID: "A"}, {ID: "B"}, {ID: "BOT", IsBot: true}},
		{{ID: "C"}, {ID: "D"}, {ID: domain.SlackbotID}},
	}
}

func TestReporter_ComputeReport(t *testing.T) {
	msgRepo := &mockMessageRepository{reactions: []domain.Reaction{
		{Name: "tada", Users: []string{"B"}},
		{Name: "+1", Users: []string{"A", "B", "C", "BOT"}},
	}}
	memberRepo := &mockMemberRepository{pages: [][]string{{"A", "B"}, {"C", "D", "BOT", domain.SlackbotID}}}
	userRepo := &mockUserRepository{pages: defaultUsers()}
	obs := &recordingObserver{}

	reporter := NewReporter(msgRepo, memberRepo, userRepo,
		WithLogger(zaptest.NewLogger(t)),
		WithReportObserver(obs),
	)

	report, err := reporter.ComputeReport(context.Background(), validRef, domain.ReportOptions{IncludeNonReacted: true})
	require.NoError(t, err)

	require.Len(t, report.PerEmoji, 2)
	assert.Equal(t, domain.EmojiCount{Emoji: "+1", Count: 3, Users: []string{"A", "B", "C"}}, report.PerEmoji[0])
	assert.Equal(t, domain.EmojiCount{Emoji: "tada", Count: 1, Users: []string{"B"}}, report.PerEmoji[1])
	assert.Equal(t, []string{"A", "B", "C"}, report.ReactedUsers)
	assert.Equal(t, []string{"D"}, report.NonReactedUsers)
	assert.Equal(t, 4, report.EligibleCount)
	assert.Len(t, report.Users, 4)
	assert.NotContains(t, report.Users, "BOT")
	assert.False(t, report.Degraded)
	assert.Equal(t, validRef, report.Message)
	assert.Equal(t, []string{metrics.ResultOK}, obs.results)
}

func TestReporter_未リアクションを含めない(t *testing.T) {
	msgRepo := &mockMessageRepository{reactions: []domain.Reaction{{Name: "+1", Users: []string{"A"}}}}
	memberRepo := &mockMemberRepository{pages: [][]string{{"A", "B"}}}
	userRepo := &mockUserRepository{pages: defaultUsers()}

	report, err := NewReporter(msgRepo, memberRepo, userRepo).
		ComputeReport(context.Background(), validRef, domain.ReportOptions{})
	require.NoError(t, err)
	assert.Nil(t, report.NonReactedUsers)
	assert.Equal(t, []string{"A"}, report.ReactedUsers)
}

func TestReporter_不正な入力(t *testing.T) {
	tests := []struct {
		name string
		ref  domain.MessageRef
	}{
		{name: "チャンネルなし", ref: domain.MessageRef{Timestamp: "1700000000.000100"}},
		{name: "タイムスタンプなし", ref: domain.MessageRef{ChannelID: "C1"}},
		{name: "タイムスタンプ不正", ref: domain.MessageRef{ChannelID: "C1", Timestamp: "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgRepo := &mockMessageRepository{}
			obs := &recordingObserver{}
			reporter := NewReporter(msgRepo, &mockMemberRepository{}, &mockUserRepository{},
				WithReportObserver(obs))

			report, err := reporter.ComputeReport(context.Background(), tt.ref, domain.ReportOptions{})
			assert.Nil(t, report)
			assert.ErrorIs(t, err, domain.ErrMalformedInput)
			assert.Equal(t, 0, msgRepo.calls, "不正な入力では取得処理を行わない")
			assert.Equal(t, []string{metrics.ResultMalformed}, obs.results)
		})
	}
}

func TestReporter_リアクション取得エラー(t *testing.T) {
	upstream := errors.New("channel_not_found")
	msgRepo := &mockMessageRepository{err: upstream}
	memberRepo := &mockMemberRepository{pages: [][]string{{"A"}}}
	userRepo := &mockUserRepository{pages: defaultUsers()}
	obs := &recordingObserver{}

	report, err := NewReporter(msgRepo, memberRepo, userRepo, WithReportObserver(obs)).
		ComputeReport(context.Background(), validRef, domain.ReportOptions{})

	assert.Nil(t, report)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 0, memberRepo.calls)
	assert.Equal(t, []string{metrics.ResultError}, obs.results)
}

func TestReporter_メンバー取得が途中で失敗(t *testing.T) {
	msgRepo := &mockMessageRepository{reactions: []domain.Reaction{{Name: "+1", Users: []string{"A", "C"}}}}
	memberRepo := &mockMemberRepository{pages: [][]string{{"A", "B"}, {"C", "D"}}, failAt: 2}
	userRepo := &mockUserRepository{pages: defaultUsers()}
	obs := &recordingObserver{}
	memberCache := cache.NewTTL[string, domain.UserSet](time.Minute)

	report, err := NewReporter(msgRepo, memberRepo, userRepo,
		WithReportObserver(obs),
		WithMemberCache(memberCache),
	).ComputeReport(context.Background(), validRef, domain.ReportOptions{IncludeNonReacted: true})

	require.NoError(t, err, "メンバー取得の失敗はレポート全体の失敗にしない")
	assert.True(t, report.Degraded)
	assert.Equal(t, 2, report.EligibleCount)
	assert.Equal(t, []string{"A"}, report.ReactedUsers)
	assert.Equal(t, []string{"B"}, report.NonReactedUsers)
	assert.Equal(t, []string{metrics.ResultDegraded}, obs.results)
	assert.Equal(t, 0, memberCache.Len(), "途中までの結果はキャッシュしない")
}

func TestReporter_ユーザー一覧のキャッシュ(t *testing.T) {
	msgRepo := &mockMessageRepository{reactions: []domain.Reaction{{Name: "+1", Users: []string{"A"}}}}
	memberRepo := &mockMemberRepository{pages: [][]string{{"A", "B"}}}
	userRepo := &mockUserRepository{pages: defaultUsers()}

	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	userCache := cache.NewTTL[string, map[string]domain.User](10*time.Minute, cache.WithClock(clock))

	reporter := NewReporter(msgRepo, memberRepo, userRepo, WithUserCache(userCache))

	_, err := reporter.ComputeReport(context.Background(), validRef, domain.ReportOptions{})
	require.NoError(t, err)
	_, err = reporter.ComputeReport(context.Background(), validRef, domain.ReportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, userRepo.calls, "2ページ分を1回だけ取得する")

	now = now.Add(10 * time.Minute)
	_, err = reporter.ComputeReport(context.Background(), validRef, domain.ReportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, userRepo.calls, "期限切れ後は再取得する")
}

func TestReporter_ユーザー取得失敗はキャッシュしない(t *testing.T) {
	msgRepo := &mockMessageRepository{}
	memberRepo := &mockMemberRepository{pages: [][]string{{"A", "C"}}}
	userRepo := &mockUserRepository{pages: defaultUsers(), failAt: 2}
	userCache := cache.NewTTL[string, map[string]domain.User](time.Minute)

	report, err := NewReporter(msgRepo, memberRepo, userRepo,
		WithUserCache(userCache),
		WithPager(pagination.NewPager(zaptest.NewLogger(t))),
	).ComputeReport(context.Background(), validRef, domain.ReportOptions{IncludeNonReacted: true})

	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Empty(t, report.PerEmoji)
	assert.Equal(t, []string{"A"}, report.NonReactedUsers, "2ページ目のCは取得できていない")
	_, ok := userCache.Get(AllUsersKey)
	assert.False(t, ok)
}

func TestReporter_集計対象0人(t *testing.T) {
	msgRepo := &mockMessageRepository{reactions: []domain.Reaction{{Name: "+1", Users: []string{"BOT"}}}}
	memberRepo := &mockMemberRepository{pages: [][]string{{"BOT"}}}
	userRepo := &mockUserRepository{pages: defaultUsers()}

	report, err := NewReporter(msgRepo, memberRepo, userRepo).
		ComputeReport(context.Background(), validRef, domain.ReportOptions{IncludeNonReacted: true})

	require.NoError(t, err)
	assert.Equal(t, 0, report.EligibleCount)
	assert.Empty(t, report.ReactedUsers)
	assert.Empty(t, report.NonReactedUsers)
	require.Len(t, report.PerEmoji, 1)
	assert.Equal(t, 0, report.PerEmoji[0].Count)
}
