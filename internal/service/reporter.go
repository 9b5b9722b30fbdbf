// Package service はリアクションレポートの作成処理を提供する
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/cache"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/metrics"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllUsersKey はワークスペースのユーザー一覧をキャッシュするキー
const AllUsersKey = "all_users"

const (
	resourceMembers = "conversations.members"
	resourceUsers   = "users.list"
)

// ReportObserver はレポート作成の結果を受け取る
type ReportObserver interface {
	ObserveReport(result string, elapsed time.Duration)
}

// Reporter はメッセージのリアクションレポートを作成するサービス
type Reporter struct {
	messageRepo domain.MessageRepository
	memberRepo  domain.MemberRepository
	userRepo    domain.UserRepository

	pager       *pagination.Pager
	userCache   *cache.TTL[string, map[string]domain.User]
	memberCache *cache.TTL[string, domain.UserSet]
	logger      *zap.Logger
	observer    ReportObserver
	now         func() time.Time
}

// ReporterOption はReporterの設定を変更する
type ReporterOption func(*Reporter)

// WithPager はページングの設定を差し替える
func WithPager(p *pagination.Pager) ReporterOption {
	return func(r *Reporter) {
		r.pager = p
	}
}

// WithUserCache はユーザー一覧のキャッシュを設定する
func WithUserCache(c *cache.TTL[string, map[string]domain.User]) ReporterOption {
	return func(r *Reporter) {
		r.userCache = c
	}
}

// WithMemberCache はチャンネルメンバーのキャッシュを設定する
func WithMemberCache(c *cache.TTL[string, domain.UserSet]) ReporterOption {
	return func(r *Reporter) {
		r.memberCache = c
	}
}

// WithLogger はロガーを設定する
func WithLogger(l *zap.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = l
	}
}

// WithReportObserver はレポート結果の通知先を設定する
func WithReportObserver(o ReportObserver) ReporterOption {
	return func(r *Reporter) {
		r.observer = o
	}
}

// WithClock は現在時刻の取得方法を差し替える（テスト用）
func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) {
		r.now = now
	}
}

// NewReporter は新しいReporterサービスを作成する
func NewReporter(messageRepo domain.MessageRepository, memberRepo domain.MemberRepository, userRepo domain.UserRepository, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pager == nil {
		r.pager = pagination.NewPager(r.logger)
	}
	return r
}

// ComputeReport はメッセージのリアクションを集計してレポートを作成する
//
// 入力が不正な場合は domain.ErrMalformedInput を、リアクションの取得に失敗した場合は
// そのエラーを返す。メンバーやユーザー一覧の取得失敗は取得できた分で集計を続け、
// Report.Degraded を立てる。
func (r *Reporter) ComputeReport(ctx context.Context, ref domain.MessageRef, opts domain.ReportOptions) (*domain.Report, error) {
	start := r.now()
	logger := r.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("channel", ref.ChannelID),
		zap.String("ts", ref.Timestamp),
	)

	report, err := r.compute(ctx, logger, ref, opts)
	elapsed := r.now().Sub(start)

	result := metrics.ResultOK
	switch {
	case errors.Is(err, domain.ErrMalformedInput):
		result = metrics.ResultMalformed
		logger.Info("入力が不正なためレポートを作成できません", zap.Error(err))
	case err != nil:
		result = metrics.ResultError
		logger.Error("レポート作成エラー", zap.Error(err))
	case report.Degraded:
		result = metrics.ResultDegraded
	}
	if r.observer != nil {
		r.observer.ObserveReport(result, elapsed)
	}
	if err == nil {
		logger.Info("レポート作成完了",
			zap.Int("emoji", len(report.PerEmoji)),
			zap.Int("reacted", len(report.ReactedUsers)),
			zap.Int("eligible", report.EligibleCount),
			zap.Bool("degraded", report.Degraded),
			zap.Duration("elapsed", elapsed),
		)
	}
	return report, err
}

func (r *Reporter) compute(ctx context.Context, logger *zap.Logger, ref domain.MessageRef, opts domain.ReportOptions) (*domain.Report, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	// リアクションの取得失敗はレポート自体が成り立たないためエラーとする
	msg, err := r.messageRepo.GetReactions(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("リアクション取得エラー: %w", err)
	}
	logger.Debug("リアクションを取得しました",
		zap.Bool("has_reactions", msg.HasReactions()),
		zap.Int("emoji", len(msg.Reactions)),
		zap.Int("reactions", msg.TotalReactionCount()),
	)

	members, membersErr := r.channelMembers(ctx, ref.ChannelID)
	users, usersErr := r.workspaceUsers(ctx)
	degraded := membersErr != nil || usersErr != nil
	if degraded {
		logger.Warn("一部のデータのみで集計します",
			zap.NamedError("members_error", membersErr),
			zap.NamedError("users_error", usersErr),
		)
	}

	eligible := ResolveEligible(members, users)
	agg := Aggregate(msg.Reactions, eligible, opts)

	report := &domain.Report{
		Message:       ref,
		Options:       opts,
		PerEmoji:      agg.PerEmoji,
		ReactedUsers:  agg.ReactedUsers.Sorted(),
		EligibleCount: eligible.Len(),
		Users:         make(map[string]domain.User, eligible.Len()),
		Degraded:      degraded,
		GeneratedAt:   r.now(),
	}
	for id := range eligible {
		report.Users[id] = users[id]
	}
	if opts.IncludeNonReacted {
		report.NonReactedUsers = agg.NonReactedUsers.Sorted()
	}
	return report, nil
}

// channelMembers はチャンネルメンバーを取得する
// 途中で失敗した場合は取得できた分とエラーを返し、キャッシュには保存しない
func (r *Reporter) channelMembers(ctx context.Context, channelID string) (domain.UserSet, error) {
	key := "members:" + channelID
	if r.memberCache != nil {
		if members, ok := r.memberCache.Get(key); ok {
			return members, nil
		}
	}

	fetch := func(ctx context.Context, cursor string) (domain.Page[string], error) {
		return r.memberRepo.ListMembersPage(ctx, channelID, cursor)
	}
	members, err := pagination.CollectSet(ctx, r.pager, resourceMembers, fetch)
	if err == nil && r.memberCache != nil {
		r.memberCache.Set(key, members)
	}
	return members, err
}

// workspaceUsers はワークスペースの全ユーザーを取得する
// 途中で失敗した場合は取得できた分とエラーを返し、キャッシュには保存しない
func (r *Reporter) workspaceUsers(ctx context.Context) (map[string]domain.User, error) {
	if r.userCache != nil {
		if users, ok := r.userCache.Get(AllUsersKey); ok {
			return users, nil
		}
	}

	users, err := pagination.CollectMap(ctx, r.pager, resourceUsers, r.userRepo.UserPages(),
		func(u domain.User) string { return u.ID })
	if err == nil && r.userCache != nil {
		r.userCache.Set(AllUsersKey, users)
	}
	return users, err
}
