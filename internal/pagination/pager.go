// Package pagination はカーソル形式のAPIを最後のページまで辿る処理を提供する
//
// 途中のページで取得に失敗した場合はそこで打ち切り、それまでに取得できた分を返す。
package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxPages はカーソルが空にならない場合の安全装置
const DefaultMaxPages = 1000

// ErrTooManyPages はページ数の上限に達したことを表す
var ErrTooManyPages = errors.New("ページ数が上限に達しました")

// TruncatedError はページングが途中で打ち切られたことを表す
// それまでに取得できた結果は呼び出し元に返されている
type TruncatedError struct {
	Resource string
	Page     int // 失敗したページ（1始まり）
	Fetched  int // 打ち切りまでに取得できた件数
	Err      error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s のページング中断 (ページ %d, 取得済み %d件): %v", e.Resource, e.Page, e.Fetched, e.Err)
}

func (e *TruncatedError) Unwrap() error {
	return e.Err
}

// TruncationObserver は打ち切りの発生を受け取る
type TruncationObserver interface {
	PaginationTruncated(resource string)
}

// Pager はページングの共通設定を保持する
type Pager struct {
	logger      *zap.Logger
	limiter     *rate.Limiter
	maxPages    int
	observer    TruncationObserver
	errorFields func(error) []zap.Field
}

// Option はPagerの設定を変更する
type Option func(*Pager)

// WithLimiter は各ページの取得前に待機するレートリミッタを設定する
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Pager) {
		p.limiter = l
	}
}

// WithMaxPages はページ数の上限を設定する
func WithMaxPages(n int) Option {
	return func(p *Pager) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// WithObserver は打ち切りの通知先を設定する
func WithObserver(obs TruncationObserver) Option {
	return func(p *Pager) {
		p.observer = obs
	}
}

// WithErrorFields は取得エラーをログに出す際の追加フィールドを設定する
func WithErrorFields(fn func(error) []zap.Field) Option {
	return func(p *Pager) {
		p.errorFields = fn
	}
}

// NewPager は新しいPagerを作成する
func NewPager(logger *zap.Logger, opts ...Option) *Pager {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pager{
		logger:   logger,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collect は fetch を空のカーソルから呼び出し、NextCursor が空になるまで結果を連結する
// 失敗した場合はログに記録して打ち切り、取得済みの結果と *TruncatedError を返す
func Collect[T any](ctx context.Context, p *Pager, resource string, fetch domain.PageFunc[T]) ([]T, error) {
	var (
		items  []T
		cursor string
	)
	for page := 1; ; page++ {
		if page > p.maxPages {
			return items, p.truncate(resource, page, len(items), ErrTooManyPages)
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return items, p.truncate(resource, page, len(items), err)
			}
		}

		result, err := fetch(ctx, cursor)
		if err != nil {
			return items, p.truncate(resource, page, len(items), err)
		}
		items = append(items, result.Items...)

		p.logger.Debug("ページ取得",
			zap.String("resource", resource),
			zap.Int("page", page),
			zap.Int("items", len(result.Items)),
			zap.Bool("has_more", result.NextCursor != ""),
		)

		if result.NextCursor == "" {
			return items, nil
		}
		cursor = result.NextCursor
	}
}

// CollectSet はIDのページを辿って重複のない集合を作成する
func CollectSet(ctx context.Context, p *Pager, resource string, fetch domain.PageFunc[string]) (domain.UserSet, error) {
	ids, err := Collect(ctx, p, resource, fetch)
	return domain.NewUserSet(ids...), err
}

// CollectMap はページを辿って key で索引付けしたマップを作成する
// 同じキーが複数のページに現れた場合は後のものが残る
func CollectMap[T any](ctx context.Context, p *Pager, resource string, fetch domain.PageFunc[T], key func(T) string) (map[string]T, error) {
	items, err := Collect(ctx, p, resource, fetch)
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[key(item)] = item
	}
	return out, err
}

func (p *Pager) truncate(resource string, page, fetched int, err error) error {
	fields := []zap.Field{
		zap.String("resource", resource),
		zap.Int("page", page),
		zap.Int("fetched", fetched),
		zap.Error(err),
	}
	if p.errorFields != nil {
		fields = append(fields, p.errorFields(err)...)
	}
	p.logger.Warn("ページングを打ち切り、取得済みの結果で続行します", fields...)

	if p.observer != nil {
		p.observer.PaginationTruncated(resource)
	}
	return &TruncatedError{Resource: resource, Page: page, Fetched: fetched, Err: err}
}
