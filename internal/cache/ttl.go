// Package cache は有効期限付きのインメモリキャッシュを提供する
package cache

import (
	"sync"
	"time"
)

// Observer はキャッシュの参照結果を受け取る
type Observer interface {
	CacheHit()
	CacheMiss()
}

// Option はTTLキャッシュの設定を変更する
type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
}

// WithClock は現在時刻の取得方法を差し替える（テスト用）
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithObserver はヒット/ミスの通知先を設定する
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL はエントリごとに保存時刻を持つキャッシュ
// 期限切れのエントリは読み出し時に削除され、存在しないものとして扱われる
// 複数のゴルーチンから同時に使用できる
type TTL[K comparable, V any] struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[K]entry[V]
	opts    options
}

// NewTTL は新しいTTLキャッシュを作成する
func NewTTL[K comparable, V any](ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		opts:    o,
	}
}

// Get は有効期限内の値を返す
// now - storedAt >= ttl のエントリは返さない
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.opts.now().Sub(e.storedAt) < c.ttl {
		c.observeHit()
		return e.value, true
	}

	if ok {
		c.mu.Lock()
		// 読み出し後に別のゴルーチンが Set していれば削除しない
		if cur, still := c.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	c.observeMiss()
	var zero V
	return zero, false
}

// Set は値と保存時刻を上書きする
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.opts.now()}
}

// Delete はエントリを削除する
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len は保持しているエントリ数を返す（期限切れを含む）
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTL[K, V]) observeHit() {
	if c.opts.observer != nil {
		c.opts.observer.CacheHit()
	}
}

func (c *TTL[K, V]) observeMiss() {
	if c.opts.observer != nil {
		c.opts.observer.CacheMiss()
	}
}
