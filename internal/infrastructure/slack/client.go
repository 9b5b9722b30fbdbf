// Package slack は domain のリポジトリインターフェースを Slack Web API で実装する
package slack

import (
	"errors"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// NewClient はボットトークンとアプリトークンからSlackクライアントを作成する
// appToken はSocket Modeを使わない場合は空でよい
func NewClient(botToken, appToken string, debug bool, opts ...slack.Option) *slack.Client {
	options := make([]slack.Option, 0, len(opts)+2)
	if debug {
		options = append(options, slack.OptionDebug(true))
	}
	if appToken != "" {
		options = append(options, slack.OptionAppLevelToken(appToken))
	}
	options = append(options, opts...)
	return slack.New(botToken, options...)
}

// RetryAfter はレート制限エラーから再試行までの待ち時間を取り出す
func RetryAfter(err error) (time.Duration, bool) {
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// ErrorFields はSlack APIのエラーをログに出すためのフィールドを返す
func ErrorFields(err error) []zap.Field {
	if d, ok := RetryAfter(err); ok {
		return []zap.Field{zap.Bool("rate_limited", true), zap.Duration("retry_after", d)}
	}
	return nil
}
