// Package config は環境変数・.env・YAMLファイルから設定を読み込む
//
// 優先順位は 環境変数 > YAMLファイル > デフォルト値。
// トークン類はファイルに書かず環境変数（または .env）で渡す想定。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定
type Config struct {
	Slack struct {
		BotToken      string  `yaml:"-"`
		AppToken      string  `yaml:"-"`
		SigningSecret string  `yaml:"-"`
		Workspace     string  `yaml:"workspace"`
		PageLimit     int     `yaml:"page_limit"`
		RateRPS       float64 `yaml:"rate_rps"`
		RateBurst     int     `yaml:"rate_burst"`
		Debug         bool    `yaml:"debug"`
	} `yaml:"slack"`
	Report struct {
		CacheTTL  time.Duration `yaml:"cache_ttl"`
		ChunkSize int           `yaml:"chunk_size"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"report"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default はデフォルト値を設定したConfigを返す
func Default() *Config {
	cfg := &Config{}
	cfg.Slack.Workspace = "aprilknights"
	cfg.Slack.PageLimit = 200
	cfg.Slack.RateRPS = 1
	cfg.Slack.RateBurst = 3
	cfg.Report.CacheTTL = 10 * time.Minute
	cfg.Report.ChunkSize = 30
	cfg.Report.Timeout = 60 * time.Second
	cfg.HTTP.Addr = ":8080"
	cfg.Logging.Level = "info"
	return cfg
}

// Load は .env を読み込んだ上で、YAMLファイルと環境変数から設定を作成する
// path が空、またはファイルが存在しない場合はデフォルト値と環境変数のみを使う
func Load(path string) (*Config, error) {
	// .env が無いのは正常（本番では環境変数で渡す）
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("設定ファイル読み込みエラー: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイル解析エラー (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv は環境変数の値で設定を上書きする
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("SLACK_BOT_TOKEN"); ok {
		c.Slack.BotToken = v
	}
	if v, ok := get("SLACK_APP_TOKEN"); ok {
		c.Slack.AppToken = v
	}
	if v, ok := get("SLACK_SIGNING_SECRET"); ok {
		c.Slack.SigningSecret = v
	}
	if v, ok := get("SLACK_WORKSPACE"); ok {
		c.Slack.Workspace = v
	}
	if v, ok := get("HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}

	var errs []error
	if v, ok := get("SLACK_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLACK_DEBUG: %w", err))
		} else {
			c.Slack.Debug = b
		}
	}
	if v, ok := get("SLACK_PAGE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLACK_PAGE_LIMIT: %w", err))
		} else {
			c.Slack.PageLimit = n
		}
	}
	if v, ok := get("SLACK_RATE_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLACK_RATE_RPS: %w", err))
		} else {
			c.Slack.RateRPS = f
		}
	}
	if v, ok := get("SLACK_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLACK_RATE_BURST: %w", err))
		} else {
			c.Slack.RateBurst = n
		}
	}
	if v, ok := get("REACTION_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REACTION_CACHE_TTL: %w", err))
		} else {
			c.Report.CacheTTL = d
		}
	}
	if v, ok := get("REACTION_CHUNK_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REACTION_CHUNK_SIZE: %w", err))
		} else {
			c.Report.ChunkSize = n
		}
	}
	if v, ok := get("REACTION_REPORT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REACTION_REPORT_TIMEOUT: %w", err))
		} else {
			c.Report.Timeout = d
		}
	}
	return errors.Join(errs...)
}

// Validate は設定値を検証する
// requireAppToken はSocket Modeで起動する場合に true を渡す
func (c *Config) Validate(requireAppToken bool) error {
	var errs []error
	if c.Slack.BotToken == "" {
		errs = append(errs, errors.New("環境変数 SLACK_BOT_TOKEN が設定されていません"))
	}
	if requireAppToken {
		switch {
		case c.Slack.AppToken == "":
			errs = append(errs, errors.New("環境変数 SLACK_APP_TOKEN が設定されていません"))
		case !strings.HasPrefix(c.Slack.AppToken, "xapp-"):
			errs = append(errs, errors.New("SLACK_APP_TOKEN は xapp- で始まる必要があります"))
		}
	}
	if c.Slack.PageLimit <= 0 || c.Slack.PageLimit > 1000 {
		errs = append(errs, fmt.Errorf("page_limit は 1〜1000 で指定してください: %d", c.Slack.PageLimit))
	}
	if c.Slack.RateRPS < 0 {
		errs = append(errs, fmt.Errorf("rate_rps が負の値です: %v", c.Slack.RateRPS))
	}
	if c.Report.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl が負の値です: %s", c.Report.CacheTTL))
	}
	if c.Report.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size は正の値で指定してください: %d", c.Report.ChunkSize))
	}
	if c.Report.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout は正の値で指定してください: %s", c.Report.Timeout))
	}
	return errors.Join(errs...)
}
