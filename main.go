// slack-reaction-indexer はメッセージにリアクションしたチャンネルメンバーを集計するSlackボット
package main

import (
	"fmt"
	"os"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/config"
	"github.com/april-knights-dev/slack-reaction-indexer/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd はすべてのサブコマンドの親
var rootCmd = &cobra.Command{
	Use:   "slack-reaction-indexer",
	Short: "メッセージにリアクションしたユーザーを一覧化するSlackボット",
	Long: `メッセージにリアクションしたチャンネルメンバーを絵文字ごとに集計します。

  serve   Socket Modeでショートカットを受け付け、結果をDMで送る
  report  1件のメッセージを集計して標準出力に表示する`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		logger, err = logging.New(cfg.Logging.Level, false)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "設定ファイルのパス（存在しなければ無視）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "ログレベル (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "エラー:", err)
		os.Exit(1)
	}
}
