package bot

import (
	"fmt"
	"strings"

	"github.com/april-knights-dev/slack-reaction-indexer/internal/domain"
	"github.com/slack-go/slack"
)

const (
	optionsBlockID    = "report_options"
	optionsActionID   = "report_options_select"
	optionNonReacted  = "include_non_reacted"
	metadataSeparator = "|"
)

// buildReportModal はレポートの表示オプションを選ぶモーダルを作る
// 対象メッセージは private_metadata に "channel|ts" で持たせる
func buildReportModal(ref domain.MessageRef) slack.ModalViewRequest {
	options := slack.NewCheckboxGroupsBlockElement(optionsActionID,
		slack.NewOptionBlockObject(optionNonReacted,
			slack.NewTextBlockObject(slack.PlainTextType, "リアクションしていないメンバーも表示する", false, false),
			nil),
	)

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      CallbackReportModal,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "リアクション集計", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "作成", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "キャンセル", false, false),
		PrivateMetadata: ref.ChannelID + metadataSeparator + ref.Timestamp,
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType, "レポートはDMで届きます。", false, false),
					nil, nil),
				slack.NewInputBlock(optionsBlockID,
					slack.NewTextBlockObject(slack.PlainTextType, "オプション", false, false),
					nil,
					options,
				).WithOptional(true),
			},
		},
	}
}

// parseMetadata は private_metadata からメッセージの参照を取り出す
func parseMetadata(metadata string) (domain.MessageRef, error) {
	channel, ts, ok := strings.Cut(metadata, metadataSeparator)
	if !ok {
		return domain.MessageRef{}, fmt.Errorf("private_metadata の形式が不正です: %q", metadata)
	}
	ref := domain.MessageRef{ChannelID: channel, Timestamp: ts}
	if err := ref.Validate(); err != nil {
		return domain.MessageRef{}, err
	}
	return ref, nil
}

// includeNonReacted はモーダルで未リアクションの表示が選ばれたかを返す
func includeNonReacted(state *slack.ViewState) bool {
	if state == nil {
		return false
	}
	action, ok := state.Values[optionsBlockID][optionsActionID]
	if !ok {
		return false
	}
	for _, opt := range action.SelectedOptions {
		if opt.Value == optionNonReacted {
			return true
		}
	}
	return false
}
