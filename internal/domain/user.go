package domain

// SlackbotID はSlackが予約しているシステムユーザー（Slackbot）のID
const SlackbotID = "USLACKBOT"

// User はSlackユーザーを表すドメインモデル
type User struct {
	ID          string
	Name        string
	DisplayName string
	RealName    string
	IsBot       bool
	IsAppUser   bool
	IsDeleted   bool
}

// GetDisplayName は表示名を優先順位に従って返す
// 優先順位: DisplayName > RealName > Name > ID
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.RealName != "" {
		return u.RealName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// IsEligible はレポートの集計対象となる人間のユーザーかどうかを返す
// ボット、アプリユーザー、削除済みユーザー、Slackbotは対象外
func (u *User) IsEligible() bool {
	if u.ID == "" || u.ID == SlackbotID {
		return false
	}
	return !u.IsBot && !u.IsAppUser && !u.IsDeleted
}
