// ABOUTME: UserSettings value object with defaults and PATCH-style edits
// ABOUTME: Each disclosable field carries its own PrivacyLevel

package directory

// Settings is embedded in every User.
type Settings struct {
	AppearOnPublicList  bool         `json:"appear_on_public_list"`
	ShowJoinDate        PrivacyLevel `json:"show_join_date"`
	ShowOnlineDate      PrivacyLevel `json:"show_online_date"`
	ShowInSearch        PrivacyLevel `json:"show_in_search"`
	ShowTimezone        PrivacyLevel `json:"show_timezone"`
	ShowProfile         PrivacyLevel `json:"show_profile"`
	AllowFriendRequests bool         `json:"allow_friend_requests"`
}

// DefaultSettings favors visibility except for the timezone and the public list.
func DefaultSettings() Settings {
	return Settings{
		AppearOnPublicList:  false,
		ShowJoinDate:        PrivacyPublic,
		ShowOnlineDate:      PrivacyPublic,
		ShowInSearch:        PrivacyPublic,
		ShowTimezone:        PrivacyPrivate,
		ShowProfile:         PrivacyPublic,
		AllowFriendRequests: true,
	}
}

// SettingsEdit is a partial update. Nil fields leave the current value alone.
type SettingsEdit struct {
	AppearOnPublicList  *bool         `json:"appear_on_public_list,omitempty"`
	ShowJoinDate        *PrivacyLevel `json:"show_join_date,omitempty"`
	ShowOnlineDate      *PrivacyLevel `json:"show_online_date,omitempty"`
	ShowInSearch        *PrivacyLevel `json:"show_in_search,omitempty"`
	ShowTimezone        *PrivacyLevel `json:"show_timezone,omitempty"`
	ShowProfile         *PrivacyLevel `json:"show_profile,omitempty"`
	AllowFriendRequests *bool         `json:"allow_friend_requests,omitempty"`
}

// Apply overwrites only the fields present in edit.
func (s *Settings) Apply(edit SettingsEdit) {
	if edit.AppearOnPublicList != nil {
		s.AppearOnPublicList = *edit.AppearOnPublicList
	}
	if edit.ShowJoinDate != nil {
		s.ShowJoinDate = *edit.ShowJoinDate
	}
	if edit.ShowOnlineDate != nil {
		s.ShowOnlineDate = *edit.ShowOnlineDate
	}
	if edit.ShowInSearch != nil {
		s.ShowInSearch = *edit.ShowInSearch
	}
	if edit.ShowTimezone != nil {
		s.ShowTimezone = *edit.ShowTimezone
	}
	if edit.ShowProfile != nil {
		s.ShowProfile = *edit.ShowProfile
	}
	if edit.AllowFriendRequests != nil {
		s.AllowFriendRequests = *edit.AllowFriendRequests
	}
}
