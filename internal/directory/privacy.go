// ABOUTME: PrivacyLevel type and the per-field visibility decision
// ABOUTME: Maps a privacy setting plus a friendship fact to a disclose/hide answer

package directory

import (
	"fmt"
	"strings"
)

// PrivacyLevel controls who may see a single field of a user record.
type PrivacyLevel string

const (
	PrivacyPublic  PrivacyLevel = "Public"
	PrivacyFriends PrivacyLevel = "Friends"
	PrivacyPrivate PrivacyLevel = "Private"
)

// IsVisible reports whether a field guarded by l may be disclosed to a viewer.
// Unknown levels fail closed.
func (l PrivacyLevel) IsVisible(isFriend bool) bool {
	switch l {
	case PrivacyPublic:
		return true
	case PrivacyFriends:
		return isFriend
	default:
		return false
	}
}

// ParsePrivacyLevel parses a level name case-insensitively.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return PrivacyPublic, nil
	case "friends":
		return PrivacyFriends, nil
	case "private":
		return PrivacyPrivate, nil
	}
	return "", fmt.Errorf("unknown privacy level %q", s)
}

// UnmarshalText accepts any casing of the level names.
func (l *PrivacyLevel) UnmarshalText(text []byte) error {
	parsed, err := ParsePrivacyLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// PermissionLevel is the directory-wide role of a user.
type PermissionLevel string

const (
	PermissionUser          PermissionLevel = "User"
	PermissionModerator     PermissionLevel = "Moderator"
	PermissionAdministrator PermissionLevel = "Administrator"
	PermissionOwner         PermissionLevel = "Owner"
)
