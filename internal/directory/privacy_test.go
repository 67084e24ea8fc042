// ABOUTME: Tests for the visibility table and privacy level parsing
// ABOUTME: Covers all six level/relationship combinations

package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivacyLevel_IsVisible(t *testing.T) {
	tests := []struct {
		level    PrivacyLevel
		isFriend bool
		want     bool
	}{
		{PrivacyPublic, false, true},
		{PrivacyPublic, true, true},
		{PrivacyFriends, false, false},
		{PrivacyFriends, true, true},
		{PrivacyPrivate, false, false},
		{PrivacyPrivate, true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.IsVisible(tt.isFriend), "%s friend=%v", tt.level, tt.isFriend)
	}
}

func TestPrivacyLevel_UnknownFailsClosed(t *testing.T) {
	assert.False(t, PrivacyLevel("Everyone").IsVisible(true))
	assert.False(t, PrivacyLevel("").IsVisible(true))
}

func TestParsePrivacyLevel(t *testing.T) {
	lvl, err := ParsePrivacyLevel("friends")
	require.NoError(t, err)
	assert.Equal(t, PrivacyFriends, lvl)

	lvl, err = ParsePrivacyLevel(" PUBLIC ")
	require.NoError(t, err)
	assert.Equal(t, PrivacyPublic, lvl)

	_, err = ParsePrivacyLevel("nobody")
	assert.Error(t, err)
}

func TestPrivacyLevel_JSON(t *testing.T) {
	var edit SettingsEdit
	require.NoError(t, json.Unmarshal([]byte(`{"show_in_search":"private"}`), &edit))
	require.NotNil(t, edit.ShowInSearch)
	assert.Equal(t, PrivacyPrivate, *edit.ShowInSearch)

	err := json.Unmarshal([]byte(`{"show_in_search":"nobody"}`), &edit)
	assert.Error(t, err)
}
