// ABOUTME: User aggregate with usage tracking, block list and viewer-scoped projections
// ABOUTME: PrivateView shows everything to the owner; PublicView filters per PrivacyLevel

package directory

import (
	"errors"
	"maps"
	"strings"
	"time"
)

// DateLayout renders timestamps with nanosecond precision and a zone abbreviation.
const DateLayout = "2006-01-02 15:04:05.000000000 MST"

var (
	// ErrAlreadyBlocked is returned by Block when the key is already listed.
	ErrAlreadyBlocked = errors.New("user is already blocked")

	// ErrNotBlocked is returned by Unblock when the key is not listed.
	ErrNotBlocked = errors.New("user is not on your block list")
)

// User is the root aggregate of the directory.
type User struct {
	Key             string
	Name            string
	DisplayName     string
	CreatedAt       time.Time
	LastAccessAt    time.Time
	EndpointUsage   map[string]uint64
	Settings        Settings
	PermissionLevel PermissionLevel
	Profile         Profile
	Timezone        *time.Location

	// FriendRequests holds incoming requests: sender key -> time sent.
	FriendRequests map[string]time.Time
	// BlockList maps blocked user key -> time blocked.
	BlockList map[string]time.Time
}

// NewUser returns a user with default settings in UTC.
func NewUser(key, name, displayName string, now time.Time) *User {
	if displayName == "" {
		displayName = name
	}
	return &User{
		Key:             key,
		Name:            strings.ToLower(name),
		DisplayName:     displayName,
		CreatedAt:       now,
		LastAccessAt:    now,
		EndpointUsage:   make(map[string]uint64),
		Settings:        DefaultSettings(),
		PermissionLevel: PermissionUser,
		Timezone:        time.UTC,
		FriendRequests:  make(map[string]time.Time),
		BlockList:       make(map[string]time.Time),
	}
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.EndpointUsage = maps.Clone(u.EndpointUsage)
	c.FriendRequests = maps.Clone(u.FriendRequests)
	c.BlockList = maps.Clone(u.BlockList)
	if c.EndpointUsage == nil {
		c.EndpointUsage = make(map[string]uint64)
	}
	if c.FriendRequests == nil {
		c.FriendRequests = make(map[string]time.Time)
	}
	if c.BlockList == nil {
		c.BlockList = make(map[string]time.Time)
	}
	return &c
}

// Location returns the user's timezone, defaulting to UTC.
func (u *User) Location() *time.Location {
	if u.Timezone == nil {
		return time.UTC
	}
	return u.Timezone
}

// RecordAccess stamps the access time and counts one call of "METHOD path".
func (u *User) RecordAccess(method, path string, now time.Time) {
	u.LastAccessAt = now
	if u.EndpointUsage == nil {
		u.EndpointUsage = make(map[string]uint64)
	}
	u.EndpointUsage[method+" "+path]++
}

// RequestCount sums the endpoint usage counters.
func (u *User) RequestCount() uint64 {
	var total uint64
	for _, n := range u.EndpointUsage {
		total += n
	}
	return total
}

// HasRequestFrom reports whether key has a pending request to u.
func (u *User) HasRequestFrom(key string) bool {
	_, ok := u.FriendRequests[key]
	return ok
}

// HasBlocked reports whether u has key on the block list.
func (u *User) HasBlocked(key string) bool {
	_, ok := u.BlockList[key]
	return ok
}

// Block adds key to the block list.
func (u *User) Block(key string, now time.Time) error {
	if u.HasBlocked(key) {
		return ErrAlreadyBlocked
	}
	if u.BlockList == nil {
		u.BlockList = make(map[string]time.Time)
	}
	u.BlockList[key] = now
	return nil
}

// Unblock removes key from the block list.
func (u *User) Unblock(key string) error {
	if !u.HasBlocked(key) {
		return ErrNotBlocked
	}
	delete(u.BlockList, key)
	return nil
}

// FormatDate renders t in loc using DateLayout.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// PrivateView is what the owner sees of their own record.
type PrivateView struct {
	Name              string          `json:"name"`
	DisplayName       string          `json:"display_name"`
	JoinedDate        string          `json:"joined_date"`
	LastOnlineDate    string          `json:"last_online_date"`
	TotalRequestCount uint64          `json:"total_request_count"`
	PermissionLevel   PermissionLevel `json:"permission_level"`
	Profile           Profile         `json:"profile"`
	Timezone          string          `json:"timezone"`
}

// PublicView is what another user may see. Hidden fields are null.
type PublicView struct {
	Name            string          `json:"name"`
	DisplayName     string          `json:"display_name"`
	JoinedDate      *string         `json:"joined_date"`
	LastOnlineDate  *string         `json:"last_online_date"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	Profile         *Profile        `json:"profile"`
	Timezone        *string         `json:"timezone"`
}

// PrivateView discloses every field, with dates in the owner's own timezone.
func (u *User) PrivateView() PrivateView {
	loc := u.Location()
	return PrivateView{
		Name:              u.Name,
		DisplayName:       u.DisplayName,
		JoinedDate:        FormatDate(u.CreatedAt, loc),
		LastOnlineDate:    FormatDate(u.LastAccessAt, loc),
		TotalRequestCount: u.RequestCount(),
		PermissionLevel:   u.PermissionLevel,
		Profile:           u.Profile,
		Timezone:          loc.String(),
	}
}

// PublicView filters u for a viewer. Dates are rendered in viewerTZ.
func (u *User) PublicView(isFriend, includeProfile bool, viewerTZ *time.Location) PublicView {
	v := PublicView{
		Name:            u.Name,
		DisplayName:     u.DisplayName,
		PermissionLevel: u.PermissionLevel,
	}
	if u.Settings.ShowJoinDate.IsVisible(isFriend) {
		d := FormatDate(u.CreatedAt, viewerTZ)
		v.JoinedDate = &d
	}
	if u.Settings.ShowOnlineDate.IsVisible(isFriend) {
		d := FormatDate(u.LastAccessAt, viewerTZ)
		v.LastOnlineDate = &d
	}
	if u.Settings.ShowTimezone.IsVisible(isFriend) {
		tz := u.Location().String()
		v.Timezone = &tz
	}
	if includeProfile && u.Settings.ShowProfile.IsVisible(isFriend) {
		p := u.Profile
		v.Profile = &p
	}
	return v
}
