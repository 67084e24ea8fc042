// ABOUTME: HTTP handlers for the caller's own record, search, block list and the public directory
// ABOUTME: Settings and profile edits accept a JSON body or query parameters

package server

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/store"
)

// isJSONRequest reports whether r declares a JSON body.
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// settingsEditFromQuery reads a SettingsEdit from query parameters.
func settingsEditFromQuery(q url.Values) (directory.SettingsEdit, error) {
	var edit directory.SettingsEdit

	levels := []struct {
		key string
		dst **directory.PrivacyLevel
	}{
		{"show_join_date", &edit.ShowJoinDate},
		{"show_online_date", &edit.ShowOnlineDate},
		{"show_in_search", &edit.ShowInSearch},
		{"show_timezone", &edit.ShowTimezone},
		{"show_profile", &edit.ShowProfile},
	}
	for _, l := range levels {
		if !q.Has(l.key) {
			continue
		}
		level, err := directory.ParsePrivacyLevel(q.Get(l.key))
		if err != nil {
			return edit, fmt.Errorf("%s: %w", l.key, err)
		}
		*l.dst = &level
	}

	flags := []struct {
		key string
		dst **bool
	}{
		{"appear_on_public_list", &edit.AppearOnPublicList},
		{"allow_friend_requests", &edit.AllowFriendRequests},
	}
	for _, f := range flags {
		if !q.Has(f.key) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(f.key))
		if err != nil {
			return edit, fmt.Errorf("%s must be a boolean", f.key)
		}
		*f.dst = &v
	}

	return edit, nil
}

// profileEditFromQuery reads a ProfileEdit from query parameters.
func profileEditFromQuery(q url.Values) directory.ProfileEdit {
	field := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		v := q.Get(key)
		return &v
	}
	return directory.ProfileEdit{
		Pronouns: field("pronouns"),
		Bio:      field("bio"),
		Status:   field("status"),
		Mood:     field("mood"),
	}
}

// handleGetUser handles GET /user.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, currentUser(r).PrivateView())
}

// handleSearchUser handles GET /user/search?name=NAME.
func (s *Server) handleSearchUser(w http.ResponseWriter, r *http.Request) {
	name, err := parseName(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	lq, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.social.Search(r.Context(), currentUser(r), name, lq.IncludeProfile)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, view)
}

// handleGetSettings handles GET /user/settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, currentUser(r).Settings)
}

// handlePatchSettings handles PATCH /user/settings.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var edit directory.SettingsEdit
	var err error
	if isJSONRequest(r) {
		err = decodeBody(r, &edit)
	} else {
		edit, err = settingsEditFromQuery(r.URL.Query())
	}
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := s.social.UpdateSettings(r.Context(), currentUser(r), edit)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, settings)
}

// handleGetProfile handles GET /user/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, currentUser(r).Profile)
}

// handlePatchProfile handles PATCH /user/profile.
func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	var edit directory.ProfileEdit
	if isJSONRequest(r) {
		if err := decodeBody(r, &edit); err != nil {
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		edit = profileEditFromQuery(r.URL.Query())
		if err := validate.Struct(edit); err != nil {
			s.sendJSONError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
	}

	profile, err := s.social.UpdateProfile(r.Context(), currentUser(r), edit)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, profile)
}

// handleListBlocked handles GET /user/block.
func (s *Server) handleListBlocked(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.social.ListBlocked(r.Context(), currentUser(r), lq.Page, lq.PageSize)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

// handleBlock handles POST /user/block?name=NAME.
func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	s.nameAction("User blocked", s.social.Block)(w, r)
}

// handleUnblock handles DELETE /user/block?name=NAME.
func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	s.nameAction("User unblocked", s.social.Unblock)(w, r)
}

// handleListUsers handles GET /users.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.social.ListPublicUsers(r.Context(), currentUser(r), lq.Page, lq.PageSize, lq.IncludeProfile)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

// handleUsage handles GET /metrics/usage: the caller's own counters.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, currentUser(r).EndpointUsage)
}

// handleUsageStats handles GET /metrics/usage/all, aggregated over every user.
func (s *Server) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	var filter store.UsageFilter
	if method := r.URL.Query().Get("method"); method != "" {
		filter.Method = &method
	}
	limit, err := parseOptionalInt(r, "limit")
	if err != nil || (limit != nil && *limit < 0) {
		s.sendJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if limit != nil {
		filter.Limit = *limit
	}

	stats, err := s.store.GetUsageStats(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to get usage stats", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}
