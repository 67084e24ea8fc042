// ABOUTME: HTTP handlers for friendships, friend requests and notifications
// ABOUTME: Target users are always named by the ?name= query parameter

package server

import (
	"context"
	"net/http"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

// handleListFriends handles GET /friend.
func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.social.ListFriends(r.Context(), currentUser(r), lq.Page, lq.PageSize, lq.IncludeProfile)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

// handleListFriendRequests handles GET /friend/request.
func (s *Server) handleListFriendRequests(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.social.ListFriendRequests(r.Context(), currentUser(r), lq.Page, lq.PageSize, lq.IncludeProfile)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

// nameAction adapts an operation on a named target into a handler that
// replies with message on success.
func (s *Server) nameAction(message string, op func(ctx context.Context, owner *directory.User, name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := parseName(r)
		if err != nil {
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := op(r.Context(), currentUser(r), name); err != nil {
			s.sendServiceError(w, r, err)
			return
		}
		s.sendMessage(w, message)
	}
}

// handleUnfriend handles DELETE /friend?name=NAME.
func (s *Server) handleUnfriend(w http.ResponseWriter, r *http.Request) {
	s.nameAction("Friend successfully removed", s.social.Unfriend)(w, r)
}

// handleSendFriendRequest handles POST /friend/request?name=NAME.
func (s *Server) handleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.nameAction("Friend request sent", s.social.SendFriendRequest)(w, r)
}

// handleRetractFriendRequest handles DELETE /friend/request?name=NAME.
func (s *Server) handleRetractFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.nameAction("Friend request retracted", s.social.RetractFriendRequest)(w, r)
}

// handleDenyFriendRequest handles POST /friend/request/deny?name=NAME.
func (s *Server) handleDenyFriendRequest(w http.ResponseWriter, r *http.Request) {
	s.nameAction("Friend request denied", s.social.DenyFriendRequest)(w, r)
}

// handleAcceptFriendRequest handles POST /friend/request/accept?name=NAME.
func (s *Server) handleAcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	name, err := parseName(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.social.AcceptFriendRequest(r.Context(), currentUser(r), name)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	if result.AlreadyFriends {
		s.sendMessage(w, "Friend request accepted, you were already friends")
		return
	}
	s.sendMessage(w, "Friend request accepted")
}

// ClearResponse reports how many notifications were removed.
type ClearResponse struct {
	Message string `json:"message"`
	Cleared int64  `json:"cleared"`
}

// handleListNotifications handles GET /notification.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.social.ListNotifications(r.Context(), currentUser(r), lq.Page, lq.PageSize)
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

// handleClearNotifications handles DELETE /notification.
func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := s.social.ClearNotifications(r.Context(), currentUser(r))
	if err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, ClearResponse{Message: "Notifications cleared", Cleared: n})
}
