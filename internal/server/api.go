// ABOUTME: HTTP API plumbing: route table, JSON responses, query parsing and error mapping
// ABOUTME: Every route except /health runs behind the auth middleware

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/lemcom/lemcom-directory/internal/auth"
	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/pagination"
	"github.com/lemcom/lemcom-directory/internal/social"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// MessageResponse carries the outcome of an operation that has no other result.
type MessageResponse struct {
	Message string `json:"message"`
}

// registerRoutes mounts every authenticated API route on mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.auth.Wrap(h))
	}

	authed("GET /{$}", s.handlePing)

	authed("GET /user", s.handleGetUser)
	authed("GET /user/search", s.handleSearchUser)
	authed("GET /user/settings", s.handleGetSettings)
	authed("PATCH /user/settings", s.handlePatchSettings)
	authed("GET /user/profile", s.handleGetProfile)
	authed("PATCH /user/profile", s.handlePatchProfile)
	authed("GET /user/block", s.handleListBlocked)
	authed("POST /user/block", s.handleBlock)
	authed("DELETE /user/block", s.handleUnblock)

	authed("GET /users", s.handleListUsers)

	authed("GET /friend", s.handleListFriends)
	authed("DELETE /friend", s.handleUnfriend)
	authed("GET /friend/request", s.handleListFriendRequests)
	authed("POST /friend/request", s.handleSendFriendRequest)
	authed("DELETE /friend/request", s.handleRetractFriendRequest)
	authed("POST /friend/request/accept", s.handleAcceptFriendRequest)
	authed("POST /friend/request/deny", s.handleDenyFriendRequest)

	authed("GET /notification", s.handleListNotifications)
	authed("DELETE /notification", s.handleClearNotifications)

	authed("GET /timezone", s.handleListTimezones)
	authed("PUT /timezone", s.handleSetTimezone)

	authed("GET /metrics/usage", s.handleUsage)
	mux.Handle("GET /metrics/usage/all", s.auth.Wrap(
		auth.RequirePermission(directory.PermissionAdministrator)(http.HandlerFunc(s.handleUsageStats)),
	))
}

// sendJSON writes v as a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

// sendMessage writes a 200 response carrying message.
func (s *Server) sendMessage(w http.ResponseWriter, message string) {
	s.sendJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// sendServiceError maps a social error onto an HTTP status. Storage faults
// are logged and reported without detail.
func (s *Server) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, social.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, social.Reason(err))
	case errors.Is(err, social.ErrConflict):
		s.sendJSONError(w, http.StatusBadRequest, social.Reason(err))
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationMessage describes the first failed validation rule.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s: %s", verrs[0].Field(), verrs[0].Tag())
	}
	return "invalid request"
}

// nameQuery is the ?name= parameter naming a target user.
type nameQuery struct {
	Name string `validate:"required,max=64"`
}

// timezoneQuery is the ?timezone= parameter of PUT /timezone.
type timezoneQuery struct {
	Timezone string `validate:"required,max=64"`
}

// listQuery holds the shared parameters of paged list routes.
type listQuery struct {
	Page           int
	PageSize       int
	IncludeProfile bool
}

// parseName reads and validates the target name.
func parseName(r *http.Request) (string, error) {
	q := nameQuery{Name: r.URL.Query().Get("name")}
	if err := validate.Struct(q); err != nil {
		return "", errors.New(validationMessage(err))
	}
	return q.Name, nil
}

func parseOptionalInt(r *http.Request, key string) (*int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

// parseListQuery reads page, page_size and include_user_profile.
func parseListQuery(r *http.Request) (listQuery, error) {
	var q pagination.Query
	var err error
	if q.Page, err = parseOptionalInt(r, "page"); err != nil {
		return listQuery{}, err
	}
	if q.PageSize, err = parseOptionalInt(r, "page_size"); err != nil {
		return listQuery{}, err
	}

	var lq listQuery
	lq.Page, lq.PageSize = q.Resolve()

	if raw := r.URL.Query().Get("include_user_profile"); raw != "" {
		lq.IncludeProfile, err = strconv.ParseBool(raw)
		if err != nil {
			return listQuery{}, errors.New("include_user_profile must be a boolean")
		}
	}
	return lq, nil
}

// decodeBody decodes a JSON request body into v and validates it.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

// handlePing handles GET /.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.sendMessage(w, "Pong")
}

// handleListTimezones handles GET /timezone.
func (s *Server) handleListTimezones(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.social.Timezones())
}

// handleSetTimezone handles PUT /timezone?timezone=NAME.
func (s *Server) handleSetTimezone(w http.ResponseWriter, r *http.Request) {
	q := timezoneQuery{Timezone: r.URL.Query().Get("timezone")}
	if err := validate.Struct(q); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user := currentUser(r)
	if _, err := s.social.SetTimezone(r.Context(), user, q.Timezone); err != nil {
		s.sendServiceError(w, r, err)
		return
	}
	s.sendMessage(w, "Timezone updated")
}

// currentUser returns the authenticated user of r.
func currentUser(r *http.Request) *directory.User {
	return auth.MustFromContext(r.Context()).User
}
