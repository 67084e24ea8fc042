// ABOUTME: Error taxonomy for social operations: not found, conflict, storage failure
// ABOUTME: Domain errors carry a short reason safe to show to the caller

package social

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent records and records hidden by privacy settings.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation is invalid in the current relationship state.
	ErrConflict = errors.New("conflict")

	// ErrStorage wraps unexpected persistence failures. Its detail must not
	// reach callers.
	ErrStorage = errors.New("storage failure")
)

// Error is a recoverable domain failure with a human-readable reason.
// errors.Is matches it against its Kind.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func notFound(reason string) error {
	return &Error{Kind: ErrNotFound, Reason: reason}
}

func conflict(reason string) error {
	return &Error{Kind: ErrConflict, Reason: reason}
}

func storageFault(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Reason returns the caller-facing text of a domain error, or "" for
// anything else.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Caller-facing reasons.
const (
	reasonUserNotFound        = "User not found"
	reasonRequestTargetHidden = "User not found or user does not allow friend requests"
	reasonSelfRequest         = "Can't send a friend request to yourself"
	reasonAlreadyFriends      = "You are already friends with the user"
	reasonAlreadyRequested    = "Already sent a request to the user"
	reasonReverseRequest      = "User already sent you a friend request, accept it instead"
	reasonSenderBlocked       = "You have blocked the user, unblock them first"
	reasonNotRequested        = "You did not send a request to the user"
	reasonNoPendingRequest    = "No pending friend request from the user"
	reasonNotFriends          = "Not friend with the user"
	reasonSelfBlock           = "You can't block yourself"
	reasonBlockFriend         = "Can't block your friends, remove them first"
	reasonBlockedPair         = "Can't befriend a user while either of you has blocked the other"
	reasonAlreadyBlocked      = "User is already blocked"
	reasonNotBlocked          = "User is not on your block list"
	reasonTimezoneNotFound    = "Timezone not found"
	reasonNameTaken           = "Name is already taken"
)
