package models

import "errors"

// ErrorKind enumerates the recoverable failure modes of core operations.
// Every kind is reported to the offending client; room state is never
// affected by a rejected intent.
type ErrorKind string

const (
	ErrRoomNotFound            ErrorKind = "room_not_found"
	ErrNotHost                 ErrorKind = "not_host"
	ErrGameInProgress          ErrorKind = "game_in_progress"
	ErrGameNotStarted          ErrorKind = "game_not_started"
	ErrRoomFull                ErrorKind = "room_full"
	ErrPlayerNotFound          ErrorKind = "player_not_found"
	ErrNotYourTurn             ErrorKind = "not_your_turn"
	ErrInvalidCard             ErrorKind = "invalid_card"
	ErrInvalidMove             ErrorKind = "invalid_move"
	ErrMissingColorChoice      ErrorKind = "missing_color_choice"
	ErrInvalidAccusationTarget ErrorKind = "invalid_accusation_target"
)

// Error is the structured failure result returned across the transport
// boundary. It satisfies the error interface.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// NewError builds a structured error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the kind of a structured error, or empty for other
// error values.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
