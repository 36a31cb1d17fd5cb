// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrRejected is wrapped by every RejectedError so callers can use errors.Is.
	ErrRejected = errors.New("command rejected")

	// ErrInvalidIndex is returned when a playlist index is out of bounds.
	ErrInvalidIndex = errors.New("invalid playlist index")

	// ErrClosed is returned when the controller has been shut down.
	ErrClosed = errors.New("controller closed")

	// ErrNotConnected is returned by engine adapters with no live backend connection.
	ErrNotConnected = errors.New("engine not connected")

	// ErrUnsupported is returned by engine adapters for operations the backend cannot perform.
	ErrUnsupported = errors.New("operation not supported by engine")

	// ErrInvalidURI is returned when a media URI is empty or malformed.
	ErrInvalidURI = errors.New("invalid media uri")

	// ErrFileNotFound is returned when a local media file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrPlaylistEmpty is returned when navigating an empty playlist.
	ErrPlaylistEmpty = errors.New("playlist is empty")

	// ErrPlaylistBoundary is returned when manual navigation runs past either end with repeat off.
	ErrPlaylistBoundary = errors.New("no item in that direction")
)

// ErrorKind classifies failures surfaced by the engine.
type ErrorKind int

const (
	// ErrorNone means no error
	ErrorNone ErrorKind = iota

	// ErrorLoadFailure means the resource is unreachable or unsupported
	ErrorLoadFailure

	// ErrorDecodeFailure means the engine reported a codec or demux fault
	ErrorDecodeFailure

	// ErrorSeekOutOfRange means a seek target was outside the media bounds (clamped, never surfaced)
	ErrorSeekOutOfRange

	// ErrorEngineFault is any unexpected or unclassified engine error
	ErrorEngineFault
)

// String returns a human-readable representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorLoadFailure:
		return "load_failure"
	case ErrorDecodeFailure:
		return "decode_failure"
	case ErrorSeekOutOfRange:
		return "seek_out_of_range"
	case ErrorEngineFault:
		return "engine_fault"
	default:
		return "unknown"
	}
}

// Fatal reports whether the kind moves the state machine into Error.
func (k ErrorKind) Fatal() bool {
	return k == ErrorLoadFailure || k == ErrorDecodeFailure || k == ErrorEngineFault
}

// RejectedReason explains why the state machine refused a command.
type RejectedReason int

const (
	// RejectInErrorState means the current item failed; only Stop/Next/Previous/PlayAt are accepted
	RejectInErrorState RejectedReason = iota + 1

	// RejectNoActiveMedia means the command needs loaded media
	RejectNoActiveMedia

	// RejectAtBoundary means manual navigation hit the end of the playlist with repeat off
	RejectAtBoundary

	// RejectEmptyPlaylist means there is nothing to play
	RejectEmptyPlaylist

	// RejectInvalidArgument means a command argument is out of range
	RejectInvalidArgument

	// RejectUnknownTrack means the requested stream does not exist
	RejectUnknownTrack
)

// String returns a human-readable representation of the reason.
func (r RejectedReason) String() string {
	switch r {
	case RejectInErrorState:
		return "in_error_state"
	case RejectNoActiveMedia:
		return "no_active_media"
	case RejectAtBoundary:
		return "at_boundary"
	case RejectEmptyPlaylist:
		return "empty_playlist"
	case RejectInvalidArgument:
		return "invalid_argument"
	case RejectUnknownTrack:
		return "unknown_track"
	default:
		return "unknown"
	}
}

// RejectedError is returned synchronously by Submit when a command is refused.
// It is a normal control-flow outcome and never changes state.
type RejectedError struct {
	Command Command
	Reason  RejectedReason
	State   StateTag
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("command %s rejected in state %s: %s", e.Command, e.State, e.Reason)
}

// Unwrap returns ErrRejected.
func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// NewRejectedError creates a new RejectedError.
func NewRejectedError(cmd Command, reason RejectedReason, state StateTag) *RejectedError {
	return &RejectedError{
		Command: cmd,
		Reason:  reason,
		State:   state,
	}
}

// RejectionReason extracts the reason from err, if it is a rejection.
func RejectionReason(err error) (RejectedReason, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return 0, false
}

// IndexError is returned by playlist operations given an out-of-range index.
type IndexError struct {
	Op    string // Operation that failed (e.g., "remove", "move")
	Index int    // Offending index
	Len   int    // Playlist length at the time
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("playlist %s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// Unwrap returns ErrInvalidIndex.
func (e *IndexError) Unwrap() error {
	return ErrInvalidIndex
}

// NewIndexError creates a new IndexError.
func NewIndexError(op string, index, length int) *IndexError {
	return &IndexError{
		Op:    op,
		Index: index,
		Len:   length,
	}
}

// EngineAdapterError represents an error from a media engine adapter.
// This wraps low-level backend errors with additional context.
type EngineAdapterError struct {
	Engine  string // Adapter name (e.g., "mpd", "sim")
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	URI     string // Media URI (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *EngineAdapterError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s engine %s failed for '%s': %s", e.Engine, e.Op, e.URI, e.Message)
	}
	return fmt.Sprintf("%s engine %s failed: %s", e.Engine, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineAdapterError) Unwrap() error {
	return e.Err
}

// NewEngineAdapterError creates a new EngineAdapterError.
func NewEngineAdapterError(engine, op, uri, message string, err error) *EngineAdapterError {
	return &EngineAdapterError{
		Engine:  engine,
		Op:      op,
		URI:     uri,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "settings")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
