package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoChats is matched by a ConfigError raised for an empty chat list
	ErrNoChats = errors.New("no chat found in the configuration, at least one chat is required")
	// ErrNoKeywordGroups is matched by a ConfigError raised for an empty keyword group list
	ErrNoKeywordGroups = errors.New("no keyword group found in the configuration, at least one keyword group is required")
	// ErrInvalidAction is matched by a ConfigError raised for an unknown action token
	ErrInvalidAction = errors.New("invalid action")
	// ErrPermissionDenied is returned by platforms when the bot lacks the rights for a call
	ErrPermissionDenied = errors.New("insufficient permission")
)

// ConfigErrorKind enumerates the ways a policy definition can be rejected
type ConfigErrorKind int

const (
	ConfigNoChats ConfigErrorKind = iota
	ConfigNoKeywordGroups
	ConfigInvalidAction
	ConfigEmptyKeywordGroup
	ConfigEmptyKeyword
	ConfigDuplicateChat
	ConfigMissingHandle
)

// ConfigError is a fatal startup error in the moderation policy
type ConfigError struct {
	Kind ConfigErrorKind
	// Raw is the offending token or handle, when there is one
	Raw string
	// Index is the position of the offending chat or keyword group
	Index int
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case ConfigNoChats:
		return ErrNoChats.Error()
	case ConfigNoKeywordGroups:
		return ErrNoKeywordGroups.Error()
	case ConfigInvalidAction:
		return fmt.Sprintf("invalid action %q, expected one of kick, ban, none", e.Raw)
	case ConfigEmptyKeywordGroup:
		return fmt.Sprintf("keyword group %d has no keywords", e.Index)
	case ConfigEmptyKeyword:
		return fmt.Sprintf("keyword group %d contains an empty keyword", e.Index)
	case ConfigDuplicateChat:
		return fmt.Sprintf("chat @%s is declared more than once", e.Raw)
	case ConfigMissingHandle:
		return fmt.Sprintf("chat %d has no username", e.Index)
	default:
		return "invalid configuration"
	}
}

// Is lets errors.Is match a ConfigError against the package sentinels
func (e *ConfigError) Is(target error) bool {
	switch target {
	case ErrNoChats:
		return e.Kind == ConfigNoChats
	case ErrNoKeywordGroups:
		return e.Kind == ConfigNoKeywordGroups
	case ErrInvalidAction:
		return e.Kind == ConfigInvalidAction
	}
	return false
}

// ExtractionErrorKind separates storage failures from recognizer failures
type ExtractionErrorKind int

const (
	ExtractionIO ExtractionErrorKind = iota
	ExtractionEngine
)

func (k ExtractionErrorKind) String() string {
	if k == ExtractionIO {
		return "io"
	}
	return "engine"
}

// ExtractionError aborts the pipeline of a single message
type ExtractionError struct {
	Kind ExtractionErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Kind == ExtractionIO {
		return fmt.Sprintf("text extraction storage failure: %v", e.Err)
	}
	return fmt.Sprintf("text recognizer failure: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewIOFailure wraps err as a storage failure
func NewIOFailure(err error) *ExtractionError {
	return &ExtractionError{Kind: ExtractionIO, Err: err}
}

// NewEngineFailure wraps err as a recognizer failure
func NewEngineFailure(err error) *ExtractionError {
	return &ExtractionError{Kind: ExtractionEngine, Err: err}
}

// PlatformErrorKind is the classification the pipeline cares about
type PlatformErrorKind int

const (
	PlatformOther PlatformErrorKind = iota
	PlatformPermissionDenied
)

// PlatformError is returned by ChatPlatform implementations
type PlatformError struct {
	Kind        PlatformErrorKind
	Description string
	Err         error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Description, e.Err)
	}
	return e.Description
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Is makes every permission-denied PlatformError match ErrPermissionDenied
func (e *PlatformError) Is(target error) bool {
	return target == ErrPermissionDenied && e.Kind == PlatformPermissionDenied
}

// ClassifyPlatformError is the single place that decides whether a platform
// failure is a missing-rights condition
func ClassifyPlatformError(err error) PlatformErrorKind {
	if err == nil {
		return PlatformOther
	}
	var perr *PlatformError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if errors.Is(err, ErrPermissionDenied) {
		return PlatformPermissionDenied
	}
	return PlatformOther
}

// EnforcementError is a non-recoverable failure of a remote moderation call
type EnforcementError struct {
	Op  string
	Err error
}

func (e *EnforcementError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *EnforcementError) Unwrap() error {
	return e.Err
}
