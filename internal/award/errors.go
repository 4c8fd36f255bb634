package award

import "errors"

var (
	// ErrUnauthenticated: no resolved user identity reached the coordinator.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidRequest: a required field is missing or malformed.
	ErrInvalidRequest = errors.New("invalid_request")
	// ErrUnknownAction: the action type is absent from the active rule
	// table or disabled.
	ErrUnknownAction = errors.New("unknown_action")
	// ErrReplayDuplicate: this (user, action) was already awarded under a
	// different idempotency key; there is no prior result to replay.
	ErrReplayDuplicate = errors.New("action_already_awarded")
	// ErrKeyConflict: the idempotency key was reused with a different
	// payload. The client must mint a new key.
	ErrKeyConflict = errors.New("idempotency_key_conflict")
	// ErrTryAgain: the original attempt for this key aborted before any
	// score change; retrying the identical request is safe.
	ErrTryAgain = errors.New("retry_submission")
)
