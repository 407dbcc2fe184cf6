package domain

import "errors"

var (
	// ErrValidation marks user input that cannot be accepted.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned when username and password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTransition is returned when an action button is not allowed in the row's state.
	ErrTransition = errors.New("action not allowed")
	// ErrForbidden guards admin-only operations.
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable wraps every event store I/O failure.
	ErrStoreUnavailable = errors.New("event store unavailable")
	// ErrLegacySchema is returned for event logs written in the Process/Status layout.
	ErrLegacySchema = errors.New("legacy event log schema is not supported")
	// ErrSchemaMismatch is returned for event logs whose header lacks required columns.
	ErrSchemaMismatch = errors.New("event log header does not match")
	// ErrUnknownRow is returned for an out of range draft row.
	ErrUnknownRow = errors.New("unknown item row")
	// ErrUnknownSession is returned when a session token is not registered.
	ErrUnknownSession = errors.New("unknown session")
)
