package domain

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is.
var (
	ErrElementNotFound       = errors.New("element not found")
	ErrPageNotFound          = errors.New("page not found")
	ErrConnectionNotFound    = errors.New("connection not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrNotContainer          = errors.New("element is not a container")
	ErrLastPage              = errors.New("cannot delete the last page")
	ErrSelfLoop              = errors.New("connection source and target are the same element")
	ErrDuplicateConnection   = errors.New("identical connection already exists")
	ErrInvalidConnectionType = errors.New("invalid connection type")
	ErrNotEnoughSelected     = errors.New("at least two elements must be selected")
	ErrNoGesture             = errors.New("no gesture in progress")
	ErrLocked                = errors.New("element is locked")
	ErrMalformedTree         = errors.New("malformed element tree")
	ErrNotEmitter            = errors.New("element kind does not emit values")
)
