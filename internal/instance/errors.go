package instance

import "errors"

// Sentinel errors classified by the caller: instance-creation rejection
// returns one of these rather than a typed exception, and upstream
// surfaces it to the client as a generic "cannot enter" reason.
var (
	ErrDefinitionNotFound = errors.New("instance: definition not found")
	ErrVariantNotFound    = errors.New("instance: variant not found")
	ErrTimerNotFound      = errors.New("instance: timer definition not found")
	ErrInstanceNotFound   = errors.New("instance: not found")
	ErrNoAccess           = errors.New("instance: character has no access grant")
	ErrTimerNotRunning    = errors.New("instance: timer is not running")
	ErrTimerAlreadyStarted = errors.New("instance: timer already started")
	ErrPartnerRequired    = errors.New("instance: demon-only instance requires a living partner demon")
)
