package channel

import "errors"

var (
	// ErrUnauthorized is the single verdict returned for every
	// authorization denial, whether the caller lacked ownership, lacked a
	// role, or held an insufficient one.
	ErrUnauthorized = errors.New("channel: unauthorized")

	ErrChannelNotFound        = errors.New("channel: channel not found")
	ErrChannelIdAlreadyExists = errors.New("channel: channel id already exists")
	ErrUserNameAlreadyTaken   = errors.New("channel: username already taken")
	ErrUserNameReserved       = errors.New("channel: username reserved")

	ErrCollaboratorNotFound      = errors.New("channel: collaborator not found")
	ErrCollaboratorAlreadyExists = errors.New("channel: collaborator already exists")
	ErrCollaboratorLimitReached  = errors.New("channel: collaborator limit reached")
	ErrShareOutOfRange           = errors.New("channel: collaborator share out of range")
	ErrShareSumExceeded          = errors.New("channel: collaborator shares exceed total")
	ErrInvalidRole               = errors.New("channel: invalid role")

	ErrAlreadyFollowing = errors.New("channel: already following")
	ErrFollowerNotFound = errors.New("channel: follower not found")

	// Ownership ledger lookups distinguish a missing token from a token
	// held by someone else. Transport failures are wrapped and propagated,
	// never turned into a grant or a denial.
	ErrOnftNotFound = errors.New("channel: onft not found")
	ErrOnftNotOwned = errors.New("channel: onft not owned")

	ErrTipDenomNotAccepted = errors.New("channel: tip denomination not accepted")
	ErrInvalidAddress      = errors.New("channel: invalid address")
)
