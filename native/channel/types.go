package channel

import (
	"channeld/native/funds"
)

// ShareDenominator aliases the basis-point scale used for revenue shares.
const ShareDenominator = funds.ShareDenominator

const (
	// MaxCollaborators bounds the number of distinct collaborators per
	// channel so revenue distribution stays cheap to iterate.
	MaxCollaborators = 10
	// DefaultPageSize is used when a list query does not request a limit.
	DefaultPageSize = 25
	// MaxPageSize clamps channel-side list queries.
	MaxPageSize = 50
)

// Role grades what a collaborator may do on a channel. The grant relation is
// business logic, not numeric order: Admin covers everything, Moderator covers
// moderation and publishing, Publisher covers publishing only.
type Role uint8

const (
	RolePublisher Role = iota + 1
	RoleModerator
	RoleAdmin
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RolePublisher:
		return "publisher"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether the role is one of the three known grades.
func (r Role) Valid() bool {
	return r == RolePublisher || r == RoleModerator || r == RoleAdmin
}

// Grants reports whether a holder of role r may perform an action requiring
// the given role.
func (r Role) Grants(required Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleModerator:
		return required == RoleModerator || required == RolePublisher
	case RolePublisher:
		return required == RolePublisher
	default:
		return false
	}
}

// Collaborator is one address granted a role and a revenue share on a channel.
// ExpiresAt is a unix second after which the grant stops working; zero means
// the grant never expires.
type Collaborator struct {
	Address   string
	Role      Role
	ShareBps  uint32
	ExpiresAt uint64
}

// Expired reports whether the grant has lapsed at the given unix second.
func (c Collaborator) Expired(now int64) bool {
	return c.ExpiresAt != 0 && uint64(now) >= c.ExpiresAt
}

// Metadata carries the purely descriptive, freely editable channel fields.
type Metadata struct {
	ChannelName    string
	Description    string
	ProfilePicture string
	BannerPicture  string
}

// Channel is the registry record for one content channel. OnftID names the
// ownership token inside the registry's channels collection; its current
// holder is the channel's admin.
type Channel struct {
	ChannelID      string
	UserName       string
	OnftID         string
	PaymentAddress string
	Metadata       Metadata
	CreatedAt      uint64
}

// ReservedUsername pins a username for later claiming. When Address is
// non-empty only that address may claim the name; when empty the name is
// blocked for everyone until the reservation is lifted.
type ReservedUsername struct {
	UserName string
	Address  string
}

// Params holds the registry-wide configuration maintained by the protocol
// admin.
type Params struct {
	ChannelsCollectionID string
	ChannelCreationFee   []funds.Coin
	AcceptedTipDenoms    []string
	ProtocolAdmin        string
	FeeCollector         string
}

// TipDenomAccepted reports whether the denomination may be used for tips. An
// empty accept list admits every denomination.
func (p Params) TipDenomAccepted(denom string) bool {
	if len(p.AcceptedTipDenoms) == 0 {
		return true
	}
	for _, d := range p.AcceptedTipDenoms {
		if d == denom {
			return true
		}
	}
	return false
}

// ClampLimit normalizes a requested page size to the served bounds.
func ClampLimit(limit uint32) int {
	if limit == 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return int(limit)
}
