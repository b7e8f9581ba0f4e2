package events

import "strconv"

const (
	TypeChannelCreated     = "channel.created"
	TypeChannelUpdated     = "channel.updated"
	TypeChannelDeleted     = "channel.deleted"
	TypeCollaboratorAdded  = "channel.collaborator.added"
	TypeCollaboratorEdited = "channel.collaborator.updated"
	TypeCollaboratorRemove = "channel.collaborator.removed"
	TypeFollowerAdded      = "channel.follower.added"
	TypeFollowerRemoved    = "channel.follower.removed"
	TypeChannelTipped      = "channel.tipped"
)

// ChannelCreated is emitted when a new channel is registered together with its
// freshly minted ownership token.
type ChannelCreated struct {
	ChannelID string
	UserName  string
	Creator   string
	TokenID   string
}

// EventType implements the Event interface.
func (ChannelCreated) EventType() string { return TypeChannelCreated }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e ChannelCreated) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"userName":  e.UserName,
		"creator":   e.Creator,
		"tokenId":   e.TokenID,
	}
}

// ChannelUpdated is emitted when a channel's mutable details change.
type ChannelUpdated struct {
	ChannelID string
	Actor     string
}

// EventType implements the Event interface.
func (ChannelUpdated) EventType() string { return TypeChannelUpdated }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e ChannelUpdated) Attributes() map[string]string {
	return map[string]string{"channelId": e.ChannelID, "actor": e.Actor}
}

// ChannelDeleted is emitted when a channel and its dependent records are
// removed. AssetsRemoved and PlaylistsRemoved report the cascade size.
type ChannelDeleted struct {
	ChannelID        string
	UserName         string
	AssetsRemoved    int
	PlaylistsRemoved int
}

// EventType implements the Event interface.
func (ChannelDeleted) EventType() string { return TypeChannelDeleted }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e ChannelDeleted) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"userName":  e.UserName,
		"assets":    strconv.Itoa(e.AssetsRemoved),
		"playlists": strconv.Itoa(e.PlaylistsRemoved),
	}
}

// CollaboratorAdded is emitted when an address is granted a role on a channel.
type CollaboratorAdded struct {
	ChannelID string
	Address   string
	Role      string
	ShareBps  uint32
}

// EventType implements the Event interface.
func (CollaboratorAdded) EventType() string { return TypeCollaboratorAdded }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e CollaboratorAdded) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"address":   e.Address,
		"role":      e.Role,
		"shareBps":  strconv.FormatUint(uint64(e.ShareBps), 10),
	}
}

// CollaboratorUpdated is emitted when an existing collaborator's role or share
// changes.
type CollaboratorUpdated struct {
	ChannelID string
	Address   string
	Role      string
	ShareBps  uint32
}

// EventType implements the Event interface.
func (CollaboratorUpdated) EventType() string { return TypeCollaboratorEdited }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e CollaboratorUpdated) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"address":   e.Address,
		"role":      e.Role,
		"shareBps":  strconv.FormatUint(uint64(e.ShareBps), 10),
	}
}

// CollaboratorRemoved is emitted when a collaborator loses access to a channel.
type CollaboratorRemoved struct {
	ChannelID string
	Address   string
}

// EventType implements the Event interface.
func (CollaboratorRemoved) EventType() string { return TypeCollaboratorRemove }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e CollaboratorRemoved) Attributes() map[string]string {
	return map[string]string{"channelId": e.ChannelID, "address": e.Address}
}

// FollowerAdded is emitted when an address starts following a channel.
type FollowerAdded struct {
	ChannelID string
	Follower  string
	Count     uint64
}

// EventType implements the Event interface.
func (FollowerAdded) EventType() string { return TypeFollowerAdded }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e FollowerAdded) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"follower":  e.Follower,
		"count":     strconv.FormatUint(e.Count, 10),
	}
}

// FollowerRemoved is emitted when an address stops following a channel.
type FollowerRemoved struct {
	ChannelID string
	Follower  string
	Count     uint64
}

// EventType implements the Event interface.
func (FollowerRemoved) EventType() string { return TypeFollowerRemoved }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e FollowerRemoved) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"follower":  e.Follower,
		"count":     strconv.FormatUint(e.Count, 10),
	}
}

// ChannelTipped is emitted after a tip has been split across the channel's
// collaborators.
type ChannelTipped struct {
	ChannelID string
	Sender    string
	Denom     string
	Amount    string
	Payouts   int
}

// EventType implements the Event interface.
func (ChannelTipped) EventType() string { return TypeChannelTipped }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e ChannelTipped) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"sender":    e.Sender,
		"denom":     e.Denom,
		"amount":    e.Amount,
		"payouts":   strconv.Itoa(e.Payouts),
	}
}
