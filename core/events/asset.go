package events

import "strconv"

const (
	TypeAssetPublished     = "asset.published"
	TypeAssetUpdated       = "asset.updated"
	TypeAssetUnpublished   = "asset.unpublished"
	TypeAssetFlagged       = "asset.flagged"
	TypeAssetsRemoved      = "asset.removed.batch"
	TypePlaylistCreated    = "playlist.created"
	TypePlaylistDeleted    = "playlist.deleted"
	TypePlaylistAssetAdded = "playlist.asset.added"
	TypePlaylistRefreshed  = "playlist.refreshed"
	TypeConfigUpdated      = "registry.config.updated"
)

// AssetPublished is emitted when an asset becomes part of a channel's catalog.
type AssetPublished struct {
	ChannelID string
	AssetID   string
	Publisher string
}

// EventType implements the Event interface.
func (AssetPublished) EventType() string { return TypeAssetPublished }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e AssetPublished) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"assetId":   e.AssetID,
		"publisher": e.Publisher,
	}
}

// AssetUpdated is emitted when an asset's mutable details change.
type AssetUpdated struct {
	ChannelID string
	AssetID   string
	Actor     string
}

// EventType implements the Event interface.
func (AssetUpdated) EventType() string { return TypeAssetUpdated }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e AssetUpdated) Attributes() map[string]string {
	return map[string]string{"channelId": e.ChannelID, "assetId": e.AssetID, "actor": e.Actor}
}

// AssetUnpublished is emitted when an asset is withdrawn from a channel.
type AssetUnpublished struct {
	ChannelID string
	AssetID   string
}

// EventType implements the Event interface.
func (AssetUnpublished) EventType() string { return TypeAssetUnpublished }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e AssetUnpublished) Attributes() map[string]string {
	return map[string]string{"channelId": e.ChannelID, "assetId": e.AssetID}
}

// AssetFlagged is emitted when a user reports an asset for review.
type AssetFlagged struct {
	ChannelID string
	AssetID   string
	Flagger   string
	FlagCount uint64
}

// EventType implements the Event interface.
func (AssetFlagged) EventType() string { return TypeAssetFlagged }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e AssetFlagged) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"assetId":   e.AssetID,
		"flagger":   e.Flagger,
		"flagCount": strconv.FormatUint(e.FlagCount, 10),
	}
}

// AssetsRemoved is emitted when the protocol admin removes assets in bulk.
type AssetsRemoved struct {
	ChannelID string
	AssetIDs  []string
}

// EventType implements the Event interface.
func (AssetsRemoved) EventType() string { return TypeAssetsRemoved }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e AssetsRemoved) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"count":     strconv.Itoa(len(e.AssetIDs)),
	}
}

// PlaylistCreated is emitted when a playlist is added to a channel.
type PlaylistCreated struct {
	ChannelID    string
	PlaylistName string
}

// EventType implements the Event interface.
func (PlaylistCreated) EventType() string { return TypePlaylistCreated }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e PlaylistCreated) Attributes() map[string]string {
	return map[string]string{"channelId": e.ChannelID, "playlist": e.PlaylistName}
}

// PlaylistDeleted is emitted when a playlist is removed from a channel.
type PlaylistDeleted struct {
	ChannelID    string
	PlaylistName string
}

// EventType implements the Event interface.
func (PlaylistDeleted) EventType() string { return TypePlaylistDeleted }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e PlaylistDeleted) Attributes() map[string]string {
	return map[string]string{"channelId": e.ChannelID, "playlist": e.PlaylistName}
}

// PlaylistAssetAdded is emitted when an asset joins a playlist.
type PlaylistAssetAdded struct {
	ChannelID    string
	PlaylistName string
	AssetID      string
}

// EventType implements the Event interface.
func (PlaylistAssetAdded) EventType() string { return TypePlaylistAssetAdded }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e PlaylistAssetAdded) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"playlist":  e.PlaylistName,
		"assetId":   e.AssetID,
	}
}

// PlaylistRefreshed is emitted when stale entries are pruned from a playlist.
type PlaylistRefreshed struct {
	ChannelID    string
	PlaylistName string
	Removed      []string
}

// EventType implements the Event interface.
func (PlaylistRefreshed) EventType() string { return TypePlaylistRefreshed }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e PlaylistRefreshed) Attributes() map[string]string {
	return map[string]string{
		"channelId": e.ChannelID,
		"playlist":  e.PlaylistName,
		"removed":   strconv.Itoa(len(e.Removed)),
	}
}

// ConfigUpdated is emitted when the protocol admin changes registry parameters.
type ConfigUpdated struct {
	Admin string
}

// EventType implements the Event interface.
func (ConfigUpdated) EventType() string { return TypeConfigUpdated }

// Attributes converts the strongly typed event to the generic representation
// used by subscribers.
func (e ConfigUpdated) Attributes() map[string]string {
	return map[string]string{"admin": e.Admin}
}
