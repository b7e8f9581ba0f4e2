package channel

import (
	"fmt"

	"channeld/core/events"
	"channeld/core/idgen"
	"channeld/native/assets"
	nativecommon "channeld/native/common"
)

// PublishAssetInput carries everything needed to publish one asset.
type PublishAssetInput struct {
	ChannelID   string
	Name        string
	Description string
	Source      assets.AssetSource
	// Playlist optionally names an extra playlist to insert into, on top of
	// the channel's default playlist.
	Playlist string
}

// PublishAsset adds an asset to the channel's catalog. Requires a publisher
// grade verdict; when the source references an NFT the caller must currently
// hold it. The asset always lands in the default playlist.
func (e *Engine) PublishAsset(caller string, in PublishAssetInput, idCtx idgen.Context) (assets.Asset, error) {
	if err := e.guard(); err != nil {
		return assets.Asset{}, err
	}
	if err := e.authorize(in.ChannelID, caller, RolePublisher); err != nil {
		return assets.Asset{}, err
	}
	if err := AssetNamePolicy.Validate(in.Name); err != nil {
		return assets.Asset{}, err
	}
	if in.Description != "" {
		if err := DescriptionPolicy.Validate(in.Description); err != nil {
			return assets.Asset{}, err
		}
	}
	switch in.Source.Kind {
	case assets.SourceOnft:
		if err := verifyTokenOwner(e.ledger, in.Source.CollectionID, in.Source.TokenID, caller); err != nil {
			return assets.Asset{}, err
		}
	case assets.SourceOffChain:
		if err := LinkPolicy.Validate(in.Source.MediaURI); err != nil {
			return assets.Asset{}, err
		}
	default:
		return assets.Asset{}, assets.ErrInvalidSource
	}
	if in.Playlist != "" && in.Playlist != assets.DefaultPlaylistName {
		if _, err := e.assets.GetPlaylist(in.ChannelID, in.Playlist); err != nil {
			return assets.Asset{}, err
		}
	}

	asset := assets.Asset{
		ChannelID:   in.ChannelID,
		PublishID:   idgen.Generate(publishIDPrefix, idCtx),
		Name:        in.Name,
		Description: in.Description,
		Source:      in.Source,
		IsVisible:   true,
		Publisher:   caller,
	}
	if err := e.assets.PutAsset(asset); err != nil {
		return assets.Asset{}, err
	}
	if err := e.assets.AddPlaylistAsset(in.ChannelID, assets.DefaultPlaylistName, asset.Key()); err != nil {
		return assets.Asset{}, err
	}
	if in.Playlist != "" && in.Playlist != assets.DefaultPlaylistName {
		if err := e.assets.AddPlaylistAsset(in.ChannelID, in.Playlist, asset.Key()); err != nil {
			return assets.Asset{}, err
		}
	}
	e.emit(events.AssetPublished{ChannelID: in.ChannelID, AssetID: asset.PublishID, Publisher: caller})
	return asset, nil
}

// UnpublishAsset deletes one asset record. Playlists referencing it keep the
// stale entry until refreshed. Requires a publisher grade verdict.
func (e *Engine) UnpublishAsset(caller, channelID, publishID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return err
	}
	key := assets.AssetKey{ChannelID: channelID, PublishID: publishID}
	if err := e.assets.DeleteAsset(key); err != nil {
		return err
	}
	e.emit(events.AssetUnpublished{ChannelID: channelID, AssetID: publishID})
	return nil
}

// UpdateAssetDetails rewrites an asset's name and description. Requires a
// publisher grade verdict.
func (e *Engine) UpdateAssetDetails(caller, channelID, publishID, name, description string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return err
	}
	if err := AssetNamePolicy.Validate(name); err != nil {
		return err
	}
	if description != "" {
		if err := DescriptionPolicy.Validate(description); err != nil {
			return err
		}
	}
	asset, err := e.assets.GetAsset(assets.AssetKey{ChannelID: channelID, PublishID: publishID})
	if err != nil {
		return err
	}
	asset.Name = name
	asset.Description = description
	if err := e.assets.PutAsset(asset); err != nil {
		return err
	}
	e.emit(events.AssetUpdated{ChannelID: channelID, AssetID: publishID, Actor: caller})
	return nil
}

// SetAssetVisibility toggles whether the asset shows up in listings and
// playlist refreshes. Requires a moderator grade verdict.
func (e *Engine) SetAssetVisibility(caller, channelID, publishID string, visible bool) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RoleModerator); err != nil {
		return err
	}
	asset, err := e.assets.GetAsset(assets.AssetKey{ChannelID: channelID, PublishID: publishID})
	if err != nil {
		return err
	}
	asset.IsVisible = visible
	if err := e.assets.PutAsset(asset); err != nil {
		return err
	}
	e.emit(events.AssetUpdated{ChannelID: channelID, AssetID: publishID, Actor: caller})
	return nil
}

// FlagAsset records a moderation flag from any caller, rate limited per
// address.
func (e *Engine) FlagAsset(caller, channelID, publishID string) (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if caller == "" {
		return 0, ErrInvalidAddress
	}
	if err := e.consumeFlagQuota(caller); err != nil {
		return 0, err
	}
	count, err := e.assets.FlagAsset(assets.AssetKey{ChannelID: channelID, PublishID: publishID}, caller)
	if err != nil {
		return 0, err
	}
	e.emit(events.AssetFlagged{ChannelID: channelID, AssetID: publishID, Flagger: caller, FlagCount: count})
	return count, nil
}

func (e *Engine) consumeFlagQuota(caller string) error {
	if e.flagQuota.MaxRequestsPerEpoch == 0 {
		return nil
	}
	epochSeconds := int64(e.flagQuota.EpochSeconds)
	if epochSeconds == 0 {
		epochSeconds = 3600
	}
	epoch := uint64(e.nowFn() / epochSeconds)
	e.flagMu.Lock()
	defer e.flagMu.Unlock()
	next, err := nativecommon.CheckQuota(e.flagQuota, epoch, e.flagUsage[caller], 1)
	if err != nil {
		return err
	}
	e.flagUsage[caller] = next
	return nil
}

// AdminRemoveAssets deletes assets in bulk. Protocol admin only; missing ids
// fail the whole batch so moderation actions stay reviewable.
func (e *Engine) AdminRemoveAssets(caller, channelID string, publishIDs []string) error {
	if err := e.guard(); err != nil {
		return err
	}
	params, err := e.registry.GetParams()
	if err != nil {
		return err
	}
	if params.ProtocolAdmin == "" || caller != params.ProtocolAdmin {
		return ErrUnauthorized
	}
	for _, id := range publishIDs {
		if err := e.assets.DeleteAsset(assets.AssetKey{ChannelID: channelID, PublishID: id}); err != nil {
			return fmt.Errorf("remove %s: %w", id, err)
		}
	}
	e.emit(events.AssetsRemoved{ChannelID: channelID, AssetIDs: publishIDs})
	return nil
}

// CreatePlaylist adds an empty playlist. Requires a publisher grade verdict.
func (e *Engine) CreatePlaylist(caller, channelID, name string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return err
	}
	if err := AssetNamePolicy.Validate(name); err != nil {
		return err
	}
	if err := e.assets.CreatePlaylist(channelID, name); err != nil {
		return err
	}
	e.emit(events.PlaylistCreated{ChannelID: channelID, PlaylistName: name})
	return nil
}

// DeletePlaylist removes a playlist; the default playlist is protected.
// Requires a publisher grade verdict.
func (e *Engine) DeletePlaylist(caller, channelID, name string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return err
	}
	if err := e.assets.DeletePlaylist(channelID, name); err != nil {
		return err
	}
	e.emit(events.PlaylistDeleted{ChannelID: channelID, PlaylistName: name})
	return nil
}

// AddPlaylistAsset inserts an existing, visible asset into a playlist.
// Requires a publisher grade verdict.
func (e *Engine) AddPlaylistAsset(caller, channelID, name, publishID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return err
	}
	key := assets.AssetKey{ChannelID: channelID, PublishID: publishID}
	asset, err := e.assets.GetAsset(key)
	if err != nil {
		return err
	}
	if !asset.IsVisible {
		return assets.ErrAssetNotVisible
	}
	if err := e.assets.AddPlaylistAsset(channelID, name, key); err != nil {
		return err
	}
	e.emit(events.PlaylistAssetAdded{ChannelID: channelID, PlaylistName: name, AssetID: publishID})
	return nil
}

// RemovePlaylistAsset drops an asset reference from a playlist. Requires a
// publisher grade verdict.
func (e *Engine) RemovePlaylistAsset(caller, channelID, name, publishID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return err
	}
	key := assets.AssetKey{ChannelID: channelID, PublishID: publishID}
	return e.assets.RemovePlaylistAsset(channelID, name, key)
}

// RefreshPlaylist prunes entries whose asset was unpublished or hidden and
// returns the removed keys. Requires a publisher grade verdict like the other
// playlist mutations.
func (e *Engine) RefreshPlaylist(caller, channelID, name string) ([]assets.AssetKey, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if err := e.authorize(channelID, caller, RolePublisher); err != nil {
		return nil, err
	}
	removed, err := e.assets.RefreshPlaylist(channelID, name)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		ids := make([]string, len(removed))
		for i, key := range removed {
			ids[i] = key.PublishID
		}
		e.emit(events.PlaylistRefreshed{ChannelID: channelID, PlaylistName: name, Removed: ids})
	}
	return removed, nil
}
