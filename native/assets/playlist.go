package assets

import (
	"errors"

	"channeld/core/state"
)

// CreatePlaylist registers an empty playlist for the channel. Names are unique
// per channel.
func (s *Store) CreatePlaylist(channelID, name string) error {
	key := playlistKey(channelID, name)
	ok, err := s.st.KVHas(key)
	if err != nil {
		return err
	}
	if ok {
		return ErrPlaylistAlreadyExists
	}
	playlist := Playlist{
		ChannelID: channelID,
		Name:      name,
		Assets:    []AssetKey{},
		CreatedAt: uint64(s.nowFn()),
	}
	return s.st.KVPut(key, playlist)
}

// GetPlaylist loads one playlist.
func (s *Store) GetPlaylist(channelID, name string) (Playlist, error) {
	var playlist Playlist
	ok, err := s.st.KVGet(playlistKey(channelID, name), &playlist)
	if err != nil {
		return Playlist{}, err
	}
	if !ok {
		return Playlist{}, ErrPlaylistNotFound
	}
	return playlist, nil
}

// DeletePlaylist removes a playlist. The channel's default playlist is
// protected.
func (s *Store) DeletePlaylist(channelID, name string) error {
	if name == DefaultPlaylistName {
		return ErrDefaultPlaylistProtected
	}
	key := playlistKey(channelID, name)
	ok, err := s.st.KVHas(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPlaylistNotFound
	}
	return s.st.KVDelete(key)
}

// AddPlaylistAsset appends the asset key to the playlist. Duplicates and
// insertions past the size bound are rejected. Asset existence and visibility
// are the caller's concern.
func (s *Store) AddPlaylistAsset(channelID, name string, asset AssetKey) error {
	playlist, err := s.GetPlaylist(channelID, name)
	if err != nil {
		return err
	}
	if playlist.Contains(asset) {
		return ErrAssetAlreadyInPlaylist
	}
	if len(playlist.Assets) >= MaxPlaylistEntries {
		return ErrPlaylistLimitReached
	}
	playlist.Assets = append(playlist.Assets, asset)
	return s.st.KVPut(playlistKey(channelID, name), playlist)
}

// RemovePlaylistAsset drops the asset key from the playlist, preserving the
// order of the remaining entries.
func (s *Store) RemovePlaylistAsset(channelID, name string, asset AssetKey) error {
	playlist, err := s.GetPlaylist(channelID, name)
	if err != nil {
		return err
	}
	for i, existing := range playlist.Assets {
		if existing == asset {
			playlist.Assets = append(playlist.Assets[:i], playlist.Assets[i+1:]...)
			return s.st.KVPut(playlistKey(channelID, name), playlist)
		}
	}
	return ErrAssetNotInPlaylist
}

// RefreshPlaylist drops entries whose asset no longer exists or is no longer
// visible, preserving the order of the survivors, and returns the removed
// keys. Only the named playlist is touched.
func (s *Store) RefreshPlaylist(channelID, name string) ([]AssetKey, error) {
	playlist, err := s.GetPlaylist(channelID, name)
	if err != nil {
		return nil, err
	}
	kept := make([]AssetKey, 0, len(playlist.Assets))
	removed := make([]AssetKey, 0)
	for _, key := range playlist.Assets {
		asset, err := s.GetAsset(key)
		if errors.Is(err, ErrAssetNotFound) {
			removed = append(removed, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !asset.IsVisible {
			removed = append(removed, key)
			continue
		}
		kept = append(kept, key)
	}
	if len(removed) == 0 {
		return removed, nil
	}
	playlist.Assets = kept
	if err := s.st.KVPut(playlistKey(channelID, name), playlist); err != nil {
		return nil, err
	}
	return removed, nil
}

// ListPlaylists returns the channel's playlists in ascending name order,
// starting strictly after startAfter when it is non-empty.
func (s *Store) ListPlaylists(channelID, startAfter string, limit uint32) ([]Playlist, error) {
	max := ClampLimit(limit)
	var start []byte
	if startAfter != "" {
		start = playlistKey(channelID, startAfter)
	}
	out := make([]Playlist, 0, max)
	err := s.st.KVIterate(channelPlaylistsPrefix(channelID), start, func(_, value []byte) (bool, error) {
		var playlist Playlist
		if err := state.DecodeValue(value, &playlist); err != nil {
			return false, err
		}
		out = append(out, playlist)
		return len(out) < max, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteChannelPlaylists removes every playlist under the channel and returns
// the number of deleted records.
func (s *Store) DeleteChannelPlaylists(channelID string) (int, error) {
	return s.st.KVDeletePrefix(channelPlaylistsPrefix(channelID))
}
