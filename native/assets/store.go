package assets

import (
	"time"

	"channeld/core/state"
)

// stateStore abstracts the subset of state manager functionality required by
// the asset and playlist stores.
type stateStore interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVHas(key []byte) (bool, error)
	KVDelete(key []byte) error
	KVIterate(prefix []byte, start []byte, fn func(key, value []byte) (bool, error)) error
	KVDeletePrefix(prefix []byte) (int, error)
}

var _ stateStore = (*state.Manager)(nil)

var (
	assetPrefix     = []byte("assets/record/")
	playlistPrefix  = []byte("assets/playlist/")
	flagPrefix      = []byte("assets/flag/mark/")
	flagCountPrefix = []byte("assets/flag/count/")
)

func assetKey(channelID, publishID string) []byte {
	return state.CompositeKey(assetPrefix, []byte(channelID), []byte(publishID))
}

func channelAssetsPrefix(channelID string) []byte {
	return state.CompositeKey(assetPrefix, []byte(channelID), nil)
}

func playlistKey(channelID, name string) []byte {
	return state.CompositeKey(playlistPrefix, []byte(channelID), []byte(name))
}

func channelPlaylistsPrefix(channelID string) []byte {
	return state.CompositeKey(playlistPrefix, []byte(channelID), nil)
}

func flagMarkKey(key AssetKey, flagger string) []byte {
	return state.CompositeKey(flagPrefix, []byte(key.ChannelID), []byte(key.PublishID), []byte(flagger))
}

func flagCountKey(key AssetKey) []byte {
	return state.CompositeKey(flagCountPrefix, []byte(key.ChannelID), []byte(key.PublishID))
}

// Store persists assets, playlists and moderation flags.
type Store struct {
	st    stateStore
	nowFn func() int64
}

// NewStore constructs a store bound to the provided state backend.
func NewStore(st stateStore) *Store {
	return &Store{
		st:    st,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the wall clock used for record timestamps. Primarily
// leveraged in tests to provide deterministic timestamps.
func (s *Store) SetNowFunc(now func() int64) {
	if now != nil {
		s.nowFn = now
	}
}

// PutAsset writes the asset record, stamping CreatedAt on first insert.
func (s *Store) PutAsset(asset Asset) error {
	if asset.Source.Kind != SourceOnft && asset.Source.Kind != SourceOffChain {
		return ErrInvalidSource
	}
	if asset.CreatedAt == 0 {
		asset.CreatedAt = uint64(s.nowFn())
	}
	return s.st.KVPut(assetKey(asset.ChannelID, asset.PublishID), asset)
}

// GetAsset loads one asset record.
func (s *Store) GetAsset(key AssetKey) (Asset, error) {
	var asset Asset
	ok, err := s.st.KVGet(assetKey(key.ChannelID, key.PublishID), &asset)
	if err != nil {
		return Asset{}, err
	}
	if !ok {
		return Asset{}, ErrAssetNotFound
	}
	return asset, nil
}

// HasAsset reports whether the asset record exists.
func (s *Store) HasAsset(key AssetKey) (bool, error) {
	return s.st.KVHas(assetKey(key.ChannelID, key.PublishID))
}

// DeleteAsset removes one asset record together with its flag bookkeeping.
// Playlists referencing the asset are left untouched; Refresh prunes them.
func (s *Store) DeleteAsset(key AssetKey) error {
	ok, err := s.st.KVHas(assetKey(key.ChannelID, key.PublishID))
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if err := s.st.KVDelete(assetKey(key.ChannelID, key.PublishID)); err != nil {
		return err
	}
	if err := s.st.KVDelete(flagCountKey(key)); err != nil {
		return err
	}
	_, err = s.st.KVDeletePrefix(state.CompositeKey(flagPrefix, []byte(key.ChannelID), []byte(key.PublishID), nil))
	return err
}

// ListAssets returns assets for the channel in ascending publish id order,
// starting strictly after startAfter when it is non-empty. The limit is
// clamped to the served maximum.
func (s *Store) ListAssets(channelID, startAfter string, limit uint32) ([]Asset, error) {
	max := ClampLimit(limit)
	var start []byte
	if startAfter != "" {
		start = assetKey(channelID, startAfter)
	}
	out := make([]Asset, 0, max)
	err := s.st.KVIterate(channelAssetsPrefix(channelID), start, func(_, value []byte) (bool, error) {
		var asset Asset
		if err := state.DecodeValue(value, &asset); err != nil {
			return false, err
		}
		out = append(out, asset)
		return len(out) < max, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteChannelAssets removes every asset, flag mark and flag counter under
// the channel and returns the number of deleted asset records.
func (s *Store) DeleteChannelAssets(channelID string) (int, error) {
	removed, err := s.st.KVDeletePrefix(channelAssetsPrefix(channelID))
	if err != nil {
		return 0, err
	}
	if _, err := s.st.KVDeletePrefix(state.CompositeKey(flagPrefix, []byte(channelID), nil)); err != nil {
		return 0, err
	}
	if _, err := s.st.KVDeletePrefix(state.CompositeKey(flagCountPrefix, []byte(channelID), nil)); err != nil {
		return 0, err
	}
	return removed, nil
}

// FlagAsset records a moderation flag from flagger against the asset. Each
// address may flag a given asset once. Returns the updated flag count.
func (s *Store) FlagAsset(key AssetKey, flagger string) (uint64, error) {
	if ok, err := s.st.KVHas(assetKey(key.ChannelID, key.PublishID)); err != nil {
		return 0, err
	} else if !ok {
		return 0, ErrAssetNotFound
	}
	mark := flagMarkKey(key, flagger)
	if ok, err := s.st.KVHas(mark); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrAlreadyFlagged
	}
	if err := s.st.KVPut(mark, true); err != nil {
		return 0, err
	}
	var count uint64
	if _, err := s.st.KVGet(flagCountKey(key), &count); err != nil {
		return 0, err
	}
	count++
	if err := s.st.KVPut(flagCountKey(key), count); err != nil {
		return 0, err
	}
	return count, nil
}

// FlagCount returns how many distinct addresses have flagged the asset.
func (s *Store) FlagCount(key AssetKey) (uint64, error) {
	var count uint64
	if _, err := s.st.KVGet(flagCountKey(key), &count); err != nil {
		return 0, err
	}
	return count, nil
}
