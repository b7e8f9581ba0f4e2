package assets

import "errors"

var (
	ErrAssetNotFound            = errors.New("assets: asset not found")
	ErrAssetNotVisible          = errors.New("assets: asset not visible")
	ErrPlaylistNotFound         = errors.New("assets: playlist not found")
	ErrPlaylistAlreadyExists    = errors.New("assets: playlist already exists")
	ErrPlaylistLimitReached     = errors.New("assets: playlist entry limit reached")
	ErrAssetAlreadyInPlaylist   = errors.New("assets: asset already in playlist")
	ErrAssetNotInPlaylist       = errors.New("assets: asset not in playlist")
	ErrDefaultPlaylistProtected = errors.New("assets: default playlist cannot be deleted")
	ErrAlreadyFlagged           = errors.New("assets: asset already flagged by caller")
	ErrInvalidSource            = errors.New("assets: invalid asset source")
)
