package assets

const (
	// DefaultPlaylistName is created with every channel and can never be
	// deleted.
	DefaultPlaylistName = "My Videos"
	// MaxPlaylistEntries bounds how many asset keys one playlist may hold.
	MaxPlaylistEntries = 100
	// DefaultPageSize is used when a list query does not request a limit.
	DefaultPageSize = 25
	// MaxPageSize clamps list queries; larger requests are truncated, never
	// honoured.
	MaxPageSize = 25
)

// Source kinds for published assets.
const (
	SourceOnft uint8 = iota + 1
	SourceOffChain
)

// AssetSource describes where the published media lives. Kind selects which
// fields are meaningful: an on-chain NFT reference carries CollectionID and
// TokenID, an off-chain source carries MediaURI.
type AssetSource struct {
	Kind         uint8
	CollectionID string
	TokenID      string
	MediaURI     string
}

// IsOnft reports whether the source references an on-chain token.
func (s AssetSource) IsOnft() bool { return s.Kind == SourceOnft }

// AssetKey uniquely identifies a published asset.
type AssetKey struct {
	ChannelID string
	PublishID string
}

// Asset is one published entry in a channel's catalog.
type Asset struct {
	ChannelID   string
	PublishID   string
	Name        string
	Description string
	Source      AssetSource
	IsVisible   bool
	Publisher   string
	CreatedAt   uint64
}

// Key returns the asset's composite key.
func (a Asset) Key() AssetKey {
	return AssetKey{ChannelID: a.ChannelID, PublishID: a.PublishID}
}

// Playlist is a named, insertion-ordered collection of asset keys belonging to
// one channel.
type Playlist struct {
	ChannelID string
	Name      string
	Assets    []AssetKey
	CreatedAt uint64
}

// Contains reports whether the playlist already references the asset key.
func (p Playlist) Contains(key AssetKey) bool {
	for _, existing := range p.Assets {
		if existing == key {
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
