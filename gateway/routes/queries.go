package routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"channeld/native/assets"
	"channeld/native/channel"
)

type queryRoutes struct {
	registry *channel.Registry
	store    *assets.Store
}

func (qr *queryRoutes) mount(r chi.Router) {
	r.Get("/channels", qr.listChannels)
	r.Get("/channels/{channelID}", qr.getChannel)
	r.Get("/channels/{channelID}/collaborators", qr.listCollaborators)
	r.Get("/channels/{channelID}/followers", qr.listFollowers)
	r.Get("/channels/{channelID}/assets", qr.listAssets)
	r.Get("/channels/{channelID}/assets/{publishID}", qr.getAsset)
	r.Get("/channels/{channelID}/playlists", qr.listPlaylists)
	r.Get("/channels/{channelID}/playlists/{name}", qr.getPlaylist)
	r.Get("/usernames/{userName}", qr.getChannelByUserName)
}

type channelResponse struct {
	ChannelID      string `json:"channelId"`
	UserName       string `json:"userName"`
	OnftID         string `json:"onftId"`
	PaymentAddress string `json:"paymentAddress"`
	ChannelName    string `json:"channelName"`
	Description    string `json:"description,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	BannerPicture  string `json:"bannerPicture,omitempty"`
	CreatedAt      uint64 `json:"createdAt"`
}

type collaboratorResponse struct {
	Address   string `json:"address"`
	Role      string `json:"role"`
	ShareBps  uint32 `json:"shareBps"`
	ExpiresAt uint64 `json:"expiresAt,omitempty"`
}

type followersResponse struct {
	Count     uint64   `json:"count"`
	Followers []string `json:"followers"`
}

type assetResponse struct {
	ChannelID   string `json:"channelId"`
	PublishID   string `json:"publishId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SourceKind  string `json:"sourceKind"`
	Collection  string `json:"collectionId,omitempty"`
	TokenID     string `json:"tokenId,omitempty"`
	MediaURI    string `json:"mediaUri,omitempty"`
	IsVisible   bool   `json:"isVisible"`
	Publisher   string `json:"publisher"`
	CreatedAt   uint64 `json:"createdAt"`
}

type playlistResponse struct {
	ChannelID string   `json:"channelId"`
	Name      string   `json:"name"`
	Assets    []string `json:"assets"`
	CreatedAt uint64   `json:"createdAt"`
}

func newChannelResponse(ch channel.Channel) channelResponse {
	return channelResponse{
		ChannelID:      ch.ChannelID,
		UserName:       ch.UserName,
		OnftID:         ch.OnftID,
		PaymentAddress: ch.PaymentAddress,
		ChannelName:    ch.Metadata.ChannelName,
		Description:    ch.Metadata.Description,
		ProfilePicture: ch.Metadata.ProfilePicture,
		BannerPicture:  ch.Metadata.BannerPicture,
		CreatedAt:      ch.CreatedAt,
	}
}

func newAssetResponse(a assets.Asset) assetResponse {
	resp := assetResponse{
		ChannelID:   a.ChannelID,
		PublishID:   a.PublishID,
		Name:        a.Name,
		Description: a.Description,
		IsVisible:   a.IsVisible,
		Publisher:   a.Publisher,
		CreatedAt:   a.CreatedAt,
	}
	switch a.Source.Kind {
	case assets.SourceOnft:
		resp.SourceKind = "onft"
		resp.Collection = a.Source.CollectionID
		resp.TokenID = a.Source.TokenID
	case assets.SourceOffChain:
		resp.SourceKind = "offchain"
		resp.MediaURI = a.Source.MediaURI
	}
	return resp
}

func newPlaylistResponse(pl assets.Playlist) playlistResponse {
	entries := make([]string, 0, len(pl.Assets))
	for _, key := range pl.Assets {
		entries = append(entries, key.PublishID)
	}
	return playlistResponse{
		ChannelID: pl.ChannelID,
		Name:      pl.Name,
		Assets:    entries,
		CreatedAt: pl.CreatedAt,
	}
}

func pageParams(r *http.Request) (string, uint32) {
	startAfter := strings.TrimSpace(r.URL.Query().Get("start_after"))
	var limit uint32
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			limit = uint32(parsed)
		}
	}
	return startAfter, limit
}

func (qr *queryRoutes) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, channel.ErrChannelNotFound),
		errors.Is(err, channel.ErrCollaboratorNotFound),
		errors.Is(err, assets.ErrAssetNotFound),
		errors.Is(err, assets.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (qr *queryRoutes) listChannels(w http.ResponseWriter, r *http.Request) {
	startAfter, limit := pageParams(r)
	channels, err := qr.registry.ListChannels(startAfter, limit)
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	out := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, newChannelResponse(ch))
	}
	writeJSON(w, http.StatusOK, out)
}

func (qr *queryRoutes) getChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := qr.registry.GetChannel(chi.URLParam(r, "channelID"))
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChannelResponse(ch))
}

func (qr *queryRoutes) getChannelByUserName(w http.ResponseWriter, r *http.Request) {
	ch, err := qr.registry.GetChannelByUserName(chi.URLParam(r, "userName"))
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChannelResponse(ch))
}

func (qr *queryRoutes) listCollaborators(w http.ResponseWriter, r *http.Request) {
	collabs, err := qr.registry.ListCollaborators(chi.URLParam(r, "channelID"))
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	out := make([]collaboratorResponse, 0, len(collabs))
	for _, collab := range collabs {
		out = append(out, collaboratorResponse{
			Address:   collab.Address,
			Role:      collab.Role.String(),
			ShareBps:  collab.ShareBps,
			ExpiresAt: collab.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (qr *queryRoutes) listFollowers(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	count, err := qr.registry.FollowersCount(channelID)
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	startAfter, limit := pageParams(r)
	followers, err := qr.registry.ListFollowers(channelID, startAfter, limit)
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followersResponse{Count: count, Followers: followers})
}

func (qr *queryRoutes) listAssets(w http.ResponseWriter, r *http.Request) {
	startAfter, limit := pageParams(r)
	list, err := qr.store.ListAssets(chi.URLParam(r, "channelID"), startAfter, limit)
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	out := make([]assetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAssetResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (qr *queryRoutes) getAsset(w http.ResponseWriter, r *http.Request) {
	key := assets.AssetKey{
		ChannelID: chi.URLParam(r, "channelID"),
		PublishID: chi.URLParam(r, "publishID"),
	}
	asset, err := qr.store.GetAsset(key)
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}

func (qr *queryRoutes) listPlaylists(w http.ResponseWriter, r *http.Request) {
	startAfter, limit := pageParams(r)
	list, err := qr.store.ListPlaylists(chi.URLParam(r, "channelID"), startAfter, limit)
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	out := make([]playlistResponse, 0, len(list))
	for _, pl := range list {
		out = append(out, newPlaylistResponse(pl))
	}
	writeJSON(w, http.StatusOK, out)
}

func (qr *queryRoutes) getPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, err := qr.store.GetPlaylist(chi.URLParam(r, "channelID"), chi.URLParam(r, "name"))
	if err != nil {
		qr.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlaylistResponse(pl))
}
