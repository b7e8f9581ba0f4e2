package channel

import (
	"errors"
	"fmt"
	"testing"

	"channeld/core/idgen"
	"channeld/core/state"
	"channeld/native/assets"
	nativecommon "channeld/native/common"
	"channeld/native/funds"
	"channeld/storage"
)

type pausedModules map[string]bool

func (p pausedModules) IsPaused(module string) bool { return p[module] }

type mockLedger struct {
	owners map[string]string
	err    error
}

func ledgerKey(collectionID, tokenID string) string { return collectionID + "/" + tokenID }

func (m *mockLedger) TokenOwner(collectionID, tokenID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	owner, ok := m.owners[ledgerKey(collectionID, tokenID)]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrOnftNotFound, collectionID, tokenID)
	}
	return owner, nil
}

type mockExecutor struct {
	minted []string
	burned []string
	sends  []funds.Transfer
}

func (m *mockExecutor) MintToken(collectionID, tokenID, owner string) error {
	m.minted = append(m.minted, ledgerKey(collectionID, tokenID)+"->"+owner)
	return nil
}

func (m *mockExecutor) BurnToken(collectionID, tokenID string) error {
	m.burned = append(m.burned, ledgerKey(collectionID, tokenID))
	return nil
}

func (m *mockExecutor) Send(recipient string, amount funds.Coin) error {
	m.sends = append(m.sends, funds.Transfer{Recipient: recipient, Amount: amount})
	return nil
}

type testEnv struct {
	engine *Engine
	ledger *mockLedger
	exec   *mockExecutor
	idCtx  idgen.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	registry := NewRegistry(mgr)
	store := assets.NewStore(mgr)
	ledger := &mockLedger{owners: make(map[string]string)}
	exec := &mockExecutor{}

	engine := NewEngine(registry, store, ledger)
	engine.SetExecutor(exec)
	engine.SetNowFunc(func() int64 { return 1700000000 })
	if err := engine.InitParams(Params{
		ChannelsCollectionID: "channels",
		ChannelCreationFee:   []funds.Coin{funds.NewCoin("uflix", 1_000_000)},
		ProtocolAdmin:        "protoadmin",
		FeeCollector:         "collector",
	}); err != nil {
		t.Fatalf("init params: %v", err)
	}
	return &testEnv{
		engine: engine,
		ledger: ledger,
		exec:   exec,
		idCtx:  idgen.Context{Height: 100, UnixNanos: 1700000000000000000, TxIndex: 0, Salt: []byte("seed")},
	}
}

// createChannel registers a channel for owner and records the minted token in
// the mock ledger, mirroring what the chain would do.
func (env *testEnv) createChannel(t *testing.T, owner, userName string) Channel {
	t.Helper()
	env.idCtx.TxIndex++
	ch, err := env.engine.CreateChannel(owner, userName, "", Metadata{ChannelName: "Chan" + userName},
		env.idCtx, []funds.Coin{funds.NewCoin("uflix", 1_000_000)})
	if err != nil {
		t.Fatalf("create channel %s: %v", userName, err)
	}
	env.ledger.owners[ledgerKey("channels", ch.OnftID)] = owner
	return ch
}

func (env *testEnv) publish(t *testing.T, caller, channelID, name string) assets.Asset {
	t.Helper()
	env.idCtx.TxIndex++
	env.ledger.owners[ledgerKey("media", "tok-"+name)] = caller
	asset, err := env.engine.PublishAsset(caller, PublishAssetInput{
		ChannelID: channelID,
		Name:      name,
		Source:    assets.AssetSource{Kind: assets.SourceOnft, CollectionID: "media", TokenID: "tok-" + name},
	}, env.idCtx)
	if err != nil {
		t.Fatalf("publish %s: %v", name, err)
	}
	return asset
}

func TestCreateChannelHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")

	if ch.ChannelID == "" || ch.OnftID == "" || ch.ChannelID == ch.OnftID {
		t.Fatalf("bad ids: %+v", ch)
	}
	if ch.PaymentAddress != "alice" {
		t.Fatalf("payment address should default to creator: %+v", ch)
	}
	if len(env.exec.minted) != 1 {
		t.Fatalf("ownership token not minted: %+v", env.exec.minted)
	}
	if len(env.exec.sends) != 1 || env.exec.sends[0].Recipient != "collector" {
		t.Fatalf("creation fee not forwarded: %+v", env.exec.sends)
	}
	// The default playlist exists and is empty.
	playlist, err := env.engine.Assets().GetPlaylist(ch.ChannelID, assets.DefaultPlaylistName)
	if err != nil || len(playlist.Assets) != 0 {
		t.Fatalf("default playlist missing: %+v %v", playlist, err)
	}
}

func TestCreateChannelPaymentMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.CreateChannel("alice", "alicechannel", "", Metadata{ChannelName: "Chan"},
		env.idCtx, []funds.Coin{funds.NewCoin("uflix", 999_999)})
	var payErr *funds.PaymentError
	if !errors.As(err, &payErr) {
		t.Fatalf("expected PaymentError, got %v", err)
	}
}

func TestCreateChannelValidation(t *testing.T) {
	env := newTestEnv(t)
	fee := []funds.Coin{funds.NewCoin("uflix", 1_000_000)}
	if _, err := env.engine.CreateChannel("alice", "Bad Name", "", Metadata{ChannelName: "Chan"}, env.idCtx, fee); err == nil {
		t.Fatalf("invalid username accepted")
	}
	if _, err := env.engine.CreateChannel("alice", "goodname", "", Metadata{ChannelName: "x"}, env.idCtx, fee); err == nil {
		t.Fatalf("invalid channel name accepted")
	}
}

func TestAuthorizationMatrix(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	for _, c := range []Collaborator{
		{Address: "pub", Role: RolePublisher, ShareBps: 100},
		{Address: "mod", Role: RoleModerator, ShareBps: 100},
		{Address: "adm", Role: RoleAdmin, ShareBps: 100},
	} {
		if err := env.engine.AddCollaborator("alice", ch.ChannelID, c); err != nil {
			t.Fatalf("add %s: %v", c.Address, err)
		}
	}

	cases := []struct {
		caller   string
		required Role
		allowed  bool
	}{
		{"alice", RoleAdmin, true},
		{"alice", RoleModerator, true},
		{"alice", RolePublisher, true},
		{"adm", RoleAdmin, true},
		{"mod", RoleAdmin, false},
		{"mod", RoleModerator, true},
		{"mod", RolePublisher, true},
		{"pub", RolePublisher, true},
		{"pub", RoleModerator, false},
		{"stranger", RolePublisher, false},
	}
	for _, c := range cases {
		err := env.engine.authorize(ch.ChannelID, c.caller, c.required)
		if c.allowed && err != nil {
			t.Fatalf("%s should pass %s check: %v", c.caller, c.required, err)
		}
		if !c.allowed && !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s should be denied %s with ErrUnauthorized, got %v", c.caller, c.required, err)
		}
	}
}

func TestExpiredCollaboratorDenied(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	err := env.engine.AddCollaborator("alice", ch.ChannelID, Collaborator{
		Address: "temp", Role: RoleAdmin, ExpiresAt: 1700000001,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.engine.authorize(ch.ChannelID, "temp", RolePublisher); err != nil {
		t.Fatalf("grant should still be live: %v", err)
	}
	env.engine.SetNowFunc(func() int64 { return 1700000002 })
	if err := env.engine.authorize(ch.ChannelID, "temp", RolePublisher); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired grant should be denied, got %v", err)
	}
}

func TestOwnershipTransferMovesAdminRights(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	// The token moves hands on the external ledger.
	env.ledger.owners[ledgerKey("channels", ch.OnftID)] = "buyer"

	if err := env.engine.authorize(ch.ChannelID, "alice", RolePublisher); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("previous owner should lose access, got %v", err)
	}
	if err := env.engine.authorize(ch.ChannelID, "buyer", RoleAdmin); err != nil {
		t.Fatalf("token holder should pass: %v", err)
	}
}

func TestLedgerOutagePropagates(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	outage := errors.New("rpc timeout")
	env.ledger.err = outage
	err := env.engine.authorize(ch.ChannelID, "alice", RoleAdmin)
	if !errors.Is(err, outage) {
		t.Fatalf("transport error must propagate, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("outage must not read as a denial")
	}
}

func TestCollaboratorOpsOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	if err := env.engine.AddCollaborator("alice", ch.ChannelID, Collaborator{Address: "adm", Role: RoleAdmin}); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Even an admin collaborator cannot manage collaborators.
	err := env.engine.AddCollaborator("adm", ch.ChannelID, Collaborator{Address: "other", Role: RolePublisher})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected owner-only, got %v", err)
	}
	if err := env.engine.RemoveCollaborator("adm", ch.ChannelID, "adm"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected owner-only removal, got %v", err)
	}
}

func TestTipChannelWaterfall(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	err := env.engine.AddCollaborator("alice", ch.ChannelID, Collaborator{
		Address: "bob", Role: RoleModerator, ShareBps: 3000,
	})
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}
	env.exec.sends = nil

	tip := funds.NewCoin("uflix", 100_000)
	transfers, err := env.engine.TipChannel("fan", ch.ChannelID, tip, []funds.Coin{tip.Clone()})
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 payouts, got %+v", transfers)
	}
	if transfers[0].Recipient != "bob" || transfers[0].Amount.Amount.Int64() != 30_000 {
		t.Fatalf("bob payout wrong: %+v", transfers[0])
	}
	if transfers[1].Recipient != "alice" || transfers[1].Amount.Amount.Int64() != 70_000 {
		t.Fatalf("owner payout wrong: %+v", transfers[1])
	}
	if len(env.exec.sends) != 2 {
		t.Fatalf("transfers not executed: %+v", env.exec.sends)
	}
}

func TestTipChannelRejectsMismatch(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	tip := funds.NewCoin("uflix", 100_000)
	_, err := env.engine.TipChannel("fan", ch.ChannelID, tip, []funds.Coin{funds.NewCoin("uflix", 90_000)})
	var payErr *funds.PaymentError
	if !errors.As(err, &payErr) {
		t.Fatalf("expected PaymentError, got %v", err)
	}
}

func TestTipChannelDenomAcceptList(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	if err := env.engine.AdminUpdateParams("protoadmin", Params{
		ChannelsCollectionID: "channels",
		ChannelCreationFee:   []funds.Coin{funds.NewCoin("uflix", 1_000_000)},
		AcceptedTipDenoms:    []string{"uflix"},
		ProtocolAdmin:        "protoadmin",
		FeeCollector:         "collector",
	}); err != nil {
		t.Fatalf("update params: %v", err)
	}
	tip := funds.NewCoin("uatom", 100)
	if _, err := env.engine.TipChannel("fan", ch.ChannelID, tip, []funds.Coin{tip.Clone()}); !errors.Is(err, ErrTipDenomNotAccepted) {
		t.Fatalf("expected denom rejection, got %v", err)
	}
}

func TestPublishUnpublishRefreshScenario(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	assetX := env.publish(t, "alice", ch.ChannelID, "Clip X")

	for _, name := range []string{"Playlist P", "Playlist Q"} {
		if err := env.engine.CreatePlaylist("alice", ch.ChannelID, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if err := env.engine.AddPlaylistAsset("alice", ch.ChannelID, name, assetX.PublishID); err != nil {
			t.Fatalf("add asset to %s: %v", name, err)
		}
	}

	if err := env.engine.UnpublishAsset("alice", ch.ChannelID, assetX.PublishID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if _, err := env.engine.RefreshPlaylist("stranger", ch.ChannelID, "Playlist P"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger refresh: want ErrUnauthorized, got %v", err)
	}
	removed, err := env.engine.RefreshPlaylist("alice", ch.ChannelID, "Playlist P")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(removed) != 1 || removed[0] != assetX.Key() {
		t.Fatalf("removed set wrong: %+v", removed)
	}
	p, err := env.engine.Assets().GetPlaylist(ch.ChannelID, "Playlist P")
	if err != nil || len(p.Assets) != 0 {
		t.Fatalf("P not pruned: %+v %v", p, err)
	}
	q, err := env.engine.Assets().GetPlaylist(ch.ChannelID, "Playlist Q")
	if err != nil || len(q.Assets) != 1 {
		t.Fatalf("Q should be untouched: %+v %v", q, err)
	}
}

func TestPublishRequiresSourceOwnership(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	env.ledger.owners[ledgerKey("media", "tok1")] = "someoneelse"
	_, err := env.engine.PublishAsset("alice", PublishAssetInput{
		ChannelID: ch.ChannelID,
		Name:      "Stolen Clip",
		Source:    assets.AssetSource{Kind: assets.SourceOnft, CollectionID: "media", TokenID: "tok1"},
	}, env.idCtx)
	if !errors.Is(err, ErrOnftNotOwned) {
		t.Fatalf("expected not-owned, got %v", err)
	}
	_, err = env.engine.PublishAsset("alice", PublishAssetInput{
		ChannelID: ch.ChannelID,
		Name:      "Ghost Clip",
		Source:    assets.AssetSource{Kind: assets.SourceOnft, CollectionID: "media", TokenID: "missing"},
	}, env.idCtx)
	if !errors.Is(err, ErrOnftNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeleteChannelCascades(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	for i := 0; i < 3; i++ {
		env.publish(t, "alice", ch.ChannelID, fmt.Sprintf("Clip %d", i))
	}
	if err := env.engine.CreatePlaylist("alice", ch.ChannelID, "Extra List"); err != nil {
		t.Fatalf("playlist: %v", err)
	}

	if err := env.engine.DeleteChannel("stranger", ch.ChannelID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger delete should fail, got %v", err)
	}
	if err := env.engine.DeleteChannel("alice", ch.ChannelID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := env.engine.Registry().GetChannel(ch.ChannelID); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("channel survived: %v", err)
	}
	residualAssets, err := env.engine.Assets().ListAssets(ch.ChannelID, "", 0)
	if err != nil || len(residualAssets) != 0 {
		t.Fatalf("residual assets: %+v %v", residualAssets, err)
	}
	residualPlaylists, err := env.engine.Assets().ListPlaylists(ch.ChannelID, "", 0)
	if err != nil || len(residualPlaylists) != 0 {
		t.Fatalf("residual playlists: %+v %v", residualPlaylists, err)
	}
	if len(env.exec.burned) != 1 {
		t.Fatalf("ownership token not burned: %+v", env.exec.burned)
	}
}

func TestPausedModuleRejectsMutations(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	env.engine.SetPauses(pausedModules{nativecommon.ModuleChannel: true})

	if _, err := env.engine.CreateChannel("bob", "bobchannel", "", Metadata{ChannelName: "Chan"}, env.idCtx, nil); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := env.engine.Follow("fan", ch.ChannelID); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	tip := funds.NewCoin("uflix", 1)
	if _, err := env.engine.TipChannel("fan", ch.ChannelID, tip, []funds.Coin{tip.Clone()}); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
}

func TestFollowUnfollowViaEngine(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	if err := env.engine.Follow("fan", ch.ChannelID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := env.engine.Follow("fan", ch.ChannelID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Fatalf("expected already following, got %v", err)
	}
	if err := env.engine.Unfollow("fan", ch.ChannelID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	count, err := env.engine.Registry().FollowersCount(ch.ChannelID)
	if err != nil || count != 0 {
		t.Fatalf("count: %d %v", count, err)
	}
}

func TestFlagAssetQuota(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	env.engine.SetFlagQuota(nativecommon.Quota{MaxRequestsPerEpoch: 2, EpochSeconds: 3600})
	a := env.publish(t, "alice", ch.ChannelID, "Clip A")
	b := env.publish(t, "alice", ch.ChannelID, "Clip B")
	c := env.publish(t, "alice", ch.ChannelID, "Clip C")

	if _, err := env.engine.FlagAsset("fan", ch.ChannelID, a.PublishID); err != nil {
		t.Fatalf("flag a: %v", err)
	}
	if _, err := env.engine.FlagAsset("fan", ch.ChannelID, b.PublishID); err != nil {
		t.Fatalf("flag b: %v", err)
	}
	if _, err := env.engine.FlagAsset("fan", ch.ChannelID, c.PublishID); !errors.Is(err, nativecommon.ErrQuotaRequestsExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	// A new epoch resets the window.
	env.engine.SetNowFunc(func() int64 { return 1700000000 + 3600 })
	if _, err := env.engine.FlagAsset("fan", ch.ChannelID, c.PublishID); err != nil {
		t.Fatalf("flag after rollover: %v", err)
	}
}

func TestAdminRemoveAssets(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	a := env.publish(t, "alice", ch.ChannelID, "Clip A")
	b := env.publish(t, "alice", ch.ChannelID, "Clip B")

	err := env.engine.AdminRemoveAssets("alice", ch.ChannelID, []string{a.PublishID})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("channel owner is not protocol admin, got %v", err)
	}
	if err := env.engine.AdminRemoveAssets("protoadmin", ch.ChannelID, []string{a.PublishID, b.PublishID}); err != nil {
		t.Fatalf("admin removal: %v", err)
	}
	left, err := env.engine.Assets().ListAssets(ch.ChannelID, "", 0)
	if err != nil || len(left) != 0 {
		t.Fatalf("assets survived: %+v %v", left, err)
	}
}

func TestAdminManageReservedUsernames(t *testing.T) {
	env := newTestEnv(t)
	add := []ReservedUsername{{UserName: "premium", Address: "vip"}}
	if err := env.engine.AdminManageReservedUsernames("stranger", add, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected admin-only, got %v", err)
	}
	if err := env.engine.AdminManageReservedUsernames("protoadmin", add, nil); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := env.engine.CreateChannel("stranger", "premium", "", Metadata{ChannelName: "Chan"},
		env.idCtx, []funds.Coin{funds.NewCoin("uflix", 1_000_000)}); !errors.Is(err, ErrUserNameReserved) {
		t.Fatalf("expected reservation to block, got %v", err)
	}
	if err := env.engine.AdminManageReservedUsernames("protoadmin", nil, []string{"premium"}); err != nil {
		t.Fatalf("lift reservation: %v", err)
	}
	env.createChannel(t, "stranger", "premium")
}

func TestUpdateChannelDetails(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	err := env.engine.UpdateChannelDetails("alice", ch.ChannelID, "newpay", Metadata{
		ChannelName: "Renamed",
		Description: "Fresh description",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := env.engine.Registry().GetChannel(ch.ChannelID)
	if err != nil || got.Metadata.ChannelName != "Renamed" || got.PaymentAddress != "newpay" {
		t.Fatalf("update not applied: %+v %v", got, err)
	}
	if err := env.engine.UpdateChannelDetails("stranger", ch.ChannelID, "", Metadata{ChannelName: "Hijack"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected denial, got %v", err)
	}
}

func TestSetAssetVisibilityRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	ch := env.createChannel(t, "alice", "alicechannel")
	asset := env.publish(t, "alice", ch.ChannelID, "Some Clip")
	if err := env.engine.AddCollaborator("alice", ch.ChannelID, Collaborator{Address: "pub", Role: RolePublisher}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.engine.SetAssetVisibility("pub", ch.ChannelID, asset.PublishID, false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("publisher should not moderate, got %v", err)
	}
	if err := env.engine.SetAssetVisibility("alice", ch.ChannelID, asset.PublishID, false); err != nil {
		t.Fatalf("owner moderation: %v", err)
	}
	// Hidden assets cannot be added to playlists.
	if err := env.engine.CreatePlaylist("alice", ch.ChannelID, "Late List"); err != nil {
		t.Fatalf("playlist: %v", err)
	}
	err := env.engine.AddPlaylistAsset("alice", ch.ChannelID, "Late List", asset.PublishID)
	if !errors.Is(err, assets.ErrAssetNotVisible) {
		t.Fatalf("expected visibility rejection, got %v", err)
	}
}
