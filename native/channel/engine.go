package channel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"channeld/core/events"
	"channeld/core/idgen"
	"channeld/native/assets"
	nativecommon "channeld/native/common"
	"channeld/native/funds"
)

var (
	errNilRegistry = errors.New("channel engine: registry not configured")
	errNilAssets   = errors.New("channel engine: asset store not configured")
	errNilLedger   = errors.New("channel engine: ownership ledger not configured")
)

// Identifier prefixes minted by the engine. Distinct prefixes keep ids derived
// from the same entropy context from colliding.
const (
	channelIDPrefix = "channel"
	onftIDPrefix    = "onft"
	publishIDPrefix = "publish"
)

// LedgerExecutor receives the side effects an operation produced: transfer
// instructions for distributed funds and mint/burn instructions for ownership
// tokens. Implementations talk to the chain; tests record the calls.
type LedgerExecutor interface {
	MintToken(collectionID, tokenID, owner string) error
	BurnToken(collectionID, tokenID string) error
	Send(recipient string, amount funds.Coin) error
}

type noopExecutor struct{}

func (noopExecutor) MintToken(string, string, string) error { return nil }
func (noopExecutor) BurnToken(string, string) error         { return nil }
func (noopExecutor) Send(string, funds.Coin) error          { return nil }

// Engine wires registry business logic with persistence, authorization, fund
// distribution and event emission.
type Engine struct {
	registry *Registry
	assets   *assets.Store
	ledger   OwnershipLedger
	exec     LedgerExecutor
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	nowFn    func() int64

	flagQuota nativecommon.Quota
	flagMu    sync.Mutex
	flagUsage map[string]nativecommon.QuotaNow
}

// NewEngine constructs a channel engine with default dependencies.
func NewEngine(registry *Registry, store *assets.Store, ledger OwnershipLedger) *Engine {
	return &Engine{
		registry:  registry,
		assets:    store,
		ledger:    ledger,
		exec:      noopExecutor{},
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		flagQuota: nativecommon.Quota{MaxRequestsPerEpoch: 30, EpochSeconds: 3600},
		flagUsage: make(map[string]nativecommon.QuotaNow),
	}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetExecutor configures where mint, burn and transfer instructions go.
func (e *Engine) SetExecutor(exec LedgerExecutor) {
	if exec == nil {
		e.exec = noopExecutor{}
		return
	}
	e.exec = exec
}

// SetPauses configures the pause view consulted before every mutation.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetFlagQuota overrides the per-address flag submission quota.
func (e *Engine) SetFlagQuota(q nativecommon.Quota) { e.flagQuota = q }

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
	if e.registry != nil {
		e.registry.SetNowFunc(now)
	}
	if e.assets != nil {
		e.assets.SetNowFunc(now)
	}
}

func (e *Engine) ready() error {
	if e.registry == nil {
		return errNilRegistry
	}
	if e.assets == nil {
		return errNilAssets
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) guard() error {
	if err := e.ready(); err != nil {
		return err
	}
	return nativecommon.Guard(e.pauses, nativecommon.ModuleChannel)
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Registry exposes the underlying registry for read-only queries.
func (e *Engine) Registry() *Registry { return e.registry }

// Assets exposes the underlying asset store for read-only queries.
func (e *Engine) Assets() *assets.Store { return e.assets }

// InitParams seeds the registry configuration. Meant for genesis wiring; once
// a protocol admin is set, changes go through AdminUpdateParams.
func (e *Engine) InitParams(p Params) error {
	if err := e.ready(); err != nil {
		return err
	}
	existing, err := e.registry.GetParams()
	if err != nil {
		return err
	}
	if existing.ProtocolAdmin != "" {
		return ErrUnauthorized
	}
	if p.ProtocolAdmin == "" {
		return fmt.Errorf("%w: protocol admin required", ErrInvalidAddress)
	}
	if p.FeeCollector == "" {
		p.FeeCollector = p.ProtocolAdmin
	}
	return e.registry.SetParams(p)
}

// AdminUpdateParams replaces the registry configuration. Only the current
// protocol admin may call it.
func (e *Engine) AdminUpdateParams(caller string, p Params) error {
	if err := e.guard(); err != nil {
		return err
	}
	current, err := e.registry.GetParams()
	if err != nil {
		return err
	}
	if current.ProtocolAdmin == "" || caller != current.ProtocolAdmin {
		return ErrUnauthorized
	}
	if p.ProtocolAdmin == "" {
		p.ProtocolAdmin = current.ProtocolAdmin
	}
	if p.FeeCollector == "" {
		p.FeeCollector = p.ProtocolAdmin
	}
	if err := e.registry.SetParams(p); err != nil {
		return err
	}
	e.emit(events.ConfigUpdated{Admin: caller})
	return nil
}

// CreateChannel registers a channel for creator, mints its ownership token and
// creates the default playlist. The attached payment must equal the configured
// creation fee exactly; the fee is forwarded to the fee collector.
func (e *Engine) CreateChannel(creator, userName, paymentAddress string, md Metadata, idCtx idgen.Context, payment []funds.Coin) (Channel, error) {
	if err := e.guard(); err != nil {
		return Channel{}, err
	}
	if creator == "" {
		return Channel{}, ErrInvalidAddress
	}
	if err := UserNamePolicy.Validate(userName); err != nil {
		return Channel{}, err
	}
	if err := ValidateMetadata(md); err != nil {
		return Channel{}, err
	}
	params, err := e.registry.GetParams()
	if err != nil {
		return Channel{}, err
	}
	if err := funds.CheckPayment(params.ChannelCreationFee, payment); err != nil {
		return Channel{}, err
	}
	if paymentAddress == "" {
		paymentAddress = creator
	}

	ch := Channel{
		ChannelID:      idgen.Generate(channelIDPrefix, idCtx),
		UserName:       userName,
		OnftID:         idgen.Generate(onftIDPrefix, idCtx),
		PaymentAddress: paymentAddress,
		Metadata:       md,
	}
	if err := e.registry.CreateChannel(ch, creator); err != nil {
		return Channel{}, err
	}
	if err := e.assets.CreatePlaylist(ch.ChannelID, assets.DefaultPlaylistName); err != nil {
		return Channel{}, err
	}
	if err := e.exec.MintToken(params.ChannelsCollectionID, ch.OnftID, creator); err != nil {
		return Channel{}, err
	}
	for _, fee := range funds.Normalize(params.ChannelCreationFee) {
		if err := e.exec.Send(params.FeeCollector, fee); err != nil {
			return Channel{}, err
		}
	}
	e.emit(events.ChannelCreated{
		ChannelID: ch.ChannelID,
		UserName:  ch.UserName,
		Creator:   creator,
		TokenID:   ch.OnftID,
	})
	return ch, nil
}

// UpdateChannelDetails rewrites the channel's descriptive fields and payment
// address. Requires an admin grade verdict.
func (e *Engine) UpdateChannelDetails(caller, channelID, paymentAddress string, md Metadata) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorize(channelID, caller, RoleAdmin); err != nil {
		return err
	}
	if err := ValidateMetadata(md); err != nil {
		return err
	}
	ch, err := e.registry.GetChannel(channelID)
	if err != nil {
		return err
	}
	ch.Metadata = md
	if paymentAddress != "" {
		ch.PaymentAddress = paymentAddress
	}
	if err := e.registry.PutChannel(ch); err != nil {
		return err
	}
	e.emit(events.ChannelUpdated{ChannelID: channelID, Actor: caller})
	return nil
}

// DeleteChannel removes the channel with every asset and playlist under it and
// burns the ownership token. Only the token holder passes the check.
func (e *Engine) DeleteChannel(caller, channelID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorizeOwner(channelID, caller); err != nil {
		return err
	}
	ch, err := e.registry.GetChannel(channelID)
	if err != nil {
		return err
	}
	assetsRemoved, err := e.assets.DeleteChannelAssets(channelID)
	if err != nil {
		return err
	}
	playlistsRemoved, err := e.assets.DeleteChannelPlaylists(channelID)
	if err != nil {
		return err
	}
	if err := e.registry.DeleteChannel(channelID); err != nil {
		return err
	}
	params, err := e.registry.GetParams()
	if err != nil {
		return err
	}
	if err := e.exec.BurnToken(params.ChannelsCollectionID, ch.OnftID); err != nil {
		return err
	}
	e.emit(events.ChannelDeleted{
		ChannelID:        channelID,
		UserName:         ch.UserName,
		AssetsRemoved:    assetsRemoved,
		PlaylistsRemoved: playlistsRemoved,
	})
	return nil
}

// authorizeOwner passes only for the current holder of the channel's ownership
// token. Collaborator grants do not apply.
func (e *Engine) authorizeOwner(channelID, caller string) error {
	ch, err := e.registry.GetChannel(channelID)
	if err != nil {
		return err
	}
	params, err := e.registry.GetParams()
	if err != nil {
		return err
	}
	owner, err := e.ledger.TokenOwner(params.ChannelsCollectionID, ch.OnftID)
	if err != nil {
		if errors.Is(err, ErrOnftNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("channel: ownership lookup: %w", err)
	}
	if owner != caller {
		return ErrUnauthorized
	}
	return nil
}

// AddCollaborator grants an address a role and revenue share. Owner only.
func (e *Engine) AddCollaborator(caller, channelID string, collab Collaborator) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorizeOwner(channelID, caller); err != nil {
		return err
	}
	if collab.Address == "" {
		return ErrInvalidAddress
	}
	if err := e.registry.AddCollaborator(channelID, collab); err != nil {
		return err
	}
	e.emit(events.CollaboratorAdded{
		ChannelID: channelID,
		Address:   collab.Address,
		Role:      collab.Role.String(),
		ShareBps:  collab.ShareBps,
	})
	return nil
}

// UpdateCollaborator rewrites an existing grant in place. Owner only.
func (e *Engine) UpdateCollaborator(caller, channelID string, collab Collaborator) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorizeOwner(channelID, caller); err != nil {
		return err
	}
	if err := e.registry.UpdateCollaborator(channelID, collab); err != nil {
		return err
	}
	e.emit(events.CollaboratorUpdated{
		ChannelID: channelID,
		Address:   collab.Address,
		Role:      collab.Role.String(),
		ShareBps:  collab.ShareBps,
	})
	return nil
}

// RemoveCollaborator revokes a grant. Owner only.
func (e *Engine) RemoveCollaborator(caller, channelID, address string) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.authorizeOwner(channelID, caller); err != nil {
		return err
	}
	if err := e.registry.RemoveCollaborator(channelID, address); err != nil {
		return err
	}
	e.emit(events.CollaboratorRemoved{ChannelID: channelID, Address: address})
	return nil
}

// Follow records caller as a follower of the channel.
func (e *Engine) Follow(caller, channelID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	count, err := e.registry.Follow(channelID, caller)
	if err != nil {
		return err
	}
	e.emit(events.FollowerAdded{ChannelID: channelID, Follower: caller, Count: count})
	return nil
}

// Unfollow removes caller from the channel's followers.
func (e *Engine) Unfollow(caller, channelID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	count, err := e.registry.Unfollow(channelID, caller)
	if err != nil {
		return err
	}
	e.emit(events.FollowerRemoved{ChannelID: channelID, Follower: caller, Count: count})
	return nil
}

// TipChannel splits an exact attached payment across the channel's
// collaborators in grant order, with the remainder going to the channel's
// payment address. Any caller may tip.
func (e *Engine) TipChannel(caller, channelID string, tip funds.Coin, attached []funds.Coin) ([]funds.Transfer, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	ch, err := e.registry.GetChannel(channelID)
	if err != nil {
		return nil, err
	}
	params, err := e.registry.GetParams()
	if err != nil {
		return nil, err
	}
	if !params.TipDenomAccepted(tip.Denom) {
		return nil, fmt.Errorf("%w: %s", ErrTipDenomNotAccepted, tip.Denom)
	}
	if err := funds.CheckPayment([]funds.Coin{tip}, attached); err != nil {
		return nil, err
	}
	collabs, err := e.registry.ListCollaborators(channelID)
	if err != nil {
		return nil, err
	}
	now := e.nowFn()
	holders := make([]funds.ShareHolder, 0, len(collabs))
	for _, c := range collabs {
		if c.Expired(now) {
			continue
		}
		holders = append(holders, funds.ShareHolder{Address: c.Address, ShareBps: c.ShareBps})
	}
	transfers, err := funds.Distribute(tip, holders, ch.PaymentAddress)
	if err != nil {
		return nil, err
	}
	for _, t := range transfers {
		if err := e.exec.Send(t.Recipient, t.Amount); err != nil {
			return nil, err
		}
	}
	e.emit(events.ChannelTipped{
		ChannelID: channelID,
		Sender:    caller,
		Denom:     tip.Denom,
		Amount:    tip.Amount.String(),
		Payouts:   len(transfers),
	})
	return transfers, nil
}

// AdminManageReservedUsernames adds and removes reserved usernames. Protocol
// admin only.
func (e *Engine) AdminManageReservedUsernames(caller string, add []ReservedUsername, remove []string) error {
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
	if err := e.registry.ReserveUserNames(add); err != nil {
		return err
	}
	return e.registry.RemoveReservedUserNames(remove)
}
