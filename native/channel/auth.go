package channel

import (
	"errors"
	"fmt"
)

// OwnershipLedger is the external NFT ledger consulted for channel ownership.
// TokenOwner returns the current holder of the token, ErrOnftNotFound when the
// token does not exist, or a transport error when the ledger could not be
// reached.
type OwnershipLedger interface {
	TokenOwner(collectionID, tokenID string) (string, error)
}

// authorize answers whether caller may perform an action requiring the given
// role on the channel. The current holder of the channel's ownership token
// passes every check. Otherwise the caller needs an unexpired collaborator
// grant whose role covers the requirement. Every denial collapses to
// ErrUnauthorized; ledger transport failures propagate unchanged so an outage
// never reads as a grant or a denial.
func (e *Engine) authorize(channelID, caller string, required Role) error {
	ch, err := e.registry.GetChannel(channelID)
	if err != nil {
		return err
	}
	params, err := e.registry.GetParams()
	if err != nil {
		return err
	}
	owner, err := e.ledger.TokenOwner(params.ChannelsCollectionID, ch.OnftID)
	if err != nil && !errors.Is(err, ErrOnftNotFound) {
		return fmt.Errorf("channel: ownership lookup: %w", err)
	}
	if err == nil && owner == caller {
		return nil
	}
	collab, err := e.registry.GetCollaborator(channelID, caller)
	if err != nil {
		if errors.Is(err, ErrCollaboratorNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if collab.Expired(e.nowFn()) {
		return ErrUnauthorized
	}
	if !collab.Role.Grants(required) {
		return ErrUnauthorized
	}
	return nil
}

// verifyTokenOwner checks that owner currently holds the token, mapping a
// different holder to ErrOnftNotOwned. Used during publish to prove the caller
// owns the asset source.
func verifyTokenOwner(ledger OwnershipLedger, collectionID, tokenID, owner string) error {
	holder, err := ledger.TokenOwner(collectionID, tokenID)
	if err != nil {
		return err
	}
	if holder != owner {
		return fmt.Errorf("%w: %s/%s", ErrOnftNotOwned, collectionID, tokenID)
	}
	return nil
}
