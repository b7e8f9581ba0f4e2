package channel

import (
	"time"

	"channeld/core/state"
)

// stateStore abstracts the subset of state manager functionality required by
// the channel registry.
type stateStore interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVHas(key []byte) (bool, error)
	KVDelete(key []byte) error
	KVIterate(prefix []byte, start []byte, fn func(key, value []byte) (bool, error)) error
	KVDeletePrefix(prefix []byte) (int, error)
	KVAppend(key []byte, value []byte) error
	KVListRemove(key []byte, value []byte) error
	KVGetList(key []byte, out *[][]byte) error
}

var _ stateStore = (*state.Manager)(nil)

var (
	channelPrefix     = []byte("channel/record/")
	userNamePrefix    = []byte("channel/username/")
	reservedPrefix    = []byte("channel/reserved/")
	collabPrefix      = []byte("channel/collab/")
	collabIndexPrefix = []byte("channel/collabidx/")
	followerPrefix    = []byte("channel/follower/")
	followCountPrefix = []byte("channel/followcount/")
	paramsKey         = []byte("channel/params")
)

func channelKey(channelID string) []byte {
	return state.CompositeKey(channelPrefix, []byte(channelID))
}

func userNameKey(userName string) []byte {
	return state.CompositeKey(userNamePrefix, []byte(userName))
}

func reservedKey(userName string) []byte {
	return state.CompositeKey(reservedPrefix, []byte(userName))
}

func collabKey(channelID, address string) []byte {
	return state.CompositeKey(collabPrefix, []byte(channelID), []byte(address))
}

func collabIndexKey(channelID string) []byte {
	return state.CompositeKey(collabIndexPrefix, []byte(channelID))
}

func followerKey(channelID, address string) []byte {
	return state.CompositeKey(followerPrefix, []byte(channelID), []byte(address))
}

func followCountKey(channelID string) []byte {
	return state.CompositeKey(followCountPrefix, []byte(channelID))
}

// Registry persists channels, their username cross-index, reserved usernames,
// collaborators, followers and the registry parameters.
type Registry struct {
	st    stateStore
	nowFn func() int64
}

// NewRegistry constructs a registry bound to the provided state backend.
func NewRegistry(st stateStore) *Registry {
	return &Registry{
		st:    st,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the wall clock used for record timestamps and
// collaborator expiry. Primarily leveraged in tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now != nil {
		r.nowFn = now
	}
}

// CreateChannel inserts the channel record and both halves of the
// username cross-index, honouring the reserved-username list. Claiming a
// reservation held by creator removes the reservation entry.
func (r *Registry) CreateChannel(ch Channel, creator string) error {
	if ok, err := r.st.KVHas(channelKey(ch.ChannelID)); err != nil {
		return err
	} else if ok {
		return ErrChannelIdAlreadyExists
	}
	if ok, err := r.st.KVHas(userNameKey(ch.UserName)); err != nil {
		return err
	} else if ok {
		return ErrUserNameAlreadyTaken
	}
	var reserved ReservedUsername
	hasReservation, err := r.st.KVGet(reservedKey(ch.UserName), &reserved)
	if err != nil {
		return err
	}
	if hasReservation {
		if reserved.Address == "" || reserved.Address != creator {
			return ErrUserNameReserved
		}
		if err := r.st.KVDelete(reservedKey(ch.UserName)); err != nil {
			return err
		}
	}
	if ch.CreatedAt == 0 {
		ch.CreatedAt = uint64(r.nowFn())
	}
	if err := r.st.KVPut(channelKey(ch.ChannelID), ch); err != nil {
		return err
	}
	return r.st.KVPut(userNameKey(ch.UserName), ch.ChannelID)
}

// GetChannel loads one channel record.
func (r *Registry) GetChannel(channelID string) (Channel, error) {
	var ch Channel
	ok, err := r.st.KVGet(channelKey(channelID), &ch)
	if err != nil {
		return Channel{}, err
	}
	if !ok {
		return Channel{}, ErrChannelNotFound
	}
	return ch, nil
}

// GetChannelByUserName resolves the username cross-index and loads the record.
func (r *Registry) GetChannelByUserName(userName string) (Channel, error) {
	var channelID string
	ok, err := r.st.KVGet(userNameKey(userName), &channelID)
	if err != nil {
		return Channel{}, err
	}
	if !ok {
		return Channel{}, ErrChannelNotFound
	}
	return r.GetChannel(channelID)
}

// PutChannel overwrites an existing channel record.
func (r *Registry) PutChannel(ch Channel) error {
	if ok, err := r.st.KVHas(channelKey(ch.ChannelID)); err != nil {
		return err
	} else if !ok {
		return ErrChannelNotFound
	}
	return r.st.KVPut(channelKey(ch.ChannelID), ch)
}

// DeleteChannel removes the record, both cross-index halves and every
// collaborator and follower entry under the channel.
func (r *Registry) DeleteChannel(channelID string) error {
	ch, err := r.GetChannel(channelID)
	if err != nil {
		return err
	}
	if err := r.st.KVDelete(channelKey(channelID)); err != nil {
		return err
	}
	if err := r.st.KVDelete(userNameKey(ch.UserName)); err != nil {
		return err
	}
	if _, err := r.st.KVDeletePrefix(state.CompositeKey(collabPrefix, []byte(channelID), nil)); err != nil {
		return err
	}
	if err := r.st.KVDelete(collabIndexKey(channelID)); err != nil {
		return err
	}
	if _, err := r.st.KVDeletePrefix(state.CompositeKey(followerPrefix, []byte(channelID), nil)); err != nil {
		return err
	}
	return r.st.KVDelete(followCountKey(channelID))
}

// ListChannels returns channels in ascending channel id order, starting
// strictly after startAfter when it is non-empty.
func (r *Registry) ListChannels(startAfter string, limit uint32) ([]Channel, error) {
	max := ClampLimit(limit)
	var start []byte
	if startAfter != "" {
		start = channelKey(startAfter)
	}
	out := make([]Channel, 0, max)
	err := r.st.KVIterate(channelPrefix, start, func(_, value []byte) (bool, error) {
		var ch Channel
		if err := state.DecodeValue(value, &ch); err != nil {
			return false, err
		}
		out = append(out, ch)
		return len(out) < max, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddCollaborator grants an address a role and revenue share on the channel.
// The distinct-collaborator cap and the aggregate share cap are enforced here.
func (r *Registry) AddCollaborator(channelID string, collab Collaborator) error {
	if !collab.Role.Valid() {
		return ErrInvalidRole
	}
	if collab.ShareBps > ShareDenominator {
		return ErrShareOutOfRange
	}
	if ok, err := r.st.KVHas(channelKey(channelID)); err != nil {
		return err
	} else if !ok {
		return ErrChannelNotFound
	}
	if ok, err := r.st.KVHas(collabKey(channelID, collab.Address)); err != nil {
		return err
	} else if ok {
		return ErrCollaboratorAlreadyExists
	}
	existing, err := r.ListCollaborators(channelID)
	if err != nil {
		return err
	}
	if len(existing) >= MaxCollaborators {
		return ErrCollaboratorLimitReached
	}
	shareSum := collab.ShareBps
	for _, c := range existing {
		shareSum += c.ShareBps
	}
	if shareSum > ShareDenominator {
		return ErrShareSumExceeded
	}
	if err := r.st.KVPut(collabKey(channelID, collab.Address), collab); err != nil {
		return err
	}
	return r.st.KVAppend(collabIndexKey(channelID), []byte(collab.Address))
}

// UpdateCollaborator replaces an existing grant, keeping its position in the
// distribution order.
func (r *Registry) UpdateCollaborator(channelID string, collab Collaborator) error {
	if !collab.Role.Valid() {
		return ErrInvalidRole
	}
	if collab.ShareBps > ShareDenominator {
		return ErrShareOutOfRange
	}
	existing, err := r.ListCollaborators(channelID)
	if err != nil {
		return err
	}
	found := false
	var shareSum uint32
	for _, c := range existing {
		if c.Address == collab.Address {
			found = true
			shareSum += collab.ShareBps
			continue
		}
		shareSum += c.ShareBps
	}
	if !found {
		return ErrCollaboratorNotFound
	}
	if shareSum > ShareDenominator {
		return ErrShareSumExceeded
	}
	return r.st.KVPut(collabKey(channelID, collab.Address), collab)
}

// GetCollaborator loads one grant.
func (r *Registry) GetCollaborator(channelID, address string) (Collaborator, error) {
	if ok, err := r.st.KVHas(channelKey(channelID)); err != nil {
		return Collaborator{}, err
	} else if !ok {
		return Collaborator{}, ErrChannelNotFound
	}
	var collab Collaborator
	ok, err := r.st.KVGet(collabKey(channelID, address), &collab)
	if err != nil {
		return Collaborator{}, err
	}
	if !ok {
		return Collaborator{}, ErrCollaboratorNotFound
	}
	return collab, nil
}

// RemoveCollaborator revokes a grant. Removing from a missing channel fails
// with ErrChannelNotFound, removing an unknown address with
// ErrCollaboratorNotFound.
func (r *Registry) RemoveCollaborator(channelID, address string) error {
	if _, err := r.GetCollaborator(channelID, address); err != nil {
		return err
	}
	if err := r.st.KVDelete(collabKey(channelID, address)); err != nil {
		return err
	}
	return r.st.KVListRemove(collabIndexKey(channelID), []byte(address))
}

// ListCollaborators returns every grant on the channel in the order the
// grants were added. Revenue distribution iterates this order.
func (r *Registry) ListCollaborators(channelID string) ([]Collaborator, error) {
	if ok, err := r.st.KVHas(channelKey(channelID)); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrChannelNotFound
	}
	var index [][]byte
	if err := r.st.KVGetList(collabIndexKey(channelID), &index); err != nil {
		return nil, err
	}
	out := make([]Collaborator, 0, len(index))
	for _, address := range index {
		var collab Collaborator
		ok, err := r.st.KVGet(collabKey(channelID, string(address)), &collab)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, collab)
	}
	return out, nil
}

// ReserveUserNames adds entries to the reserved-username list. Existing
// reservations are overwritten so an admin can reassign a pending name.
func (r *Registry) ReserveUserNames(entries []ReservedUsername) error {
	for _, entry := range entries {
		if err := UserNamePolicy.Validate(entry.UserName); err != nil {
			return err
		}
		if ok, err := r.st.KVHas(userNameKey(entry.UserName)); err != nil {
			return err
		} else if ok {
			return ErrUserNameAlreadyTaken
		}
		if err := r.st.KVPut(reservedKey(entry.UserName), entry); err != nil {
			return err
		}
	}
	return nil
}

// RemoveReservedUserNames lifts reservations. Unknown names are ignored.
func (r *Registry) RemoveReservedUserNames(userNames []string) error {
	for _, name := range userNames {
		if err := r.st.KVDelete(reservedKey(name)); err != nil {
			return err
		}
	}
	return nil
}

// ListReservedUserNames returns reservations in ascending username order.
func (r *Registry) ListReservedUserNames(startAfter string, limit uint32) ([]ReservedUsername, error) {
	max := ClampLimit(limit)
	var start []byte
	if startAfter != "" {
		start = reservedKey(startAfter)
	}
	out := make([]ReservedUsername, 0, max)
	err := r.st.KVIterate(reservedPrefix, start, func(_, value []byte) (bool, error) {
		var entry ReservedUsername
		if err := state.DecodeValue(value, &entry); err != nil {
			return false, err
		}
		out = append(out, entry)
		return len(out) < max, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Follow records that address follows the channel.
func (r *Registry) Follow(channelID, address string) (uint64, error) {
	if ok, err := r.st.KVHas(channelKey(channelID)); err != nil {
		return 0, err
	} else if !ok {
		return 0, ErrChannelNotFound
	}
	key := followerKey(channelID, address)
	if ok, err := r.st.KVHas(key); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrAlreadyFollowing
	}
	if err := r.st.KVPut(key, true); err != nil {
		return 0, err
	}
	count, err := r.FollowersCount(channelID)
	if err != nil {
		return 0, err
	}
	count++
	if err := r.st.KVPut(followCountKey(channelID), count); err != nil {
		return 0, err
	}
	return count, nil
}

// Unfollow removes a follower entry.
func (r *Registry) Unfollow(channelID, address string) (uint64, error) {
	if ok, err := r.st.KVHas(channelKey(channelID)); err != nil {
		return 0, err
	} else if !ok {
		return 0, ErrChannelNotFound
	}
	key := followerKey(channelID, address)
	if ok, err := r.st.KVHas(key); err != nil {
		return 0, err
	} else if !ok {
		return 0, ErrFollowerNotFound
	}
	if err := r.st.KVDelete(key); err != nil {
		return 0, err
	}
	count, err := r.FollowersCount(channelID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		count--
	}
	if err := r.st.KVPut(followCountKey(channelID), count); err != nil {
		return 0, err
	}
	return count, nil
}

// FollowersCount returns the number of followers recorded for the channel.
func (r *Registry) FollowersCount(channelID string) (uint64, error) {
	var count uint64
	if _, err := r.st.KVGet(followCountKey(channelID), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListFollowers returns follower addresses in ascending order.
func (r *Registry) ListFollowers(channelID, startAfter string, limit uint32) ([]string, error) {
	max := ClampLimit(limit)
	prefix := state.CompositeKey(followerPrefix, []byte(channelID), nil)
	var start []byte
	if startAfter != "" {
		start = followerKey(channelID, startAfter)
	}
	out := make([]string, 0, max)
	err := r.st.KVIterate(prefix, start, func(key, _ []byte) (bool, error) {
		out = append(out, string(key[len(prefix):]))
		return len(out) < max, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetParams stores the registry configuration.
func (r *Registry) SetParams(p Params) error {
	return r.st.KVPut(paramsKey, p)
}

// GetParams loads the registry configuration. Missing configuration yields the
// zero value.
func (r *Registry) GetParams() (Params, error) {
	var p Params
	if _, err := r.st.KVGet(paramsKey, &p); err != nil {
		return Params{}, err
	}
	return p, nil
}
