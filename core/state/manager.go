package state

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"channeld/storage"
)

// Manager provides a typed view over the ordered key-value backend. Values are
// RLP encoded; keys are stored raw so that prefix scans keep their ascending
// order, which pagination and cascade deletes depend on.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// CompositeKey builds a byte key from a namespace prefix and the supplied
// parts. Every part except the last is length-prefixed so that no pair of
// distinct tuples can collide and so that a prefix scan over the leading parts
// stays well formed.
func CompositeKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += 2 + len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, part := range parts {
		if i == len(parts)-1 {
			buf = append(buf, part...)
			break
		}
		var length [2]byte
		binary.BigEndian.PutUint16(length[:], uint16(len(part)))
		buf = append(buf, length[:]...)
		buf = append(buf, part...)
	}
	return buf
}

// DecodeValue decodes a raw RLP value handed to a KVIterate callback.
func DecodeValue(data []byte, out interface{}) error {
	return rlp.DecodeBytes(data, out)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if err == storage.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVHas reports whether the key exists in state.
func (m *Manager) KVHas(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Has(key)
}

// KVDelete removes the key from state. Deleting an absent key is not an error.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(key)
}

// KVIterate walks entries under prefix in ascending key order, starting
// strictly after start when start is non-nil. fn receives the raw key and the
// RLP-encoded value; it returns false to stop the walk.
func (m *Manager) KVIterate(prefix []byte, start []byte, fn func(key, value []byte) (bool, error)) error {
	if len(prefix) == 0 {
		return fmt.Errorf("kv: prefix must not be empty")
	}
	return m.db.IteratePrefix(prefix, start, fn)
}

// KVDeletePrefix removes every entry whose key starts with prefix and returns
// the number of deleted entries.
func (m *Manager) KVDeletePrefix(prefix []byte) (int, error) {
	if len(prefix) == 0 {
		return 0, fmt.Errorf("kv: prefix must not be empty")
	}
	var keys [][]byte
	err := m.db.IteratePrefix(prefix, nil, func(key, _ []byte) (bool, error) {
		keys = append(keys, append([]byte(nil), key...))
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := m.db.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	var list [][]byte
	if err := m.KVGetList(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if string(existing) == string(value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return m.KVPut(key, list)
}

// KVListRemove removes the first occurrence of value from the byte slice list
// stored under key, preserving the order of the remaining entries.
func (m *Manager) KVListRemove(key []byte, value []byte) error {
	var list [][]byte
	if err := m.KVGetList(key, &list); err != nil {
		return err
	}
	for i, existing := range list {
		if string(existing) == string(value) {
			list = append(list[:i], list[i+1:]...)
			if len(list) == 0 {
				return m.KVDelete(key)
			}
			return m.KVPut(key, list)
		}
	}
	return nil
}

// KVGetList retrieves an RLP-encoded byte slice list stored under the provided
// key. When no value is present the destination is initialised with an empty
// slice to avoid nil surprises for callers.
func (m *Manager) KVGetList(key []byte, out *[][]byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	ok, err := m.KVGet(key, out)
	if err != nil {
		return err
	}
	if !ok {
		*out = [][]byte{}
	}
	return nil
}
