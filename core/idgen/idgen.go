// Package idgen derives deterministic, human-readable identifiers from
// transaction-ordering context. Identifiers look random but are a pure
// function of their inputs; uniqueness is enforced by the stores that persist
// them, not here. Callers deriving more than one identifier from the same
// context in one logical step must use distinct prefixes.
package idgen

import (
	"encoding/binary"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLen   = 32
)

// Context carries the ambient transaction-ordering data that seeds identifier
// generation. Production callers fill it from the current block; tests supply
// fixed values for reproducible ids.
type Context struct {
	Height    uint64
	UnixNanos int64
	TxIndex   uint32
	Salt      []byte
}

// Generate returns prefix followed by 32 lowercase alphanumeric characters.
// The context is hashed with keccak256, the first 16 digest bytes seed a
// xoshiro128++ stream, and each output character is the low byte of one draw
// reduced modulo the charset size.
func Generate(prefix string, ctx Context) string {
	digest := gethcrypto.Keccak256([]byte(fmt.Sprintf("%d%d%d%x", ctx.UnixNanos, ctx.TxIndex, ctx.Height, ctx.Salt)))

	var seed [16]byte
	copy(seed[:], digest[:16])
	rng := newXoshiro128PlusPlus(seed)

	out := make([]byte, 0, len(prefix)+idLen)
	out = append(out, prefix...)
	for i := 0; i < idLen; i++ {
		out = append(out, charset[byte(rng.next())%byte(len(charset))])
	}
	return string(out)
}

// xoshiro128PlusPlus is the 128-bit xoshiro++ generator of Blackman and
// Vigna. Not cryptographic; used only to stretch a digest into a character
// stream.
type xoshiro128PlusPlus struct {
	s [4]uint32
}

func newXoshiro128PlusPlus(seed [16]byte) *xoshiro128PlusPlus {
	var rng xoshiro128PlusPlus
	for i := 0; i < 4; i++ {
		rng.s[i] = binary.LittleEndian.Uint32(seed[i*4:])
	}
	return &rng
}

func rotl32(x uint32, k uint) uint32 {
	return (x << k) | (x >> (32 - k))
}

func (r *xoshiro128PlusPlus) next() uint32 {
	result := rotl32(r.s[0]+r.s[3], 7) + r.s[0]

	t := r.s[1] << 9
	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]
	r.s[2] ^= t
	r.s[3] = rotl32(r.s[3], 11)

	return result
}
