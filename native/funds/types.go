package funds

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ShareDenominator is the basis-point scale used for collaborator revenue
// shares. A share of 10_000 is 100%.
const ShareDenominator = 10_000

// Coin is an amount of a single denomination. Amount is always non-negative.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// NewCoin constructs a coin from an unsigned integer amount.
func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: new(big.Int).SetUint64(amount)}
}

// Clone returns a deep copy of the coin.
func (c Coin) Clone() Coin {
	amount := new(big.Int)
	if c.Amount != nil {
		amount.Set(c.Amount)
	}
	return Coin{Denom: c.Denom, Amount: amount}
}

// IsZero reports whether the coin carries no value.
func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.Sign() == 0
}

// String renders the coin in "amount denom" form for diagnostics.
func (c Coin) String() string {
	if c.Amount == nil {
		return "0" + c.Denom
	}
	return c.Amount.String() + c.Denom
}

// Transfer is an instruction for the external ledger to move value. The
// distributor emits transfers; it never touches balances itself.
type Transfer struct {
	Recipient string
	Amount    Coin
}

// ShareHolder pairs a recipient with its basis-point share of the remaining
// balance. Order matters to the waterfall, so callers pass an explicitly
// ordered slice.
type ShareHolder struct {
	Address  string
	ShareBps uint32
}

// Normalize merges same-denomination coins, drops zero amounts and returns the
// result sorted by denomination.
func Normalize(coins []Coin) []Coin {
	merged := make(map[string]*big.Int, len(coins))
	for _, c := range coins {
		if c.IsZero() {
			continue
		}
		total, ok := merged[c.Denom]
		if !ok {
			total = new(big.Int)
			merged[c.Denom] = total
		}
		total.Add(total, c.Amount)
	}
	out := make([]Coin, 0, len(merged))
	for denom, amount := range merged {
		out = append(out, Coin{Denom: denom, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denom < out[j].Denom })
	return out
}

func formatCoins(coins []Coin) string {
	if len(coins) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(coins))
	for _, c := range coins {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

// PaymentError reports a mismatch between the funds an operation requires and
// the funds the caller attached. Both sides are carried for diagnostics.
type PaymentError struct {
	Expected []Coin
	Received []Coin
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	return fmt.Sprintf("funds: payment mismatch: expected %s, received %s", formatCoins(e.Expected), formatCoins(e.Received))
}
