package funds

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrShareOutOfRange = errors.New("funds: share out of range")
	ErrNoFallback      = errors.New("funds: fallback recipient required")
)

var shareDenominator = big.NewInt(ShareDenominator)

// Distribute splits total across recipients as a waterfall: each share applies
// to the balance remaining after prior allocations, with floor division, and
// whatever is left goes to the fallback recipient. Zero-amount transfers are
// elided. The sum of emitted amounts always equals total exactly.
func Distribute(total Coin, recipients []ShareHolder, fallback string) ([]Transfer, error) {
	if fallback == "" {
		return nil, ErrNoFallback
	}
	remaining := new(big.Int)
	if total.Amount != nil {
		remaining.Set(total.Amount)
	}
	if remaining.Sign() < 0 {
		return nil, fmt.Errorf("funds: negative total %s", total)
	}

	transfers := make([]Transfer, 0, len(recipients)+1)
	for _, r := range recipients {
		if r.ShareBps > ShareDenominator {
			return nil, fmt.Errorf("%w: %d bps for %s", ErrShareOutOfRange, r.ShareBps, r.Address)
		}
		portion := new(big.Int).Mul(remaining, big.NewInt(int64(r.ShareBps)))
		portion.Quo(portion, shareDenominator)
		if portion.Sign() > 0 {
			transfers = append(transfers, Transfer{
				Recipient: r.Address,
				Amount:    Coin{Denom: total.Denom, Amount: portion},
			})
			remaining.Sub(remaining, portion)
		}
	}
	if remaining.Sign() > 0 {
		transfers = append(transfers, Transfer{
			Recipient: fallback,
			Amount:    Coin{Denom: total.Denom, Amount: remaining},
		})
	}
	return transfers, nil
}

// CheckPayment normalizes both sides and requires exact equality. Overpayment
// and underpayment fail alike with a PaymentError carrying both sides.
func CheckPayment(expected, received []Coin) error {
	wantCoins := Normalize(expected)
	gotCoins := Normalize(received)
	if len(wantCoins) != len(gotCoins) {
		return &PaymentError{Expected: wantCoins, Received: gotCoins}
	}
	for i := range wantCoins {
		if wantCoins[i].Denom != gotCoins[i].Denom || wantCoins[i].Amount.Cmp(gotCoins[i].Amount) != 0 {
			return &PaymentError{Expected: wantCoins, Received: gotCoins}
		}
	}
	return nil
}
