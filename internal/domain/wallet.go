package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidWallet is returned for malformed wallet addresses.
var ErrInvalidWallet = errors.New("invalid wallet address")

// ValidateWallet checks that addr is a plausible Solana wallet:
// base58, 32 bytes, and a point on the ed25519 curve. Program-derived
// addresses are off-curve and rejected; the platform only pays out to
// user-controlled wallets.
func ValidateWallet(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidWallet)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: decoded to %d bytes, want 32", ErrInvalidWallet, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: not on the ed25519 curve", ErrInvalidWallet)
	}
	return nil
}
