package pool

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/curve"
)

// LPDecimals is the precision of every pool's share mint.
const LPDecimals uint8 = 6

var (
	ErrIdenticalMints    = errors.New("asset mints must differ")
	ErrFeeOutOfRange     = errors.New("fee must be below 10000 basis points")
	ErrNoAuthority       = errors.New("pool has no administrative authority")
	ErrUnauthorizedAdmin = errors.New("signer is not the pool authority")
	ErrMintMismatch      = errors.New("mint does not belong to pool")
)

// Config is the durable record of one pool.
type Config struct {
	Seed       uint64            `json:"seed"`
	MintX      solana.PublicKey  `json:"mint_x"`
	MintY      solana.PublicKey  `json:"mint_y"`
	MintLP     solana.PublicKey  `json:"mint_lp"`
	FeeBps     uint16            `json:"fee_bps"`
	Authority  *solana.PublicKey `json:"authority,omitempty"`
	Locked     bool              `json:"locked"`
	ConfigBump uint8             `json:"config_bump"`
	LPBump     uint8             `json:"lp_bump"`
	LPDecimals uint8             `json:"lp_decimals"`
}

// Validate checks the creation-time invariants.
func (c Config) Validate() error {
	if c.MintX.Equals(c.MintY) {
		return ErrIdenticalMints
	}
	if c.FeeBps >= curve.BasisPoints {
		return fmt.Errorf("%w: %d", ErrFeeOutOfRange, c.FeeBps)
	}
	return nil
}

// Side resolves which pool asset mint is.
func (c Config) Side(mint solana.PublicKey) (curve.Side, error) {
	switch {
	case mint.Equals(c.MintX):
		return curve.SideX, nil
	case mint.Equals(c.MintY):
		return curve.SideY, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrMintMismatch, mint)
	}
}

// Mint returns the asset mint for side.
func (c Config) Mint(side curve.Side) solana.PublicKey {
	if side == curve.SideY {
		return c.MintY
	}
	return c.MintX
}

// CanAdminister reports whether signer may change the lock or authority.
func (c Config) CanAdminister(signer solana.PublicKey) error {
	if c.Authority == nil {
		return ErrNoAuthority
	}
	if !c.Authority.Equals(signer) {
		return ErrUnauthorizedAdmin
	}
	return nil
}

// WithLocked returns a copy with the lock flag set, if signer is allowed.
func (c Config) WithLocked(signer solana.PublicKey, locked bool) (Config, error) {
	if err := c.CanAdminister(signer); err != nil {
		return Config{}, err
	}
	c.Locked = locked
	return c, nil
}

// WithAuthority returns a copy handing administration to next. A nil next
// renounces it permanently.
func (c Config) WithAuthority(signer solana.PublicKey, next *solana.PublicKey) (Config, error) {
	if err := c.CanAdminister(signer); err != nil {
		return Config{}, err
	}
	if next != nil {
		key := *next
		next = &key
	}
	c.Authority = next
	return c, nil
}

// Immutable reports whether next keeps every field that may never change.
func (c Config) Immutable(next Config) bool {
	return c.Seed == next.Seed &&
		c.MintX.Equals(next.MintX) &&
		c.MintY.Equals(next.MintY) &&
		c.MintLP.Equals(next.MintLP) &&
		c.FeeBps == next.FeeBps &&
		c.ConfigBump == next.ConfigBump &&
		c.LPBump == next.LPBump &&
		c.LPDecimals == next.LPDecimals
}
