package authority

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	configTag = "config"
	lpTag     = "lp"
)

var ErrAuthorityMismatch = errors.New("derived authority does not match")

// ConfigSeeds returns the seeds of a pool configuration key.
func ConfigSeeds(seed uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, seed)
	return [][]byte{[]byte(configTag), le}
}

// LPSeeds returns the seeds of a pool's share mint.
func LPSeeds(config solana.PublicKey) [][]byte {
	return [][]byte{[]byte(lpTag), config.Bytes()}
}

// WithBump appends the bump byte to a seed set.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}

// Deriver derives and verifies pool-controlled identities for one program.
type Deriver struct {
	ProgramID solana.PublicKey
}

func NewDeriver(programID solana.PublicKey) Deriver {
	return Deriver{ProgramID: programID}
}

// FindConfig returns the configuration key and its canonical bump.
func (d Deriver) FindConfig(seed uint64) (solana.PublicKey, uint8, error) {
	key, bump, err := solana.FindProgramAddress(ConfigSeeds(seed), d.ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive config: %w", err)
	}
	return key, bump, nil
}

// FindLPMint returns the share mint key and its canonical bump.
func (d Deriver) FindLPMint(config solana.PublicKey) (solana.PublicKey, uint8, error) {
	key, bump, err := solana.FindProgramAddress(LPSeeds(config), d.ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive lp mint: %w", err)
	}
	return key, bump, nil
}

// VerifyConfig recomputes the configuration key from seed and bump.
func (d Deriver) VerifyConfig(seed uint64, bump uint8, want solana.PublicKey) error {
	return d.verify(WithBump(ConfigSeeds(seed), bump), want)
}

// VerifyLPMint recomputes the share mint key from the configuration key and bump.
func (d Deriver) VerifyLPMint(config solana.PublicKey, bump uint8, want solana.PublicKey) error {
	return d.verify(WithBump(LPSeeds(config), bump), want)
}

// SignerSeeds returns the seeds that let the configuration key authorize
// ledger operations.
func (d Deriver) SignerSeeds(seed uint64, bump uint8) [][]byte {
	return WithBump(ConfigSeeds(seed), bump)
}

// Vault returns the pool-owned holding account for mint.
func (d Deriver) Vault(config, mint solana.PublicKey) (solana.PublicKey, error) {
	return Holder(config, mint)
}

func (d Deriver) verify(seeds [][]byte, want solana.PublicKey) error {
	got, err := solana.CreateProgramAddress(seeds, d.ProgramID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorityMismatch, err)
	}
	if !got.Equals(want) {
		return fmt.Errorf("%w: derived %s, expected %s", ErrAuthorityMismatch, got, want)
	}
	return nil
}

// Holder returns the associated holding account of owner for mint.
func Holder(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	key, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive holder: %w", err)
	}
	return key, nil
}

// ProgramSigner reports whether seeds derive key under programID.
func ProgramSigner(programID solana.PublicKey, seeds [][]byte, key solana.PublicKey) bool {
	if len(seeds) == 0 {
		return false
	}
	got, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return false
	}
	return got.Equals(key)
}
