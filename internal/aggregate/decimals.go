package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/ledger"
)

// MintSource resolves mint metadata, usually a ledger snapshot.
type MintSource interface {
	Mint(ctx context.Context, key solana.PublicKey) (ledger.Mint, error)
}

// TokenDecimalsCache caches mint decimals by base58 key.
type TokenDecimalsCache struct {
	mu   sync.RWMutex
	data map[string]uint8
}

func NewTokenDecimalsCache() *TokenDecimalsCache {
	return &TokenDecimalsCache{data: make(map[string]uint8)}
}

func (c *TokenDecimalsCache) Get(mint string) (uint8, bool) {
	c.mu.RLock()
	decimals, ok := c.data[mint]
	c.mu.RUnlock()
	return decimals, ok
}

func (c *TokenDecimalsCache) Set(mint string, decimals uint8) {
	c.mu.Lock()
	c.data[mint] = decimals
	c.mu.Unlock()
}

// FetchTokenDecimals loads mint decimals from source.
func FetchTokenDecimals(ctx context.Context, source MintSource, mint string) (uint8, error) {
	if source == nil {
		return 0, fmt.Errorf("no mint source")
	}
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	m, err := source.Mint(ctx, key)
	if err != nil {
		return 0, err
	}
	return m.Decimals, nil
}
