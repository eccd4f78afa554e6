package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/authority"
	"ammcore/internal/mathx"
	"ammcore/internal/pool"
)

// Mint is a token class.
type Mint struct {
	Key       solana.PublicKey `json:"key"`
	Decimals  uint8            `json:"decimals"`
	Supply    uint64           `json:"supply"`
	Authority solana.PublicKey `json:"authority"`
}

// Account is a holding of one mint.
type Account struct {
	Key     solana.PublicKey `json:"key"`
	Owner   solana.PublicKey `json:"owner"`
	Mint    solana.PublicKey `json:"mint"`
	Balance uint64           `json:"balance"`
}

type state struct {
	sequence uint64
	mints    map[solana.PublicKey]Mint
	accounts map[solana.PublicKey]Account
	configs  map[solana.PublicKey]pool.Config
}

func newState() *state {
	return &state{
		mints:    make(map[solana.PublicKey]Mint),
		accounts: make(map[solana.PublicKey]Account),
		configs:  make(map[solana.PublicKey]pool.Config),
	}
}

func (s *state) clone() *state {
	out := &state{
		sequence: s.sequence,
		mints:    make(map[solana.PublicKey]Mint, len(s.mints)),
		accounts: make(map[solana.PublicKey]Account, len(s.accounts)),
		configs:  make(map[solana.PublicKey]pool.Config, len(s.configs)),
	}
	for k, v := range s.mints {
		out.mints[k] = v
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.configs {
		out.configs[k] = copyConfig(v)
	}
	return out
}

func copyConfig(cfg pool.Config) pool.Config {
	if cfg.Authority != nil {
		key := *cfg.Authority
		cfg.Authority = &key
	}
	return cfg
}

// Memory is an in-process ledger. Transactions are serialized and applied
// to a copy of the state that replaces the live one only on success.
type Memory struct {
	programID solana.PublicKey
	now       func() time.Time

	mu    sync.RWMutex
	state *state
}

// MemoryOption customizes a Memory ledger.
type MemoryOption func(*Memory)

// WithClock overrides the receipt clock.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(programID solana.PublicKey, opts ...MemoryOption) *Memory {
	m := &Memory{
		programID: programID,
		now:       time.Now,
		state:     newState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProgramID returns the program whose derived keys may sign via seeds.
func (m *Memory) ProgramID() solana.PublicKey {
	return m.programID
}

func (m *Memory) Balance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	acc, err := m.Account(ctx, key)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (m *Memory) Supply(ctx context.Context, key solana.PublicKey) (uint64, error) {
	mint, err := m.Mint(ctx, key)
	if err != nil {
		return 0, err
	}
	return mint.Supply, nil
}

func (m *Memory) LoadConfig(ctx context.Context, key solana.PublicKey) (pool.Config, error) {
	if err := ctx.Err(); err != nil {
		return pool.Config{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.state.configs[key]
	if !ok {
		return pool.Config{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return copyConfig(cfg), nil
}

// Account returns a holding account.
func (m *Memory) Account(ctx context.Context, key solana.PublicKey) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.state.accounts[key]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return acc, nil
}

// Mint returns a token class.
func (m *Memory) Mint(ctx context.Context, key solana.PublicKey) (Mint, error) {
	if err := ctx.Err(); err != nil {
		return Mint{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	mint, ok := m.state.mints[key]
	if !ok {
		return Mint{}, fmt.Errorf("%w: %s", ErrMintNotFound, key)
	}
	return mint, nil
}

// Configs lists every stored pool config ordered by key.
func (m *Memory) Configs(ctx context.Context) (map[solana.PublicKey]pool.Config, []solana.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[solana.PublicKey]pool.Config, len(m.state.configs))
	keys := make([]solana.PublicKey, 0, len(m.state.configs))
	for k, v := range m.state.configs {
		out[k] = copyConfig(v)
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return out, keys, nil
}

// Execute applies tx atomically.
func (m *Memory) Execute(ctx context.Context, tx Tx) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if len(tx.Ops) == 0 {
		return Receipt{}, fmt.Errorf("empty transaction")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.clone()
	for i, op := range tx.Ops {
		if err := m.apply(next, tx, op); err != nil {
			return Receipt{}, fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
	}
	next.sequence++
	m.state = next

	return Receipt{Sequence: next.sequence, Timestamp: m.now().UTC()}, nil
}

func (m *Memory) apply(s *state, tx Tx, op Op) error {
	switch op.Kind {
	case OpCreateMint:
		if _, ok := s.mints[op.Mint]; ok {
			return fmt.Errorf("%w: mint %s", ErrAccountExists, op.Mint)
		}
		s.mints[op.Mint] = Mint{Key: op.Mint, Decimals: op.Decimals, Authority: op.Authority}
		return nil

	case OpCreateAccount:
		if _, ok := s.mints[op.Mint]; !ok {
			return fmt.Errorf("%w: %s", ErrMintNotFound, op.Mint)
		}
		if existing, ok := s.accounts[op.Account]; ok {
			if op.IfMissing && existing.Owner.Equals(op.Owner) && existing.Mint.Equals(op.Mint) {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrAccountExists, op.Account)
		}
		s.accounts[op.Account] = Account{Key: op.Account, Owner: op.Owner, Mint: op.Mint}
		return nil

	case OpTransfer:
		from, ok := s.accounts[op.From]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, op.From)
		}
		to, ok := s.accounts[op.To]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, op.To)
		}
		if !from.Mint.Equals(to.Mint) {
			return ErrMintMismatch
		}
		if !op.Authority.Equals(from.Owner) || !m.authorized(tx, op) {
			return fmt.Errorf("%w: owner of %s", ErrUnauthorized, op.From)
		}
		if from.Balance < op.Amount {
			return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, op.From, from.Balance, op.Amount)
		}
		if op.From.Equals(op.To) {
			return nil
		}
		credited, err := mathx.Add(to.Balance, op.Amount)
		if err != nil {
			return err
		}
		from.Balance -= op.Amount
		to.Balance = credited
		s.accounts[op.From] = from
		s.accounts[op.To] = to
		return nil

	case OpMintTo:
		mint, ok := s.mints[op.Mint]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMintNotFound, op.Mint)
		}
		acc, ok := s.accounts[op.Account]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, op.Account)
		}
		if !acc.Mint.Equals(op.Mint) {
			return ErrMintMismatch
		}
		if !op.Authority.Equals(mint.Authority) || !m.authorized(tx, op) {
			return fmt.Errorf("%w: mint authority of %s", ErrUnauthorized, op.Mint)
		}
		supply, err := mathx.Add(mint.Supply, op.Amount)
		if err != nil {
			return err
		}
		balance, err := mathx.Add(acc.Balance, op.Amount)
		if err != nil {
			return err
		}
		mint.Supply = supply
		acc.Balance = balance
		s.mints[op.Mint] = mint
		s.accounts[op.Account] = acc
		return nil

	case OpBurn:
		mint, ok := s.mints[op.Mint]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMintNotFound, op.Mint)
		}
		acc, ok := s.accounts[op.Account]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, op.Account)
		}
		if !acc.Mint.Equals(op.Mint) {
			return ErrMintMismatch
		}
		if !op.Authority.Equals(acc.Owner) || !m.authorized(tx, op) {
			return fmt.Errorf("%w: owner of %s", ErrUnauthorized, op.Account)
		}
		if acc.Balance < op.Amount {
			return fmt.Errorf("%w: %s holds %d, burns %d", ErrInsufficientFunds, op.Account, acc.Balance, op.Amount)
		}
		acc.Balance -= op.Amount
		mint.Supply -= op.Amount
		s.mints[op.Mint] = mint
		s.accounts[op.Account] = acc
		return nil

	case OpWriteConfig:
		if !op.Authority.Equals(op.ConfigKey) || !m.authorized(tx, op) {
			return fmt.Errorf("%w: config %s", ErrUnauthorized, op.ConfigKey)
		}
		existing, ok := s.configs[op.ConfigKey]
		if op.Create {
			if ok {
				return fmt.Errorf("%w: config %s", ErrAccountExists, op.ConfigKey)
			}
		} else {
			if !ok {
				return fmt.Errorf("%w: %s", ErrNotFound, op.ConfigKey)
			}
			if !existing.Immutable(op.Config) {
				return ErrImmutableConfig
			}
		}
		s.configs[op.ConfigKey] = copyConfig(op.Config)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
	}
}

func (m *Memory) authorized(tx Tx, op Op) bool {
	for _, signer := range tx.Signers {
		if signer.Equals(op.Authority) {
			return true
		}
	}
	return authority.ProgramSigner(m.programID, op.AuthoritySeeds, op.Authority)
}
