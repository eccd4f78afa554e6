package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/pool"
)

var (
	ErrNotFound          = errors.New("config not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrMintMismatch      = errors.New("account mint mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("missing required authority")
	ErrImmutableConfig   = errors.New("config update changes immutable fields")
	ErrUnknownOp         = errors.New("unknown operation kind")
)

// Reader is the read side of the ledger. Values are always current.
type Reader interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	Supply(ctx context.Context, mint solana.PublicKey) (uint64, error)
	LoadConfig(ctx context.Context, key solana.PublicKey) (pool.Config, error)
}

// Ledger applies transactions atomically: every op lands or none does.
type Ledger interface {
	Reader
	Execute(ctx context.Context, tx Tx) (Receipt, error)
}

// Receipt identifies a committed transaction.
type Receipt struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// Tx is an ordered batch of ops. Signers authorize ops whose authority
// holds a private key.
type Tx struct {
	Signers []solana.PublicKey
	Ops     []Op
}

// OpKind names a ledger primitive.
type OpKind string

const (
	OpCreateMint    OpKind = "create_mint"
	OpCreateAccount OpKind = "create_account"
	OpTransfer      OpKind = "transfer"
	OpMintTo        OpKind = "mint_to"
	OpBurn          OpKind = "burn"
	OpWriteConfig   OpKind = "write_config"
)

// Op is one primitive request. Which fields matter depends on Kind.
type Op struct {
	Kind OpKind

	Mint     solana.PublicKey
	Decimals uint8

	Account   solana.PublicKey
	Owner     solana.PublicKey
	IfMissing bool

	From   solana.PublicKey
	To     solana.PublicKey
	Amount uint64

	ConfigKey solana.PublicKey
	Config    pool.Config
	Create    bool

	// Authority must be a tx signer, or AuthoritySeeds must derive it
	// under the ledger's program.
	Authority      solana.PublicKey
	AuthoritySeeds [][]byte
}

// SignedBy attaches program seeds that prove the op's authority.
func (o Op) SignedBy(seeds [][]byte) Op {
	o.AuthoritySeeds = seeds
	return o
}

func (o Op) String() string {
	switch o.Kind {
	case OpTransfer:
		return fmt.Sprintf("%s %d %s->%s", o.Kind, o.Amount, o.From, o.To)
	case OpMintTo, OpBurn:
		return fmt.Sprintf("%s %d %s", o.Kind, o.Amount, o.Account)
	case OpWriteConfig:
		return fmt.Sprintf("%s %s", o.Kind, o.ConfigKey)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Account)
	}
}

// CreateMint registers a new token class with authority as mint authority.
func CreateMint(mint solana.PublicKey, decimals uint8, authority solana.PublicKey) Op {
	return Op{Kind: OpCreateMint, Mint: mint, Decimals: decimals, Authority: authority}
}

// CreateAccount opens a holding account of owner for mint.
func CreateAccount(account, owner, mint solana.PublicKey) Op {
	return Op{Kind: OpCreateAccount, Account: account, Owner: owner, Mint: mint}
}

// EnsureAccount opens a holding account unless an identical one exists.
func EnsureAccount(account, owner, mint solana.PublicKey) Op {
	op := CreateAccount(account, owner, mint)
	op.IfMissing = true
	return op
}

// Transfer moves amount between two accounts of one mint.
func Transfer(from, to solana.PublicKey, amount uint64, authority solana.PublicKey) Op {
	return Op{Kind: OpTransfer, From: from, To: to, Amount: amount, Authority: authority}
}

// MintTo increases supply and credits account.
func MintTo(mint, account solana.PublicKey, amount uint64, authority solana.PublicKey) Op {
	return Op{Kind: OpMintTo, Mint: mint, Account: account, Amount: amount, Authority: authority}
}

// Burn decreases supply and debits account.
func Burn(mint, account solana.PublicKey, amount uint64, authority solana.PublicKey) Op {
	return Op{Kind: OpBurn, Mint: mint, Account: account, Amount: amount, Authority: authority}
}

// WriteConfig stores a pool config under key. The key itself must authorize.
func WriteConfig(key solana.PublicKey, cfg pool.Config, create bool) Op {
	return Op{Kind: OpWriteConfig, ConfigKey: key, Config: cfg, Create: create, Authority: key}
}
