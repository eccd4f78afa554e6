package model

// Event names as they appear in typed event records.
const (
	EventPoolInitialized  = "PoolInitialized"
	EventDeposit          = "Deposit"
	EventWithdraw         = "Withdraw"
	EventSwap             = "Swap"
	EventLockChanged      = "LockChanged"
	EventAuthorityChanged = "AuthorityChanged"
)

// PoolInitializedEventData is the decoded PoolInitialized payload.
type PoolInitializedEventData struct {
	Initializer string `json:"initializer"`
	Seed        uint64 `json:"seed"`
	MintX       string `json:"mint_x"`
	MintY       string `json:"mint_y"`
	MintLP      string `json:"mint_lp"`
	FeeBps      uint16 `json:"fee_bps"`
	Authority   string `json:"authority,omitempty"`
}

// DepositEventData is the decoded Deposit payload. Reserves are post-operation.
type DepositEventData struct {
	Provider     string `json:"provider"`
	AmountX      string `json:"amount_x"`
	AmountY      string `json:"amount_y"`
	Shares       string `json:"shares"`
	LockedShares string `json:"locked_shares"`
	ReserveX     string `json:"reserve_x"`
	ReserveY     string `json:"reserve_y"`
	Supply       string `json:"supply"`
}

// WithdrawEventData is the decoded Withdraw payload.
type WithdrawEventData struct {
	Provider string `json:"provider"`
	AmountX  string `json:"amount_x"`
	AmountY  string `json:"amount_y"`
	Shares   string `json:"shares"`
	ReserveX string `json:"reserve_x"`
	ReserveY string `json:"reserve_y"`
	Supply   string `json:"supply"`
}

// SwapEventData is the decoded Swap payload. Fee is denominated in the
// input asset.
type SwapEventData struct {
	Trader    string `json:"trader"`
	SellX     bool   `json:"sell_x"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	Fee       string `json:"fee"`
	ReserveX  string `json:"reserve_x"`
	ReserveY  string `json:"reserve_y"`
	Supply    string `json:"supply"`
}

// LockChangedEventData is the decoded LockChanged payload.
type LockChangedEventData struct {
	Signer string `json:"signer"`
	Locked bool   `json:"locked"`
}

// AuthorityChangedEventData is the decoded AuthorityChanged payload. An
// empty Authority means it was renounced.
type AuthorityChangedEventData struct {
	Signer    string `json:"signer"`
	Authority string `json:"authority,omitempty"`
}
