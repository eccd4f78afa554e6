package curve

import "errors"

var (
	ErrZeroAmount                   = errors.New("amount must be greater than zero")
	ErrEmptyPool                    = errors.New("pool has no liquidity")
	ErrSharesExceedSupply           = errors.New("shares exceed outstanding supply")
	ErrInsufficientInitialLiquidity = errors.New("initial liquidity does not exceed minimum liquidity")
	ErrInvalidFee                   = errors.New("fee must be below 10000 basis points")
	ErrZeroOutput                   = errors.New("swap output rounds to zero")
	ErrReserveExhausted             = errors.New("swap would drain the output reserve")
	ErrInvariantViolated            = errors.New("swap decreases the reserve product")
	ErrInvalidSide                  = errors.New("invalid swap side")
)
