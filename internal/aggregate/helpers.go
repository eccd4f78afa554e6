package aggregate

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

const ratioScale = 18

var yearSeconds = decimal.NewFromInt(int64(365 * 24 * time.Hour / time.Second))

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).StringFixed(int32(decimals))
}

func computeFeeRates(feeX, feeY, tvlX, tvlY *big.Int) (*string, *string) {
	var rateX, rateY *string
	if rate := computeRate(feeX, tvlX); rate != "" {
		rateX = &rate
	}
	if rate := computeRate(feeY, tvlY); rate != "" {
		rateY = &rate
	}
	return rateX, rateY
}

// computeRate is fee/tvl in raw units of the same asset.
func computeRate(fee, tvl *big.Int) string {
	if fee == nil || fee.Sign() == 0 || tvl == nil || tvl.Sign() == 0 {
		return ""
	}
	return decimal.NewFromBigInt(fee, 0).
		DivRound(decimal.NewFromBigInt(tvl, 0), ratioScale).
		StringFixed(ratioScale)
}

// computeAPR annualizes the window yield. At the pool's own price both
// reserves hold equal value, so the yield is the mean of the two rates.
func computeAPR(rateX, rateY *string, windowSeconds uint64) *string {
	if windowSeconds == 0 || (rateX == nil && rateY == nil) {
		return nil
	}
	total := decimal.Zero
	for _, rate := range []*string{rateX, rateY} {
		if rate == nil {
			continue
		}
		parsed, err := decimal.NewFromString(*rate)
		if err != nil {
			return nil
		}
		total = total.Add(parsed)
	}
	apr := total.Mul(yearSeconds).
		DivRound(decimal.NewFromInt(int64(2*windowSeconds)), ratioScale)
	val := apr.StringFixed(ratioScale)
	return &val
}
