package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window.
type PoolWindowMetrics struct {
	Program        string
	PoolAddress    string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	DepositCount   uint64
	WithdrawCount  uint64
	VolumeX        string
	VolumeY        string
	FeeX           string
	FeeY           string
	FeeRateX       *string
	FeeRateY       *string
	TVLX           *string
	TVLY           *string
	APR            *string
	FeeMethod      string
	TVLMethod      string
}
