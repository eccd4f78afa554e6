package model

// PoolMeta is the pool configuration attached to each typed event.
type PoolMeta struct {
	Seed   uint64 `json:"seed"`
	MintX  string `json:"mint_x"`
	MintY  string `json:"mint_y"`
	MintLP string `json:"mint_lp"`
	FeeBps uint16 `json:"fee_bps"`
}

// Complete reports whether both asset mints are known.
func (m PoolMeta) Complete() bool {
	return m.MintX != "" && m.MintY != ""
}
