package model

// Pool is a pool record for storage.
type Pool struct {
	Program      string `json:"program"`
	Address      string `json:"address"`
	Seed         uint64 `json:"seed"`
	MintX        string `json:"mint_x"`
	MintY        string `json:"mint_y"`
	MintLP       string `json:"mint_lp"`
	FeeBps       uint16 `json:"fee_bps"`
	FirstSeenSeq uint64 `json:"first_seen_seq"`
}
