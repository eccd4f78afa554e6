package model

import "encoding/json"

// TypedEventRecord is the JSON form of TypedEvent read back for aggregation.
type TypedEventRecord struct {
	Program   string          `json:"program"`
	Sequence  uint64          `json:"sequence"`
	OpID      string          `json:"op_id"`
	LogIndex  uint64          `json:"log_index"`
	Pool      string          `json:"pool"`
	EventName string          `json:"event_name"`
	Timestamp uint64          `json:"timestamp"`
	Decoded   json.RawMessage `json:"decoded"`
	PoolMeta  PoolMeta        `json:"pool_meta"`
	Raw       *RawLogRef      `json:"raw,omitempty"`
}
