package model

// DecodeError records a journal line that could not be decoded.
type DecodeError struct {
	Sequence uint64 `json:"sequence"`
	OpID     string `json:"op_id"`
	LogIndex uint64 `json:"log_index"`
	Pool     string `json:"pool"`
	Topic0   string `json:"topic0"`
	Error    string `json:"error"`
}
