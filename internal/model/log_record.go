package model

// LogRecord is one journaled event in its encoded form. Topics and Data
// are hex strings; topic0 is the event ID.
type LogRecord struct {
	Program    string   `json:"program"`
	Sequence   uint64   `json:"sequence"`
	OpID       string   `json:"op_id"`
	LogIndex   uint64   `json:"log_index"`
	Pool       string   `json:"pool"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	IngestedAt string   `json:"ingested_at"`
}

// Topic0 returns the event ID or an empty string.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}
