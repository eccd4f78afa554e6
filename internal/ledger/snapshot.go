package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/pool"
)

type snapshot struct {
	ProgramID solana.PublicKey `json:"program_id"`
	Sequence  uint64           `json:"sequence"`
	Mints     []Mint           `json:"mints"`
	Accounts  []Account        `json:"accounts"`
	Configs   []configRecord   `json:"configs"`
	SavedAt   string           `json:"saved_at"`
}

type configRecord struct {
	Key    solana.PublicKey `json:"key"`
	Config pool.Config      `json:"config"`
}

// Save writes the ledger state to path via a temp file and rename.
func (m *Memory) Save(path string) error {
	m.mu.RLock()
	snap := snapshot{
		ProgramID: m.programID,
		Sequence:  m.state.sequence,
		Mints:     make([]Mint, 0, len(m.state.mints)),
		Accounts:  make([]Account, 0, len(m.state.accounts)),
		Configs:   make([]configRecord, 0, len(m.state.configs)),
		SavedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, mint := range m.state.mints {
		snap.Mints = append(snap.Mints, mint)
	}
	for _, acc := range m.state.accounts {
		snap.Accounts = append(snap.Accounts, acc)
	}
	for key, cfg := range m.state.configs {
		snap.Configs = append(snap.Configs, configRecord{Key: key, Config: copyConfig(cfg)})
	}
	m.mu.RUnlock()

	sort.Slice(snap.Mints, func(i, j int) bool { return snap.Mints[i].Key.String() < snap.Mints[j].Key.String() })
	sort.Slice(snap.Accounts, func(i, j int) bool { return snap.Accounts[i].Key.String() < snap.Accounts[j].Key.String() })
	sort.Slice(snap.Configs, func(i, j int) bool { return snap.Configs[i].Key.String() < snap.Configs[j].Key.String() })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

// LoadMemory restores a ledger saved by Save. A missing file yields an empty
// ledger for programID.
func LoadMemory(path string, programID solana.PublicKey, opts ...MemoryOption) (*Memory, error) {
	m := NewMemory(programID, opts...)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}
	if !snap.ProgramID.Equals(programID) {
		return nil, fmt.Errorf("ledger belongs to program %s, not %s", snap.ProgramID, programID)
	}

	m.state.sequence = snap.Sequence
	for _, mint := range snap.Mints {
		m.state.mints[mint.Key] = mint
	}
	for _, acc := range snap.Accounts {
		m.state.accounts[acc.Key] = acc
	}
	for _, rec := range snap.Configs {
		m.state.configs[rec.Key] = rec.Config
	}
	return m, nil
}
