package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// AggregateConfig holds configuration for aggregation.
type AggregateConfig struct {
	Input         string
	Window        string
	PGDSN         string
	EnsureSchema  bool
	BatchSize     int
	StateFile     string
	StateName     string
	RecomputeFrom string
	Ledger        string
	Program       string
	LogLevel      string
}

// LoadAggregate merges config file, environment variables, and flags into AggregateConfig.
func LoadAggregate(cfgFile string, flags *pflag.FlagSet) (AggregateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":            "./data/typed_events.jsonl",
		"window":        "5m",
		"ensure-schema": false,
		"batch-size":    1000,
		"state-name":    "aggregate",
		"ledger":        "./data/ledger.json",
		"program":       DefaultProgramID,
		"log-level":     "info",
	})
	if err != nil {
		return AggregateConfig{}, err
	}

	return AggregateConfig{
		Input:         v.GetString("in"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		EnsureSchema:  v.GetBool("ensure-schema"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		StateName:     v.GetString("state-name"),
		RecomputeFrom: v.GetString("recompute-from"),
		Ledger:        v.GetString("ledger"),
		Program:       v.GetString("program"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}
	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
