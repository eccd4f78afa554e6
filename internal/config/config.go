package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultProgramID is the program identity used when none is configured.
const DefaultProgramID = "8atdPjoW3xwH1CjSvWofXsZ5UkFq11zm89DC4cqUS5Fd"

// Config holds settings for pool operations.
type Config struct {
	Ledger           string
	Program          string
	MinimumLiquidity uint64
	Journal          string
	JournalEnabled   bool
	JournalSync      bool
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"ledger":            "./data/ledger.json",
		"program":           DefaultProgramID,
		"minimum-liquidity": uint64(1000),
		"journal":           "./data/journal.jsonl",
		"journal-enabled":   true,
		"journal-sync":      false,
		"log-level":         "info",
	})
	if err != nil {
		return Config{}, err
	}

	return Config{
		Ledger:           v.GetString("ledger"),
		Program:          v.GetString("program"),
		MinimumLiquidity: v.GetUint64("minimum-liquidity"),
		Journal:          v.GetString("journal"),
		JournalEnabled:   v.GetBool("journal-enabled"),
		JournalSync:      v.GetBool("journal-sync"),
		LogLevel:         v.GetString("log-level"),
	}, nil
}

// newViper layers defaults, an optional config file, AMM_* environment
// variables and bound flags, in increasing priority.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}
