package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the TOML configuration of the dispatcher binary.
type Config struct {
	Chain      ChainConfig      `toml:"chain"`
	Broker     BrokerConfig     `toml:"broker"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Log        LogConfig        `toml:"log"`
}

type ChainConfig struct {
	// URL of the chain JSON-RPC endpoint.
	URL     string `toml:"url"`
	ChainID int64  `toml:"chain-id"`

	// HistoryContract is the address of the claim history contract,
	// StartBlock its deployment block (the fold window lower bound).
	HistoryContract string `toml:"history-contract"`
	StartBlock      uint64 `toml:"start-block"`

	// DApp is the application the dispatcher reconciles claims for.
	DApp string `toml:"dapp"`

	// KeyFile holds the hex-encoded submission key.
	KeyFile string `toml:"key-file"`
}

type BrokerConfig struct {
	// Mode selects the claim feed implementation: "ws" subscribes to a
	// remote broker over websocket, "level" reads a local leveldb queue.
	Mode string `toml:"mode"`

	WSURL     string `toml:"ws-url"`
	LevelPath string `toml:"level-path"`
}

type DispatcherConfig struct {
	PollInterval duration `toml:"poll-interval"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max-size-mb"`
	MaxBackups int    `toml:"max-backups"`
}

type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = duration(parsed)

	return nil
}

// LoadConfig reads and validates the TOML config at the given path.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Broker:     BrokerConfig{Mode: "ws"},
		Dispatcher: DispatcherConfig{PollInterval: duration(15 * time.Second)},
		Log:        LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 10},
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Chain.URL == "" {
		return fmt.Errorf("chain.url is required")
	}

	if cfg.Chain.ChainID <= 0 {
		return fmt.Errorf("chain.chain-id is required")
	}

	if !common.IsHexAddress(cfg.Chain.HistoryContract) {
		return fmt.Errorf("chain.history-contract is not a valid address: %q", cfg.Chain.HistoryContract)
	}

	if !common.IsHexAddress(cfg.Chain.DApp) {
		return fmt.Errorf("chain.dapp is not a valid address: %q", cfg.Chain.DApp)
	}

	if cfg.Chain.KeyFile == "" {
		return fmt.Errorf("chain.key-file is required")
	}

	switch cfg.Broker.Mode {
	case "ws":
		if cfg.Broker.WSURL == "" {
			return fmt.Errorf("broker.ws-url is required in ws mode")
		}
	case "level":
		if cfg.Broker.LevelPath == "" {
			return fmt.Errorf("broker.level-path is required in level mode")
		}
	default:
		return fmt.Errorf("unknown broker.mode %q", cfg.Broker.Mode)
	}

	if cfg.Dispatcher.PollInterval <= 0 {
		return fmt.Errorf("dispatcher.poll-interval must be positive")
	}

	return nil
}
