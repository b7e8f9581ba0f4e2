package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk configuration for the registry daemon.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	NetworkName   string `toml:"NetworkName"`
	Environment   string `toml:"Environment"`

	// OnftAPIURL is the base URL of the external NFT ledger API.
	OnftAPIURL string `toml:"OnftAPIURL"`
	// ChannelsCollectionID names the NFT collection holding channel
	// ownership tokens.
	ChannelsCollectionID string `toml:"ChannelsCollectionID"`
	// ChannelCreationFeeDenom and ChannelCreationFeeAmount describe the
	// exact payment required to create a channel.
	ChannelCreationFeeDenom  string `toml:"ChannelCreationFeeDenom"`
	ChannelCreationFeeAmount uint64 `toml:"ChannelCreationFeeAmount"`
	// AcceptedTipDenoms whitelists tip denominations. Empty accepts all.
	AcceptedTipDenoms []string `toml:"AcceptedTipDenoms"`
	ProtocolAdmin     string   `toml:"ProtocolAdmin"`
	FeeCollector      string   `toml:"FeeCollector"`

	// PausedModules lists module names rejected at the guard.
	PausedModules []string `toml:"PausedModules"`
}

// Load reads the configuration from path, writing a commented default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "channeld-local"
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = "0.0.0.0:8651"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./channeld-data"
	}
	if strings.TrimSpace(c.ChannelsCollectionID) == "" {
		c.ChannelsCollectionID = "channels"
	}
	if strings.TrimSpace(c.OnftAPIURL) == "" {
		c.OnftAPIURL = "http://127.0.0.1:1317"
	}
	if c.AcceptedTipDenoms == nil {
		c.AcceptedTipDenoms = []string{}
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
	if strings.TrimSpace(c.FeeCollector) == "" {
		c.FeeCollector = c.ProtocolAdmin
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProtocolAdmin) == "" {
		return fmt.Errorf("config: ProtocolAdmin must be set")
	}
	if c.ChannelCreationFeeAmount > 0 && strings.TrimSpace(c.ChannelCreationFeeDenom) == "" {
		return fmt.Errorf("config: ChannelCreationFeeDenom required when a fee amount is set")
	}
	return nil
}

// IsPaused implements the pause view over the configured module list.
func (c *Config) IsPaused(module string) bool {
	for _, m := range c.PausedModules {
		if m == module {
			return true
		}
	}
	return false
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:            "0.0.0.0:8651",
		DataDir:                  "./channeld-data",
		NetworkName:              "channeld-local",
		ChannelsCollectionID:     "channels",
		ChannelCreationFeeDenom:  "uflix",
		ChannelCreationFeeAmount: 1_000_000,
		AcceptedTipDenoms:        []string{},
		ProtocolAdmin:            "",
		PausedModules:            []string{},
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
