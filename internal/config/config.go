// Package config loads ledgerlens configuration.
//
// Sources are applied in order, each overriding the last:
//  1. Built-in defaults (Default)
//  2. A config file: YAML (.yaml, .yml) or CUE (.cue)
//  3. LEDGERLENS_* environment variables
//
// The merged result is checked with Validate before use.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/ledger/rpc"
	"github.com/roach88/ledgerlens/internal/resolve"
)

// EnvConfigPath names the variable consulted when no --config flag is given.
const EnvConfigPath = "LEDGERLENS_CONFIG"

// Config is the effective ledgerlens configuration.
type Config struct {
	RPC      RPC      `yaml:"rpc" json:"rpc"`
	Registry Registry `yaml:"registry" json:"registry"`
	Resolver Resolver `yaml:"resolver" json:"resolver"`

	// Snapshot is a SQLite snapshot database. When set, resolution runs
	// offline and RPC is ignored.
	Snapshot string `yaml:"snapshot,omitempty" json:"snapshot,omitempty" env:"LEDGERLENS_SNAPSHOT"`
}

// RPC configures the JSON-RPC ledger client.
type RPC struct {
	Endpoint string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" env:"LEDGERLENS_RPC_ENDPOINT"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" env:"LEDGERLENS_RPC_TIMEOUT"`
}

// Registry addresses the project registry container.
type Registry struct {
	ID         string `yaml:"id,omitempty" json:"id,omitempty" env:"LEDGERLENS_REGISTRY_ID"`
	TableField string `yaml:"table_field" json:"table_field" env:"LEDGERLENS_REGISTRY_TABLE_FIELD"`
}

// Resolver tunes the resolution cascade.
type Resolver struct {
	RecordType        string `yaml:"record_type" json:"record_type" env:"LEDGERLENS_RECORD_TYPE"`
	CreationEventType string `yaml:"creation_event_type" json:"creation_event_type" env:"LEDGERLENS_CREATION_EVENT_TYPE"`
	PageSize          int    `yaml:"page_size" json:"page_size" env:"LEDGERLENS_PAGE_SIZE"`
	FanOut            int    `yaml:"fan_out" json:"fan_out" env:"LEDGERLENS_FAN_OUT"`
	EventWindow       int    `yaml:"event_window" json:"event_window" env:"LEDGERLENS_EVENT_WINDOW"`
	OwnedScanLimit    int    `yaml:"owned_scan_limit" json:"owned_scan_limit" env:"LEDGERLENS_OWNED_SCAN_LIMIT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RPC: RPC{Timeout: rpc.DefaultTimeout},
		Registry: Registry{
			TableField: resolve.DefaultTableField,
		},
		Resolver: Resolver{
			RecordType:        resolve.DefaultRecordType,
			CreationEventType: resolve.DefaultCreationEventType,
			PageSize:          ledger.MaxPageSize,
			FanOut:            resolve.DefaultFanOut,
			EventWindow:       resolve.DefaultEventWindow,
			OwnedScanLimit:    resolve.DefaultOwnedScanLimit,
		},
	}
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	if c.RPC.Endpoint != "" {
		u, err := url.Parse(c.RPC.Endpoint)
		if err != nil {
			return fmt.Errorf("rpc.endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("rpc.endpoint %q: scheme must be http or https", c.RPC.Endpoint)
		}
	}
	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive, got %s", c.RPC.Timeout)
	}
	if strings.TrimSpace(c.Registry.TableField) == "" {
		return fmt.Errorf("registry.table_field is required")
	}
	if strings.TrimSpace(c.Resolver.RecordType) == "" {
		return fmt.Errorf("resolver.record_type is required")
	}
	if strings.TrimSpace(c.Resolver.CreationEventType) == "" {
		return fmt.Errorf("resolver.creation_event_type is required")
	}

	bounds := []struct {
		name     string
		value    int
		min, max int
	}{
		{"resolver.page_size", c.Resolver.PageSize, 1, ledger.MaxPageSize},
		{"resolver.fan_out", c.Resolver.FanOut, 1, resolve.MaxFanOut},
		{"resolver.event_window", c.Resolver.EventWindow, 1, 1000},
		{"resolver.owned_scan_limit", c.Resolver.OwnedScanLimit, 1, 10000},
	}
	for _, b := range bounds {
		if b.value < b.min || b.value > b.max {
			return fmt.Errorf("%s must be in [%d, %d], got %d", b.name, b.min, b.max, b.value)
		}
	}
	return nil
}

// ValidateOnline checks the constraints that only apply when resolving
// against rpc.endpoint. Snapshots match event types partially; nodes filter
// by exact struct tag.
func (c Config) ValidateOnline() error {
	if !qualified(c.Resolver.CreationEventType) {
		return fmt.Errorf("resolver.creation_event_type %q must be fully qualified (address::module::Name) when resolving over rpc",
			c.Resolver.CreationEventType)
	}
	return nil
}

// Settings converts the resolver section for resolve.New.
func (c Config) Settings() resolve.Settings {
	return resolve.Settings{
		RecordType:        c.Resolver.RecordType,
		TableField:        c.Registry.TableField,
		CreationEventType: c.Resolver.CreationEventType,
		PageSize:          c.Resolver.PageSize,
		FanOut:            c.Resolver.FanOut,
		EventWindow:       c.Resolver.EventWindow,
		OwnedScanLimit:    c.Resolver.OwnedScanLimit,
	}
}

// ClientConfig converts the rpc section for rpc.NewClient.
func (c Config) ClientConfig() rpc.ClientConfig {
	return rpc.ClientConfig{Endpoint: c.RPC.Endpoint, Timeout: c.RPC.Timeout}
}

// qualified reports whether typ has address, module and name segments.
func qualified(typ string) bool {
	parts := strings.Split(strings.TrimSpace(typ), "::")
	if len(parts) < 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return strings.HasPrefix(parts[0], "0x")
}
