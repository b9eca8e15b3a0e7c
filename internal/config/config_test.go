package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerlens/internal/resolve"
)

const qualifiedEvent = "0x2a::marketplace::ProjectCreated"

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, resolve.DefaultFanOut, cfg.Settings().FanOut)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "ledgerlens.yaml", `
rpc:
  endpoint: https://fullnode.testnet.example:443
  timeout: 3s
registry:
  id: "0xreg"
resolver:
  creation_event_type: "0x2a::marketplace::ProjectCreated"
  fan_out: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://fullnode.testnet.example:443", cfg.RPC.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, "0xreg", cfg.Registry.ID)
	assert.Equal(t, 4, cfg.Resolver.FanOut)
	// Unset keys keep defaults.
	assert.Equal(t, resolve.DefaultTableField, cfg.Registry.TableField)
	assert.Equal(t, resolve.DefaultEventWindow, cfg.Resolver.EventWindow)
}

func TestLoad_CUE(t *testing.T) {
	path := writeConfig(t, "ledgerlens.cue", `
registry: id: "0xreg"
resolver: {
	fan_out: int & >=1 & <=64 & 16
	event_window: 50
}
snapshot: "offline.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0xreg", cfg.Registry.ID)
	assert.Equal(t, 16, cfg.Resolver.FanOut)
	assert.Equal(t, 50, cfg.Resolver.EventWindow)
	assert.Equal(t, "offline.db", cfg.Snapshot)
}

func TestLoad_CUEConstraintViolation(t *testing.T) {
	path := writeConfig(t, "ledgerlens.cue", `
resolver: fan_out: int & <=64
resolver: fan_out: 100
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledgerlens.cue")
}

func TestLoad_CUENotConcrete(t *testing.T) {
	path := writeConfig(t, "ledgerlens.cue", `registry: id: string`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate cue")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "ledgerlens.yml", `
registry:
  id: "0xfromfile"
resolver:
  page_size: 20
`)
	t.Setenv("LEDGERLENS_REGISTRY_ID", "0xfromenv")
	t.Setenv("LEDGERLENS_RPC_TIMEOUT", "750ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0xfromenv", cfg.Registry.ID)
	assert.Equal(t, 750*time.Millisecond, cfg.RPC.Timeout)
	assert.Equal(t, 20, cfg.Resolver.PageSize)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "ledgerlens.yaml", "registry: {id: \"0xenvpath\"}\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0xenvpath", cfg.Registry.ID)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("LEDGERLENS_FAN_OUT", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unsupported extension", "ledgerlens.toml", "x = 1", "unsupported extension"},
		{"bad yaml", "ledgerlens.yaml", "rpc: [", "parse yaml"},
		{"wrong yaml type", "ledgerlens.yaml", "resolver: {fan_out: lots}", "decode yaml"},
		{"bad cue", "ledgerlens.cue", "resolver: {", "compile cue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"endpoint with short event", func(c *Config) {
			c.RPC.Endpoint = "http://localhost:9000"
		}, ""},
		{"endpoint scheme", func(c *Config) {
			c.RPC.Endpoint = "ftp://node"
			c.Resolver.CreationEventType = qualifiedEvent
		}, "scheme must be http or https"},
		{"zero timeout", func(c *Config) { c.RPC.Timeout = 0 }, "rpc.timeout"},
		{"empty table field", func(c *Config) { c.Registry.TableField = " " }, "registry.table_field"},
		{"empty record type", func(c *Config) { c.Resolver.RecordType = "" }, "resolver.record_type"},
		{"empty event type", func(c *Config) { c.Resolver.CreationEventType = "" }, "resolver.creation_event_type"},
		{"page size too large", func(c *Config) { c.Resolver.PageSize = 201 }, "resolver.page_size"},
		{"fan out zero", func(c *Config) { c.Resolver.FanOut = 0 }, "resolver.fan_out"},
		{"fan out too large", func(c *Config) { c.Resolver.FanOut = resolve.MaxFanOut + 1 }, "resolver.fan_out"},
		{"event window zero", func(c *Config) { c.Resolver.EventWindow = 0 }, "resolver.event_window"},
		{"owned scan limit zero", func(c *Config) { c.Resolver.OwnedScanLimit = 0 }, "resolver.owned_scan_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateOnline(t *testing.T) {
	cfg := Default()
	cfg.RPC.Endpoint = "http://localhost:9000"
	err := cfg.ValidateOnline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be fully qualified")

	cfg.Resolver.CreationEventType = qualifiedEvent
	assert.NoError(t, cfg.ValidateOnline())
}

func TestQualified(t *testing.T) {
	assert.True(t, qualified(qualifiedEvent))
	assert.True(t, qualified("0x2::table::Table<u64, 0x2a::m::P>"))
	assert.False(t, qualified("ProjectCreated"))
	assert.False(t, qualified("marketplace::ProjectCreated"))
	assert.False(t, qualified("x::marketplace::ProjectCreated"))
	assert.False(t, qualified("0x2a::::ProjectCreated"))
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.RPC.Endpoint = "http://localhost:9000"
	cfg.Registry.TableField = "listings"

	assert.Equal(t, "listings", cfg.Settings().TableField)
	cc := cfg.ClientConfig()
	assert.Equal(t, "http://localhost:9000", cc.Endpoint)
	assert.Equal(t, cfg.RPC.Timeout, cc.Timeout)
}
