package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr      string `koanf:"addr"`
			RateLimit int    `koanf:"rate_limit"`
		} `koanf:"http"`
	} `koanf:"server"`
	Ledger struct {
		Channel         string        `koanf:"channel"`
		DispatchTimeout time.Duration `koanf:"dispatch_timeout"`
		Peers           []string      `koanf:"peers"`
	} `koanf:"ledger"`
}

var testKeys = []string{
	"server.http.addr",
	"server.http.rate_limit",
	"ledger.channel",
	"ledger.dispatch_timeout",
	"ledger.peers",
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assetgw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	cfg := testConfig{}
	cfg.Ledger.Channel = "mychannel"
	cfg.Ledger.DispatchTimeout = time.Minute

	l := NewLoader()
	require.NoError(t, l.Load(&cfg))

	assert.True(t, l.IsLoaded())
	assert.Equal(t, "mychannel", cfg.Ledger.Channel)
	assert.Equal(t, time.Minute, cfg.Ledger.DispatchTimeout)
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  http:
    addr: ":3000"
ledger:
  channel: assets
  dispatch_timeout: 30s
  peers: [peer0, peer1]
`)
	var cfg testConfig
	cfg.Ledger.Channel = "mychannel"

	require.NoError(t, NewLoader(WithConfigFile(path)).Load(&cfg))

	assert.Equal(t, ":3000", cfg.Server.HTTP.Addr)
	assert.Equal(t, "assets", cfg.Ledger.Channel)
	assert.Equal(t, 30*time.Second, cfg.Ledger.DispatchTimeout)
	assert.Equal(t, []string{"peer0", "peer1"}, cfg.Ledger.Peers)
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile("/nonexistent/assetgw.yaml")).Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/assetgw.yaml")
}

func TestLoader_LoadFile_Invalid(t *testing.T) {
	path := writeFile(t, "server: [unclosed")
	var cfg testConfig
	assert.Error(t, NewLoader(WithConfigFile(path)).Load(&cfg))
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  http:\n    addr: from-file:3000\n")
	t.Setenv("ASSETGW_SERVER_HTTP_ADDR", "from-env:8080")

	var cfg testConfig
	require.NoError(t, NewLoader(WithConfigFile(path)).Load(&cfg))
	assert.Equal(t, "from-env:8080", cfg.Server.HTTP.Addr)
}

func TestLoader_EnvKnownKeys(t *testing.T) {
	t.Setenv("ASSETGW_LEDGER_DISPATCH_TIMEOUT", "45s")
	t.Setenv("ASSETGW_SERVER_HTTP_RATE_LIMIT", "7")
	t.Setenv("ASSETGW_LEDGER_PEERS", "a,b")

	var cfg testConfig
	require.NoError(t, NewLoader(WithKnownKeys(testKeys)).Load(&cfg))

	assert.Equal(t, 45*time.Second, cfg.Ledger.DispatchTimeout)
	assert.Equal(t, 7, cfg.Server.HTTP.RateLimit)
	assert.Equal(t, []string{"a", "b"}, cfg.Ledger.Peers)
}

func TestLoader_EnvUnknownUnderscoreKey(t *testing.T) {
	t.Setenv("ASSETGW_LEDGER_DISPATCH_TIMEOUT", "45s")

	var cfg testConfig
	require.NoError(t, NewLoader().Load(&cfg))

	// Without the key list the name splits at every underscore.
	assert.Zero(t, cfg.Ledger.DispatchTimeout)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("GW_LEDGER_CHANNEL", "custom")
	t.Setenv("ASSETGW_LEDGER_CHANNEL", "ignored")

	var cfg testConfig
	require.NoError(t, NewLoader(WithEnvPrefix("GW_")).Load(&cfg))
	assert.Equal(t, "custom", cfg.Ledger.Channel)
}

func TestLoader_LoadMapOverrides(t *testing.T) {
	t.Setenv("ASSETGW_LEDGER_CHANNEL", "from-env")

	l := NewLoader()
	var cfg testConfig
	require.NoError(t, l.Load(&cfg))
	require.NoError(t, l.LoadMap(map[string]any{
		"ledger": map[string]any{"channel": "from-flag"},
	}))
	require.NoError(t, l.Unmarshal(&cfg))

	assert.Equal(t, "from-flag", cfg.Ledger.Channel)
	assert.Equal(t, "from-flag", l.GetString("ledger.channel"))
	assert.Contains(t, l.Keys(), "ledger.channel")
}

func TestMapProvider_ReadBytes(t *testing.T) {
	_, err := mapProvider{}.ReadBytes()
	assert.ErrorIs(t, err, ErrReadBytesNotSupported)
}
