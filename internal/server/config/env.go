package config

import (
	"net"
	"reflect"
	"strings"
)

// Variables understood by earlier deployments of the gateway.
const (
	EnvPort       = "PORT"
	EnvCCPPath    = "CCP_PATH"
	EnvWalletPath = "WALLET_PATH"
)

// ApplyLegacyEnv applies PORT, CCP_PATH and WALLET_PATH. Each is
// ignored when the matching ASSETGW_ variable is set, since that one
// has already been loaded.
func ApplyLegacyEnv(cfg *ServerConfig, lookup func(string) (string, bool)) {
	set := func(name string) (string, bool) {
		v, ok := lookup(name)
		return v, ok && strings.TrimSpace(v) != ""
	}
	shadowed := func(key string) bool {
		_, ok := lookup(EnvName(key))
		return ok
	}

	if port, ok := set(EnvPort); ok && !shadowed("server.http.addr") {
		host, _, err := net.SplitHostPort(cfg.Server.HTTP.Addr)
		if err != nil {
			host = ""
		}
		cfg.Server.HTTP.Addr = net.JoinHostPort(host, strings.TrimSpace(port))
	}
	if path, ok := set(EnvCCPPath); ok && !shadowed("ledger.profile.path") {
		cfg.Ledger.Profile.Path = path
	}
	if path, ok := set(EnvWalletPath); ok && !shadowed("ledger.wallet.path") {
		cfg.Ledger.Wallet.Path = path
	}
}

// EnvPrefix prefixes every environment variable of the gateway.
const EnvPrefix = "ASSETGW_"

// EnvName returns the environment variable for a key path:
// ledger.pool.max_idle becomes ASSETGW_LEDGER_POOL_MAX_IDLE.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Keys returns the dotted koanf path of every leaf setting.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(ServerConfig{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() == t.PkgPath() {
			collectKeys(f.Type, key, keys)
			continue
		}
		*keys = append(*keys, key)
	}
}
