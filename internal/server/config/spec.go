package config

import "time"

// ServerConfig is the root configuration for assetgw-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Ledger  LedgerSection  `koanf:"ledger"`
	Log     LogSection     `koanf:"log"`
	Metrics MetricsSection `koanf:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr               string        `koanf:"addr"`
	TLSCertFile        string        `koanf:"tls_cert_file"`
	TLSKeyFile         string        `koanf:"tls_key_file"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	RateLimit          int           `koanf:"rate_limit"`
	RateBurst          int           `koanf:"rate_burst"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`

	// TrustedProxies are the peers (IPs or CIDR blocks) whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// TLS reports whether HTTPS is configured.
func (c HTTPConfig) TLS() bool {
	return c.TLSCertFile != "" || c.TLSKeyFile != ""
}

// LedgerSection configures the ledger network connection.
type LedgerSection struct {
	Profile ProfileConfig `koanf:"profile"`
	Wallet  WalletConfig  `koanf:"wallet"`

	// Identity is the wallet label used when a request names none.
	Identity string `koanf:"identity"`

	// AllowedIdentities may be named by the X-Ledger-Identity header.
	// Empty disables the header.
	AllowedIdentities []string `koanf:"allowed_identities"`
	Channel  string `koanf:"channel"`
	Contract string `koanf:"contract"`

	// DispatchTimeout bounds one whole dispatch, session setup included.
	DispatchTimeout     time.Duration `koanf:"dispatch_timeout"`
	DialTimeout         time.Duration `koanf:"dial_timeout"`
	EvaluateTimeout     time.Duration `koanf:"evaluate_timeout"`
	EndorseTimeout      time.Duration `koanf:"endorse_timeout"`
	SubmitTimeout       time.Duration `koanf:"submit_timeout"`
	CommitStatusTimeout time.Duration `koanf:"commit_status_timeout"`

	Pool PoolConfig `koanf:"pool"`
}

// ProfileConfig locates the connection profile.
type ProfileConfig struct {
	Path string `koanf:"path"`
	// Peer selects the gateway peer; empty picks the client
	// organization's first peer.
	Peer string `koanf:"peer"`
}

// WalletConfig configures the identity store.
type WalletConfig struct {
	Type  string `koanf:"type"`
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`

	// EncryptionKey seals badger records at rest: 32 bytes as hex or
	// base64.
	EncryptionKey string `koanf:"encryption_key"`
}

// PoolConfig configures per-identity session pooling.
type PoolConfig struct {
	Enabled bool          `koanf:"enabled"`
	MaxIdle int           `koanf:"max_idle"`
	MaxAge  time.Duration `koanf:"max_age"`
}

// LogSection configures logging.
type LogSection struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AddSource bool   `koanf:"add_source"`
}

// MetricsSection configures the /metrics endpoint.
type MetricsSection struct {
	Enabled   bool     `koanf:"enabled"`
	AllowList []string `koanf:"allow_list"`
}
