package config

import (
	"time"

	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = ":3000"
	DefaultWriteTimeout    = 90 * time.Second
	DefaultRateLimit       = 100
	DefaultShutdownTimeout = 30 * time.Second

	DefaultProfilePath = "../test-network/organizations/peerOrganizations/org1.example.com/connection-org1.json"
	DefaultWalletPath  = "./wallet"
	DefaultIdentity    = "appUser"
	DefaultChannel     = "mychannel"
	DefaultContract    = "fabcar"

	DefaultDispatchTimeout     = 60 * time.Second
	DefaultDialTimeout         = 10 * time.Second
	DefaultEvaluateTimeout     = 5 * time.Second
	DefaultEndorseTimeout      = 15 * time.Second
	DefaultSubmitTimeout       = 5 * time.Second
	DefaultCommitStatusTimeout = time.Minute

	DefaultPoolMaxIdle = 4
	DefaultPoolMaxAge  = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				WriteTimeout: DefaultWriteTimeout,
				RateLimit:    DefaultRateLimit,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Ledger: LedgerSection{
			Profile: ProfileConfig{
				Path: DefaultProfilePath,
			},
			Wallet: WalletConfig{
				Type:  wallet.TypeFile,
				Path:  DefaultWalletPath,
				Watch: true,
			},
			Identity:            DefaultIdentity,
			Channel:             DefaultChannel,
			Contract:            DefaultContract,
			DispatchTimeout:     DefaultDispatchTimeout,
			DialTimeout:         DefaultDialTimeout,
			EvaluateTimeout:     DefaultEvaluateTimeout,
			EndorseTimeout:      DefaultEndorseTimeout,
			SubmitTimeout:       DefaultSubmitTimeout,
			CommitStatusTimeout: DefaultCommitStatusTimeout,
			Pool: PoolConfig{
				Enabled: false,
				MaxIdle: DefaultPoolMaxIdle,
				MaxAge:  DefaultPoolMaxAge,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}
