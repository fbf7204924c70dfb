package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
	"github.com/yndnr/assetgw-go/internal/telemetry/logger"
	"github.com/yndnr/assetgw-go/pkg/crypto/adaptive"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyLedger(&cfg.Ledger)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error

	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err))
	}
	if cfg.HTTP.TLS() {
		if cfg.HTTP.TLSCertFile == "" || cfg.HTTP.TLSKeyFile == "" {
			errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
		}
		for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); err != nil {
				errs = append(errs, fmt.Errorf("server.http TLS file: %w", err))
			}
		}
	}
	if cfg.HTTP.RateLimit < 0 || cfg.HTTP.RateBurst < 0 {
		errs = append(errs, errors.New("server.http.rate_limit and rate_burst must not be negative"))
	}
	if cfg.HTTP.WriteTimeout < 0 {
		errs = append(errs, errors.New("server.http.write_timeout must not be negative"))
	}
	for _, entry := range cfg.HTTP.TrustedProxies {
		if !validNetwork(entry) {
			errs = append(errs, fmt.Errorf("server.http.trusted_proxies %q: not an IP or CIDR block", entry))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func validNetwork(entry string) bool {
	entry = strings.TrimSpace(entry)
	if net.ParseIP(entry) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(entry)
	return err == nil
}

func verifyLedger(cfg *LedgerSection) []error {
	var errs []error

	if strings.TrimSpace(cfg.Profile.Path) == "" {
		errs = append(errs, errors.New("ledger.profile.path is required"))
	}
	if strings.TrimSpace(cfg.Wallet.Path) == "" {
		errs = append(errs, errors.New("ledger.wallet.path is required"))
	}
	switch strings.ToLower(cfg.Wallet.Type) {
	case wallet.TypeFile, wallet.TypeBadger:
	default:
		errs = append(errs, fmt.Errorf("ledger.wallet.type %q: want %s or %s", cfg.Wallet.Type, wallet.TypeFile, wallet.TypeBadger))
	}
	if cfg.Wallet.EncryptionKey != "" {
		if !strings.EqualFold(cfg.Wallet.Type, wallet.TypeBadger) {
			errs = append(errs, errors.New("ledger.wallet.encryption_key requires wallet type badger"))
		}
		if _, err := adaptive.ParseKey(cfg.Wallet.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("ledger.wallet.encryption_key: %w", err))
		}
	}

	for name, v := range map[string]string{
		"ledger.identity": cfg.Identity,
		"ledger.channel":  cfg.Channel,
		"ledger.contract": cfg.Contract,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	for _, label := range cfg.AllowedIdentities {
		if err := wallet.ValidateLabel(label); err != nil {
			errs = append(errs, fmt.Errorf("ledger.allowed_identities %q: %w", label, err))
		}
	}

	for name, d := range map[string]time.Duration{
		"ledger.dispatch_timeout":      cfg.DispatchTimeout,
		"ledger.dial_timeout":          cfg.DialTimeout,
		"ledger.evaluate_timeout":      cfg.EvaluateTimeout,
		"ledger.endorse_timeout":       cfg.EndorseTimeout,
		"ledger.submit_timeout":        cfg.SubmitTimeout,
		"ledger.commit_status_timeout": cfg.CommitStatusTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if cfg.Pool.Enabled {
		if cfg.Pool.MaxIdle < 1 {
			errs = append(errs, errors.New("ledger.pool.max_idle must be at least 1"))
		}
		if cfg.Pool.MaxAge < 0 {
			errs = append(errs, errors.New("ledger.pool.max_age must not be negative"))
		}
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or text", cfg.Format))
	}
	return errs
}
