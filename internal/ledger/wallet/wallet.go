package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yndnr/assetgw-go/internal/core/domain"
)

// Backend types.
const (
	TypeFile   = "file"
	TypeBadger = "badger"
)

// IdentityTypeX509 is the only supported credential type.
const IdentityTypeX509 = "X.509"

// identityFileVersion is the version written into identity records.
const identityFileVersion = 1

// Credential is the identity material for one named principal.
type Credential struct {
	Label       string
	MSPID       string
	Type        string
	Certificate []byte // PEM
	PrivateKey  []byte // PEM
}

// LogValue keeps key material out of logs.
func (c *Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("label", c.Label),
		slog.String("msp_id", c.MSPID),
		slog.String("type", c.Type),
	)
}

// Store resolves identity labels to credentials.
type Store interface {
	// Resolve returns the credential for label, or a
	// domain.ErrIdentityNotFound error when it does not exist.
	Resolve(ctx context.Context, label string) (*Credential, error)
}

// Wallet is a Store that can also be managed.
type Wallet interface {
	Store

	// List returns all identity labels in lexical order.
	List(ctx context.Context) ([]string, error)

	// Put stores or replaces a credential.
	Put(ctx context.Context, cred *Credential) error

	// Remove deletes an identity. Removing a missing identity returns
	// domain.ErrIdentityNotFound.
	Remove(ctx context.Context, label string) error

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a wallet backend.
type Config struct {
	Type   string
	Path   string
	Logger *slog.Logger

	// EncryptionKey encrypts records at rest. Only the badger backend
	// supports it; file wallets keep the SDK layout.
	EncryptionKey []byte
}

// Open opens the wallet backend described by cfg.
func Open(cfg Config) (Wallet, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	switch strings.ToLower(cfg.Type) {
	case "", TypeFile:
		if len(cfg.EncryptionKey) > 0 {
			return nil, fmt.Errorf("wallet: encryption requires the %s backend", TypeBadger)
		}
		return NewFileStore(cfg.Path, cfg.Logger)
	case TypeBadger:
		return NewBadgerStore(cfg.Path, cfg.Logger, WithEncryptionKey(cfg.EncryptionKey))
	default:
		return nil, fmt.Errorf("wallet: unknown type %q", cfg.Type)
	}
}

// ValidateLabel rejects labels that cannot be stored safely.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return domain.ErrMissingArgument.WithDetails("identity label is required")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return domain.ErrInvalidArgument.WithDetailsf("invalid identity label %q", label)
	}
	return nil
}

// identityRecord is the on-disk JSON layout of one identity.
type identityRecord struct {
	Credentials struct {
		Certificate string `json:"certificate"`
		PrivateKey  string `json:"privateKey"`
	} `json:"credentials"`
	MSPID   string `json:"mspId"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

func encodeCredential(cred *Credential) ([]byte, error) {
	if err := validateCredential(cred); err != nil {
		return nil, err
	}

	var rec identityRecord
	rec.Credentials.Certificate = string(cred.Certificate)
	rec.Credentials.PrivateKey = string(cred.PrivateKey)
	rec.MSPID = cred.MSPID
	rec.Type = cred.Type
	if rec.Type == "" {
		rec.Type = IdentityTypeX509
	}
	rec.Version = identityFileVersion

	return json.MarshalIndent(&rec, "", "  ")
}

func decodeCredential(label string, data []byte) (*Credential, error) {
	var rec identityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.ErrIdentityInvalid.WithDetails(label).WithCause(err)
	}

	cred := &Credential{
		Label:       label,
		MSPID:       rec.MSPID,
		Type:        rec.Type,
		Certificate: []byte(rec.Credentials.Certificate),
		PrivateKey:  []byte(rec.Credentials.PrivateKey),
	}
	if cred.Type == "" {
		cred.Type = IdentityTypeX509
	}

	if err := validateCredential(cred); err != nil {
		return nil, domain.ErrIdentityInvalid.WithDetails(label).WithCause(err)
	}
	return cred, nil
}

func validateCredential(cred *Credential) error {
	if cred == nil {
		return domain.ErrMissingArgument.WithDetails("credential is required")
	}
	if err := ValidateLabel(cred.Label); err != nil {
		return err
	}
	if cred.MSPID == "" {
		return domain.ErrMissingArgument.WithDetails("mspId is required")
	}
	if cred.Type != "" && cred.Type != IdentityTypeX509 {
		return domain.ErrInvalidArgument.WithDetailsf("unsupported identity type %q", cred.Type)
	}
	if len(cred.Certificate) == 0 {
		return domain.ErrMissingArgument.WithDetails("certificate is required")
	}
	if len(cred.PrivateKey) == 0 {
		return domain.ErrMissingArgument.WithDetails("private key is required")
	}
	return nil
}
