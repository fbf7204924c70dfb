package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/assetgw-go/internal/core/domain"
)

// badgerKeyPrefix namespaces identity records inside the database.
const badgerKeyPrefix = "identity/"

// BadgerStore is a wallet kept in an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
	sealer *sealer
}

// BadgerOption configures a BadgerStore.
type BadgerOption func(*badgerOptions)

type badgerOptions struct {
	key []byte
}

// WithEncryptionKey encrypts records written from now on with a 32-byte
// key. Records already stored in plain form stay readable.
func WithEncryptionKey(key []byte) BadgerOption {
	return func(o *badgerOptions) { o.key = key }
}

// NewBadgerStore opens (or creates) a Badger wallet in dir.
func NewBadgerStore(dir string, logger *slog.Logger, opts ...BadgerOption) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("wallet: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var o badgerOptions
	for _, opt := range opts {
		opt(&o)
	}
	var seal *sealer
	if len(o.key) > 0 {
		var err error
		if seal, err = newSealer(o.key); err != nil {
			return nil, err
		}
	}

	dbOpts := badger.DefaultOptions(dir)
	dbOpts.Logger = &badgerLogger{logger: logger}
	dbOpts.SyncWrites = true
	// Identity records are tiny; keep the footprint small.
	dbOpts.ValueLogFileSize = 16 << 20
	dbOpts.BlockCacheSize = 8 << 20
	dbOpts.NumVersionsToKeep = 1

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("wallet: open badger %s: %w", dir, err)
	}

	logger.Debug("badger wallet opened", "path", dir, "encrypted", seal != nil)
	return &BadgerStore{db: db, logger: logger, sealer: seal}, nil
}

// Resolve looks up an identity record.
func (s *BadgerStore) Resolve(ctx context.Context, label string) (*Credential, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(label))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrIdentityNotFound.WithDetails(label)
		}
		return nil, fmt.Errorf("wallet: read identity %s: %w", label, err)
	}

	record, err := s.sealer.open(label, data)
	if err != nil {
		return nil, err
	}
	return decodeCredential(label, record)
}

// List returns all identity labels.
func (s *BadgerStore) List(ctx context.Context) ([]string, error) {
	var labels []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().Key()
			labels = append(labels, string(key[len(badgerKeyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: list identities: %w", err)
	}

	sort.Strings(labels)
	return labels, nil
}

// Put stores or replaces a credential.
func (s *BadgerStore) Put(ctx context.Context, cred *Credential) error {
	data, err := encodeCredential(cred)
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if data, err = s.sealer.seal(cred.Label, data); err != nil {
			return fmt.Errorf("wallet: encrypt identity %s: %w", cred.Label, err)
		}
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(cred.Label), data)
	}); err != nil {
		return fmt.Errorf("wallet: store identity %s: %w", cred.Label, err)
	}

	s.logger.Info("identity stored", "identity", cred)
	return nil
}

// Remove deletes an identity record.
func (s *BadgerStore) Remove(ctx context.Context, label string) error {
	if err := ValidateLabel(label); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(label)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(label))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrIdentityNotFound.WithDetails(label)
		}
		return fmt.Errorf("wallet: remove identity %s: %w", label, err)
	}

	s.logger.Info("identity removed", "label", label)
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("wallet: close badger: %w", err)
	}
	return nil
}

func badgerKey(label string) []byte {
	return []byte(badgerKeyPrefix + label)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
