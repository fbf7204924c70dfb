package wallet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yndnr/assetgw-go/internal/core/domain"
)

// identityFileExt is the extension of identity files in a wallet directory.
const identityFileExt = ".id"

// FileStore is a wallet backed by a directory of identity files.
// Reads are safe for concurrent use; the directory is the only state.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore opens the wallet directory, creating it when missing.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("wallet: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("wallet: create dir %s: %w", dir, err)
	}

	logger.Debug("file wallet opened", "path", dir)
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the wallet directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Resolve reads "<dir>/<label>.id".
func (s *FileStore) Resolve(ctx context.Context, label string) (*Credential, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(label))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrIdentityNotFound.WithDetails(label)
		}
		return nil, fmt.Errorf("wallet: read identity %s: %w", label, err)
	}

	return decodeCredential(label, data)
}

// List returns the labels of all identity files.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("wallet: read dir %s: %w", s.dir, err)
	}

	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), identityFileExt) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(entry.Name(), identityFileExt))
	}
	sort.Strings(labels)
	return labels, nil
}

// Put writes the identity file atomically (temp file + rename).
func (s *FileStore) Put(ctx context.Context, cred *Credential) error {
	data, err := encodeCredential(cred)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".identity-*")
	if err != nil {
		return fmt.Errorf("wallet: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("wallet: write identity %s: %w", cred.Label, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("wallet: chmod identity %s: %w", cred.Label, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("wallet: close identity %s: %w", cred.Label, err)
	}
	if err := os.Rename(tmpName, s.path(cred.Label)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("wallet: store identity %s: %w", cred.Label, err)
	}

	s.logger.Info("identity stored", "identity", cred)
	return nil
}

// Remove deletes the identity file.
func (s *FileStore) Remove(ctx context.Context, label string) error {
	if err := ValidateLabel(label); err != nil {
		return err
	}
	if err := os.Remove(s.path(label)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrIdentityNotFound.WithDetails(label)
		}
		return fmt.Errorf("wallet: remove identity %s: %w", label, err)
	}

	s.logger.Info("identity removed", "label", label)
	return nil
}

// Close is a no-op for directory wallets.
func (s *FileStore) Close() error {
	return nil
}

// LabelFromPath returns the identity label for a wallet file path, or ""
// when path is not an identity file.
func LabelFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, identityFileExt) || strings.HasPrefix(base, ".") {
		return ""
	}
	return strings.TrimSuffix(base, identityFileExt)
}

func (s *FileStore) path(label string) string {
	return filepath.Join(s.dir, label+identityFileExt)
}
