package tlsroots

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// KeyPair serves a server certificate that is reloaded from disk when the
// files change.
type KeyPair struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate
}

// KeyPairOption configures a KeyPair.
type KeyPairOption func(*KeyPair)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) KeyPairOption {
	return func(k *KeyPair) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithDebounce sets how long to wait after the last change before
// reloading.
func WithDebounce(d time.Duration) KeyPairOption {
	return func(k *KeyPair) { k.debounce = d }
}

// LoadKeyPair loads certFile and keyFile.
func LoadKeyPair(certFile, keyFile string, opts ...KeyPairOption) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.Reload(); err != nil {
		return nil, err
	}
	return k, nil
}

// Reload reads the key pair from disk. On failure the previous pair stays
// in service.
func (k *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}

	k.mu.Lock()
	k.cert = &cert
	k.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// ServerTLSConfig returns a server config backed by this key pair.
func (k *KeyPair) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: k.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Watch reloads the pair whenever either file is written or replaced,
// until ctx is done. Directories are watched rather than files so that
// editors and secret mounts that swap files by rename are seen.
func (k *KeyPair) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer w.Close()

	dirs := map[string]bool{filepath.Dir(k.certFile): true, filepath.Dir(k.keyFile): true}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	names := map[string]bool{filepath.Base(k.certFile): true, filepath.Base(k.keyFile): true}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !names[filepath.Base(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(k.debounce)
			} else {
				timer.Reset(k.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := k.Reload(); err != nil {
				k.logger.Error("tls key pair reload failed", "cert_file", k.certFile, "error", err)
				continue
			}
			k.logger.Info("tls key pair reloaded", "cert_file", k.certFile)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			k.logger.Warn("tls watcher error", "error", err)
		}
	}
}
