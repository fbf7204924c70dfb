package command

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/assetgw-go/internal/cli/output"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
	"github.com/yndnr/assetgw-go/pkg/crypto/adaptive"
)

// WalletCommand returns the wallet subcommand group. Wallet commands
// work on the local identity store and never contact the server.
func WalletCommand() *cli.Command {
	walletFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "wallet-type",
			Usage:   "Wallet backend: file, badger",
			EnvVars: []string{"ASSETGW_LEDGER_WALLET_TYPE"},
		},
		&cli.StringFlag{
			Name:    "wallet-path",
			Usage:   "Wallet directory",
			EnvVars: []string{"ASSETGW_LEDGER_WALLET_PATH", "WALLET_PATH"},
		},
		&cli.StringFlag{
			Name:    "wallet-key",
			Usage:   "Encryption key of a badger wallet (hex or base64)",
			EnvVars: []string{"ASSETGW_LEDGER_WALLET_ENCRYPTION_KEY"},
		},
	}

	return &cli.Command{
		Name:  "wallet",
		Usage: "Manage identities in a local wallet",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List identities",
				Flags:  walletFlags,
				Action: walletList,
			},
			{
				Name:      "import",
				Usage:     "Import an X.509 identity",
				ArgsUsage: "LABEL",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "msp-id", Usage: "MSP ID of the identity", Required: true},
					&cli.StringFlag{Name: "cert", Usage: "PEM certificate `FILE`", Required: true},
					&cli.StringFlag{Name: "key", Usage: "PEM private key `FILE`", Required: true},
				}, walletFlags...),
				Action: walletImport,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove an identity",
				ArgsUsage: "LABEL",
				Flags:     walletFlags,
				Action:    walletRemove,
			},
		},
	}
}

// openWallet opens the wallet named by flags or the CLI configuration.
func openWallet(c *cli.Context) (wallet.Wallet, error) {
	cfg := cliConfig(c)
	typ, path := cfg.Wallet.Type, cfg.Wallet.Path
	if v := c.String("wallet-type"); v != "" {
		typ = v
	}
	if v := c.String("wallet-path"); v != "" {
		path = v
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("wallet path is required")
	}

	wcfg := wallet.Config{
		Type:   typ,
		Path:   path,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if v := c.String("wallet-key"); v != "" {
		key, err := adaptive.ParseKey(v)
		if err != nil {
			return nil, fmt.Errorf("--wallet-key: %w", err)
		}
		wcfg.EncryptionKey = key
	}
	return wallet.Open(wcfg)
}

// identityRow is one line of wallet list.
type identityRow struct {
	Label    string `json:"label"`
	MSPID    string `json:"msp_id"`
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	NotAfter string `json:"not_after"`
}

func walletList(c *cli.Context) error {
	s, err := ResolveSettings(c)
	if err != nil {
		return err
	}
	w, err := openWallet(c)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := commandContext(c)
	labels, err := w.List(ctx)
	if err != nil {
		return err
	}

	rows := make([]identityRow, 0, len(labels))
	for _, label := range labels {
		cred, err := w.Resolve(ctx, label)
		if err != nil {
			rows = append(rows, identityRow{Label: label, Subject: "unreadable: " + describe(err)})
			continue
		}
		row := identityRow{Label: label, MSPID: cred.MSPID, Type: cred.Type}
		if cert, err := parseCertificate(cred.Certificate); err == nil {
			row.Subject = cert.Subject.CommonName
			row.NotAfter = cert.NotAfter.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	if s.Output == output.FormatTable && len(rows) == 0 {
		_, err := fmt.Fprintln(c.App.Writer, "No identities.")
		return err
	}
	return render(c, s, rows)
}

func walletImport(c *cli.Context) error {
	label := strings.TrimSpace(c.Args().First())
	if err := wallet.ValidateLabel(label); err != nil {
		return errors.New(describe(err))
	}

	certPEM, err := os.ReadFile(c.String("cert"))
	if err != nil {
		return err
	}
	keyPEM, err := os.ReadFile(c.String("key"))
	if err != nil {
		return err
	}
	if _, err := parseCertificate(certPEM); err != nil {
		return fmt.Errorf("--cert: %w", err)
	}

	w, err := openWallet(c)
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.Put(commandContext(c), &wallet.Credential{
		Label:       label,
		MSPID:       c.String("msp-id"),
		Type:        wallet.IdentityTypeX509,
		Certificate: certPEM,
		PrivateKey:  keyPEM,
	})
	if err != nil {
		return errors.New(describe(err))
	}
	_, err = fmt.Fprintf(c.App.Writer, "Identity %q imported.\n", label)
	return err
}

func walletRemove(c *cli.Context) error {
	label := strings.TrimSpace(c.Args().First())
	if err := wallet.ValidateLabel(label); err != nil {
		return errors.New(describe(err))
	}

	w, err := openWallet(c)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Remove(commandContext(c), label); err != nil {
		return errors.New(describe(err))
	}
	_, err = fmt.Fprintf(c.App.Writer, "Identity %q removed.\n", label)
	return err
}

func parseCertificate(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("no PEM certificate found")
	}
	return x509.ParseCertificate(block.Bytes)
}

func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
