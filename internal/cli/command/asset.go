package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/assetgw-go/internal/cli/output"
	"github.com/yndnr/assetgw-go/internal/core/domain"
)

// AssetCommand returns the asset subcommand group.
func AssetCommand() *cli.Command {
	return &cli.Command{
		Name:    "asset",
		Aliases: []string{"a"},
		Usage:   "Create, update and query ledger assets",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Submit CreateAsset",
				Flags:  assetFlags(),
				Action: assetCreate,
			},
			{
				Name:   "update",
				Usage:  "Submit UpdateAsset",
				Flags:  assetFlags(),
				Action: assetUpdate,
			},
			{
				Name:      "get",
				Usage:     "Read the current state of an asset",
				ArgsUsage: "DEALER_ID",
				Action:    assetGet,
			},
			{
				Name:      "history",
				Usage:     "List every committed version of an asset",
				ArgsUsage: "DEALER_ID",
				Action:    assetHistory,
			},
		},
	}
}

func assetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read the asset as JSON from `FILE` (- for stdin); flags override its fields",
		},
		&cli.StringFlag{Name: "dealer-id", Usage: "Dealer ID (asset key)"},
		&cli.StringFlag{Name: "msisdn", Usage: "Subscriber number"},
		&cli.StringFlag{Name: "mpin", Usage: "Mobile PIN"},
		&cli.StringFlag{Name: "status", Usage: "Account status"},
		&cli.StringFlag{Name: "trans-type", Usage: "Transaction type"},
		&cli.StringFlag{Name: "remarks", Usage: "Free-form remarks"},
		&cli.StringFlag{Name: "balance", Usage: "Balance (decimal)"},
		&cli.StringFlag{Name: "trans-amount", Usage: "Transaction amount (decimal)"},
	}
}

// writeResult is the body of a successful create or update.
type writeResult struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
	BlockNumber   uint64 `json:"block_number,omitempty"`
}

func assetCreate(c *cli.Context) error {
	return assetWrite(c, "POST")
}

func assetUpdate(c *cli.Context) error {
	return assetWrite(c, "PUT")
}

func assetWrite(c *cli.Context, method string) error {
	in, err := assetInput(c)
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid asset: %s", describe(err))
	}

	client, s, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, s)
	defer cancel()

	var spinner *output.Spinner
	if s.Output == output.FormatTable && output.IsTerminal(os.Stderr) {
		spinner = output.NewSpinner(os.Stderr, "waiting for commit of "+in.DealerID)
		spinner.Start()
	}

	var res writeResult
	if method == "POST" {
		err = client.Post(ctx, "/asset", in, &res)
	} else {
		err = client.Put(ctx, "/asset", in, &res)
	}

	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	return render(c, s, res)
}

// assetInput builds the request body from --file and the field flags.
func assetInput(c *cli.Context) (*domain.AssetInput, error) {
	in := &domain.AssetInput{}
	if path := c.String("file"); path != "" {
		if err := readAssetFile(c, path, in); err != nil {
			return nil, err
		}
	}

	strs := []struct {
		flag string
		dst  *string
	}{
		{"dealer-id", &in.DealerID},
		{"msisdn", &in.MSISDN},
		{"mpin", &in.MPIN},
		{"status", &in.Status},
		{"trans-type", &in.TransType},
		{"remarks", &in.Remarks},
	}
	for _, f := range strs {
		if c.IsSet(f.flag) {
			*f.dst = c.String(f.flag)
		}
	}

	amounts := []struct {
		flag string
		dst  *decimal.NullDecimal
	}{
		{"balance", &in.Balance},
		{"trans-amount", &in.TransAmount},
	}
	for _, f := range amounts {
		if !c.IsSet(f.flag) {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(c.String(f.flag)))
		if err != nil {
			return nil, fmt.Errorf("--%s: not a decimal: %q", f.flag, c.String(f.flag))
		}
		*f.dst = decimal.NewNullDecimal(d)
	}
	return in, nil
}

func readAssetFile(c *cli.Context, path string, in *domain.AssetInput) error {
	var r io.Reader
	if path == "-" {
		r = c.App.Reader
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(in); err != nil {
		return fmt.Errorf("parse asset %s: %w", path, err)
	}
	return nil
}

func assetGet(c *cli.Context) error {
	return assetQuery(c, "")
}

func assetHistory(c *cli.Context) error {
	return assetQuery(c, "/history")
}

func assetQuery(c *cli.Context, suffix string) error {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return errors.New("DEALER_ID is required")
	}

	client, s, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, s)
	defer cancel()

	var raw json.RawMessage
	if err := client.Get(ctx, "/asset/"+url.PathEscape(id)+suffix, &raw); err != nil {
		return err
	}
	return render(c, s, raw)
}

// describe returns the client-facing text of a domain error.
func describe(err error) string {
	if de, ok := domain.AsDomainError(err); ok {
		return de.PublicMessage()
	}
	return err.Error()
}
