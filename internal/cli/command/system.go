package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/assetgw-go/internal/cli/connection"
	"github.com/yndnr/assetgw-go/internal/cli/output"
	"github.com/yndnr/assetgw-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status and version",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the server is running",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check that the server can serve ledger requests",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show CLI build information",
				Action: systemVersion,
			},
		},
	}
}

// probeResult is the body of /health and /ready.
type probeResult struct {
	Status string `json:"status"`
	Time   string `json:"time,omitempty"`
	Reason string `json:"reason,omitempty"`
	Server string `json:"server"`
}

func systemHealth(c *cli.Context) error {
	return probe(c, "/health", "healthy")
}

func systemReady(c *cli.Context) error {
	return probe(c, "/ready", "ready")
}

func probe(c *cli.Context, path, want string) error {
	client, s, err := newClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, s)
	defer cancel()

	var res probeResult
	err = client.Get(ctx, path, &res)

	var apiErr *connection.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
		res.Status = "not_ready"
		_ = json.Unmarshal(apiErr.Body, &res)
		err = nil
	}
	if err != nil {
		return err
	}
	res.Server = client.BaseURL()

	if s.Output != output.FormatTable {
		if err := render(c, s, res); err != nil {
			return err
		}
	} else if res.Status == want {
		fmt.Fprintf(c.App.Writer, "✓ Server is %s\n  Target: %s\n", res.Status, res.Server)
	} else {
		fmt.Fprintf(c.App.Writer, "✗ Server is %s\n  Target: %s\n", res.Status, res.Server)
		if res.Reason != "" {
			fmt.Fprintf(c.App.Writer, "  Reason: %s\n", res.Reason)
		}
	}

	if res.Status != want {
		return fmt.Errorf("server is %s", res.Status)
	}
	return nil
}

func systemVersion(c *cli.Context) error {
	s, err := ResolveSettings(c)
	if err != nil {
		return err
	}
	info := buildinfo.Get()
	if s.Output == output.FormatTable {
		_, err := fmt.Fprintf(c.App.Writer, "assetgw-cli %s\n", buildinfo.String())
		return err
	}
	return render(c, s, info)
}
