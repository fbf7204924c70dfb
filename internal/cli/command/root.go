package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/assetgw-go/internal/cli/config"
	"github.com/yndnr/assetgw-go/internal/cli/connection"
	"github.com/yndnr/assetgw-go/internal/cli/output"
	"github.com/yndnr/assetgw-go/internal/infra/buildinfo"
)

const metaConfig = "config"

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "assetgw-cli",
		Usage:   "Command-line client for assetgw-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			AssetCommand(),
			SystemCommand(),
			WalletCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: loadCLIConfig,
	}
	return app
}

// globalFlags returns the global CLI flags. Flags without a value fall
// back to the CLI configuration file.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI configuration file",
			EnvVars: []string{"ASSETGW_CLI_CONFIG"},
			Value:   config.DefaultPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "assetgw-server address (e.g. localhost:3000)",
			EnvVars: []string{"ASSETGW_SERVER"},
		},
		&cli.StringFlag{
			Name:    "identity",
			Aliases: []string{"i"},
			Usage:   "Wallet identity the server should use",
			EnvVars: []string{"ASSETGW_IDENTITY"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Print nested values in full",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
	}
}

func loadCLIConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// cliConfig returns the loaded CLI configuration, or the defaults.
func cliConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// Settings are the effective global options of one invocation.
type Settings struct {
	Server   string
	Identity string
	Output   output.Format
	Wide     bool
	Timeout  time.Duration
}

// ResolveSettings merges global flags over the CLI configuration.
func ResolveSettings(c *cli.Context) (*Settings, error) {
	cfg := cliConfig(c)
	s := &Settings{
		Server:   cfg.Server,
		Identity: cfg.Identity,
		Timeout:  cfg.Timeout,
		Wide:     c.Bool("wide"),
	}
	if v := c.String("server"); v != "" {
		s.Server = v
	}
	if v := c.String("identity"); v != "" {
		s.Identity = v
	}
	if v := c.Duration("timeout"); v > 0 {
		s.Timeout = v
	}

	format := cfg.Output
	if v := c.String("output"); v != "" {
		format = v
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	s.Output = f
	return s, nil
}

// newClient builds a server client from the effective settings.
func newClient(c *cli.Context) (*connection.Client, *Settings, error) {
	s, err := ResolveSettings(c)
	if err != nil {
		return nil, nil, err
	}
	client := connection.NewClient(s.Server, connection.Options{
		Identity:  s.Identity,
		Timeout:   s.Timeout,
		UserAgent: "assetgw-cli/" + buildinfo.Get().Version,
	})
	return client, s, nil
}

// render writes data in the selected format.
func render(c *cli.Context, s *Settings, data any) error {
	return output.NewFormatter(s.Output, s.Wide).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// requestContext bounds one request by the effective timeout.
func requestContext(c *cli.Context, s *Settings) (context.Context, context.CancelFunc) {
	return context.WithTimeout(commandContext(c), s.Timeout)
}
