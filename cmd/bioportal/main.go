package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bioportal"
	"github.com/kailas-cloud/bioportal/internal/config"
	logpkg "github.com/kailas-cloud/bioportal/internal/logger"
	"github.com/kailas-cloud/bioportal/internal/version"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cliApp carries the client shared by all commands.
type cliApp struct {
	out    io.Writer
	errOut io.Writer

	logger *zap.Logger
	client *bioportal.Client

	// newClient is replaced in tests.
	newClient func(opts ...bioportal.Option) (*bioportal.Client, error)
}

func newApp(out, errOut io.Writer) *cli.App {
	a := &cliApp{out: out, errOut: errOut, newClient: bioportal.New}
	return &cli.App{
		Name:      "bioportal",
		Usage:     "Query the Netherlands Biodiversity API",
		Version:   version.Version,
		Writer:    out,
		ErrWriter: errOut,

		// Condition values carry their own commas (IN, BETWEEN).
		DisableSliceFlagSeparator: true,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Configuration environment (local, dev, prod); defaults to $ENV or local",
				Value: config.GetEnv(),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before the configuration",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "NBA base URL",
				EnvVars: []string{"NBA_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
			},
			&cli.StringFlag{
				Name:  "download-dir",
				Usage: "Directory DwCA archives are written to",
			},
		},
		Before:   a.setup,
		After:    a.teardown,
		Commands: a.commands(),
	}
}

func (a *cliApp) setup(c *cli.Context) error {
	if err := loadDotEnv(c.String("env-file")); err != nil {
		return err
	}

	env := c.String("env")
	cfg, err := config.Load(env)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return err
	}
	if c.IsSet("url") {
		cfg.NBA.URL = c.String("url")
	}
	if c.IsSet("download-dir") {
		cfg.NBA.DwCADownloadDir = c.String("download-dir")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a.logger, err = logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	cc := cfg.Client()
	if c.IsSet("timeout") {
		cc.Timeout = c.Duration("timeout")
	}
	a.client, err = a.newClient(bioportal.WithConfig(cc), bioportal.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	c.Context = logpkg.ContextWithLogger(c.Context, a.logger)
	a.logger.Debug("client ready",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("url", a.client.Config().BaseURL),
		zap.Duration("timeout", a.client.Config().Timeout),
	)
	return nil
}

func (a *cliApp) teardown(_ *cli.Context) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
