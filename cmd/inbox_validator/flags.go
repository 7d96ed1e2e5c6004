package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ksemenov/inbox_validator/internal/app"
	"github.com/ksemenov/inbox_validator/internal/config"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func cmd() *cli.Command {
	return &cli.Command{
		Name:    "inbox_validator",
		Usage:   "Inbound file validation and notification service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "lambda",
				Usage: "Run under the AWS Lambda runtime",
				Flags: flags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := buildApp(ctx, cmd)
					if err != nil {
						return err
					}

					return a.RunLambda(ctx)
				},
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP webhook server",
				Flags: flags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := buildApp(ctx, cmd)
					if err != nil {
						return err
					}

					return a.RunServer(ctx)
				},
			},
			{
				Name:  "process",
				Usage: "Process a single event payload from a file",
				Flags: append(flags(), &cli.StringFlag{
					Name:     "event-file",
					Aliases:  []string{"e"},
					Usage:    "Read the event payload from `FILE`",
					Required: true,
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := buildApp(ctx, cmd)
					if err != nil {
						return err
					}

					return a.ProcessFile(ctx, cmd.String("event-file"))
				},
			},
		},
	}
}

func buildApp(ctx context.Context, cmd *cli.Command) (*app.App, error) {
	log, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok {
		return nil, errors.New("failed to get logger from context")
	}

	return app.New(log, config.Load(cmd)), nil
}

func flags() []cli.Flag {
	var configFile string

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Validator:   validateConfig,
			Usage:       "Load configuration from `FILE`",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:     "recipient",
			Usage:    "Set notification recipient address",
			Sources:  cli.NewValueSourceChain(yaml.YAML("mail.recipient", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "sender",
			Usage:    "Set notification sender address",
			Sources:  cli.NewValueSourceChain(yaml.YAML("mail.sender", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "output-bucket",
			Usage:    "Set canonical file bucket",
			Sources:  cli.NewValueSourceChain(yaml.YAML("canonical.bucket", altsrc.NewStringPtrSourcer(&configFile))),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "output-key",
			Usage:   "Set canonical file key",
			Value:   "current.csv",
			Sources: cli.NewValueSourceChain(yaml.YAML("canonical.key", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "Set AWS region",
			Value:   "eu-west-1",
			Sources: cli.NewValueSourceChain(yaml.YAML("aws.region", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "http-host",
			Usage:   "Set HTTP server host",
			Value:   "localhost",
			Sources: cli.NewValueSourceChain(yaml.YAML("http.host", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.StringFlag{
			Name:    "http-port",
			Usage:   "Set HTTP server port",
			Value:   "8080",
			Sources: cli.NewValueSourceChain(yaml.YAML("http.port", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "http-idle-timeout",
			Usage:   "Set HTTP server idle timeout",
			Value:   1 * time.Minute,
			Sources: cli.NewValueSourceChain(yaml.YAML("http.idle_timeout", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "http-read-timeout",
			Usage:   "Set HTTP server read timeout",
			Value:   15 * time.Second,
			Sources: cli.NewValueSourceChain(yaml.YAML("http.read_timeout", altsrc.NewStringPtrSourcer(&configFile))),
		},
		&cli.DurationFlag{
			Name:    "http-write-timeout",
			Usage:   "Set HTTP server write timeout",
			Value:   15 * time.Second,
			Sources: cli.NewValueSourceChain(yaml.YAML("http.write_timeout", altsrc.NewStringPtrSourcer(&configFile))),
		},
	}
}

func validateConfig(configFile string) error {
	info, err := os.Stat(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q does not exist", configFile)
		}
		return fmt.Errorf("failed to stat %q: %w", configFile, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%q is a directory, not a file", configFile)
	}

	ext := filepath.Ext(info.Name())
	if ext != ".yml" && ext != ".yaml" {
		return fmt.Errorf("invalid extension %q", ext)
	}

	return nil
}
