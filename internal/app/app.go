// Package app wires configuration, AWS clients and the workflow dispatcher
// into the three run modes: lambda, serve and one-shot process.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/ksemenov/inbox_validator/internal/config"
	v1 "github.com/ksemenov/inbox_validator/internal/controller/http/v1"
	"github.com/ksemenov/inbox_validator/internal/event"
	"github.com/ksemenov/inbox_validator/internal/mailer"
	"github.com/ksemenov/inbox_validator/internal/mailfile"
	"github.com/ksemenov/inbox_validator/internal/pipeline"
	"github.com/ksemenov/inbox_validator/internal/storage"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

// HandleRaw runs one invocation end-to-end. Clients are constructed fresh
// per invocation; no state survives between calls.
func (a *App) HandleRaw(ctx context.Context, payload json.RawMessage) error {
	ev, err := event.Parse(payload)
	if err != nil {
		return fmt.Errorf("failed to normalize event: %w", err)
	}

	dispatcher, err := a.newDispatcher(ctx)
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}

	return dispatcher.Handle(ctx, ev)
}

// RunLambda hands control to the AWS Lambda runtime.
func (a *App) RunLambda(ctx context.Context) error {
	a.log.InfoContext(ctx, "starting lambda runtime",
		slog.String("output_bucket", a.cfg.Canonical.Bucket),
		slog.String("output_key", a.cfg.Canonical.Key),
	)

	lambda.StartWithOptions(a.HandleRaw, lambda.WithContext(ctx))

	return nil
}

// RunServer serves the webhook endpoint until ctx is cancelled.
func (a *App) RunServer(ctx context.Context) error {
	dispatcher, err := a.newDispatcher(ctx)
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}

	server := v1.NewServer(a.cfg.HTTP, a.log, dispatcher)

	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "server stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "server stopped gracefully")

	return nil
}

// ProcessFile handles a single event payload read from disk.
func (a *App) ProcessFile(ctx context.Context, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}

	return a.HandleRaw(ctx, payload)
}

func (a *App) newDispatcher(ctx context.Context) (*pipeline.Dispatcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return pipeline.NewDispatcher(
		a.log,
		a.cfg.Mail,
		a.cfg.Canonical,
		storage.NewS3Store(awsCfg),
		mailer.NewSESSender(awsCfg),
		mailfile.NewDecoder(),
		mailer.NewComposer(),
	), nil
}
