package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	domainconfig "github.com/felixgeelhaar/gradewatch-queue/domain/config"
	"github.com/felixgeelhaar/gradewatch-queue/application/broker"
	infraconfig "github.com/felixgeelhaar/gradewatch-queue/infrastructure/config"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/expiry"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/logging"
	inframail "github.com/felixgeelhaar/gradewatch-queue/infrastructure/mail"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/queue"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/registry"
	api "github.com/felixgeelhaar/gradewatch-queue/interfaces/api"
)

// serveOptions holds the flags for the serve command.
type serveOptions struct {
	configPath string
	port       int
	logPath    string
}

// builtinModels is the minimal, fixed model set the broker ships with.
// A production deployment supplies its own model registry behind
// registry.Decoder's same Parameter/Model types.
func builtinModels() []registry.Model {
	iterStart, iterEnd := 1, 10000
	return []registry.Model{
		{
			Name: "sample-model",
			Parameters: []registry.Parameter{
				registry.IntegerParameter{ParamName: "iterations", RangeStart: &iterStart, RangeEnd: &iterEnd, Default: 100},
				registry.StringParameter{ParamName: "label", Default: ""},
			},
		},
	}
}

func (a *App) serve(ctx context.Context, opts *serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logFile, err := openLogOutput(opts.logPath)
	if err != nil {
		return err
	}
	logOutput := os.Stderr
	if logFile != nil {
		defer logFile.Close()
		logOutput = logFile
	}
	logging.Init(logging.Config{Level: "info", Format: "json", Output: logOutput})

	decoder, err := registry.NewDecoder(builtinModels(), cfg.FailureEmailSubject, cfg.FailureEmailTemplate)
	if err != nil {
		return fmt.Errorf("build model decoder: %w", err)
	}

	renderer, err := inframail.NewRenderer(cfg.ConfirmEmailSubject, cfg.ConfirmEmailTemplate)
	if err != nil {
		return fmt.Errorf("build email renderer: %w", err)
	}

	provider := inframail.NewSMTPProvider(inframail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	gateway := inframail.NewGateway(provider, inframail.DefaultGatewayConfig())

	q := queue.NewMemoryQueue()
	confirms := queue.NewMemoryConfirmationMap(cfg.ConfirmTimeout, cfg.PreviouslyConfirmedCapacity)
	allocator := queue.NewAllocator()

	b := broker.New(broker.Config{
		ConfirmTimeout:   cfg.ConfirmTimeout,
		KeepAliveTimeout: cfg.KeepAliveTimeout,
		MaxJobFailures:   cfg.MaxJobFailures,
	}, q, confirms, allocator, decoder, gateway, renderer)

	loop := expiry.New(expiry.Config{
		KeepAliveInterval: cfg.KeepAliveInterval,
		KeepAliveTimeout:  cfg.KeepAliveTimeout,
		MaxJobFailures:    cfg.MaxJobFailures,
	}, q, allocator, confirms, gateway)

	addr := cfg.ListenAddr
	if opts.port > 0 {
		addr = ":" + strconv.Itoa(opts.port)
	}
	srv := api.NewServer(api.Config{Addr: addr, Broker: b})

	gateway.Start(ctx)
	loop.Start(ctx)

	serveErrs := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serveErrs <- err
			return
		}
		serveErrs <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.KeepAliveTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-serveErrs:
		if err != nil {
			loop.Stop()
			gateway.Stop()
			return fmt.Errorf("http surface: %w", err)
		}
	}

	loop.Stop()
	gateway.Stop()
	return nil
}

func loadConfig(opts *serveOptions) (*domainconfig.BrokerConfig, error) {
	if _, err := os.Stat(opts.configPath); os.IsNotExist(err) {
		defaults := domainconfig.DefaultBrokerConfig()
		return &defaults, nil
	}
	loader := infraconfig.NewLoader()
	return loader.LoadFile(opts.configPath)
}

func openLogOutput(path string) (*os.File, error) {
	if path == "-" || path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
