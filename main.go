package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/dhocker/iex-localc/internal/addin"
	"github.com/dhocker/iex-localc/internal/config"
	"github.com/dhocker/iex-localc/internal/iex"
	"github.com/dhocker/iex-localc/internal/logging"
	"github.com/dhocker/iex-localc/internal/metrics"
	"github.com/dhocker/iex-localc/internal/ratelimit"
	"github.com/dhocker/iex-localc/internal/server"
	"github.com/dhocker/iex-localc/internal/store"
)

const usage = `Usage: iex-localc [flags] [FUNCTION [ARG...]]

Without a function the add-in server is started. With one, the function is
evaluated once and its cell value printed, e.g.

  iex-localc IexQuoteItem IBM latestPrice
  iex-localc IexHistoricalClose SO 2017-09-01

Flags:
`

func main() {
	flags := pflag.NewFlagSet("iex-localc", pflag.ExitOnError)
	config.RegisterFlags(flags)
	configFile := flags.String("config", "", "configuration file (default $HOME/libreoffice/iex/iex.conf)")
	envFile := flags.String("env-file", ".env", "dotenv file with IEX_ overrides")
	pretty := flags.Bool("pretty", false, "human readable console logging")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	// Load configuration
	cfg, err := config.Load(config.Options{File: *configFile, EnvFile: *envFile, Flags: flags})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: *pretty})
	if cfg.Created {
		log.Info().Str("file", cfg.File).Msg("Created configuration file with defaults")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(prometheus.DefaultRegisterer)
	cache := store.Open(store.Config{Path: cfg.CacheDB, Driver: cfg.CacheDriver}, m, log)

	client := iex.NewClient(cfg.BaseURL, iex.Options{
		Token:      cfg.Token,
		RetryCount: cfg.Retries,
		Timeout:    cfg.Timeout,
		Limiter:    ratelimit.New(map[ratelimit.API]rate.Limit{ratelimit.APIIEX: rate.Limit(cfg.RateLimit)}),
		Metrics:    m,
		Log:        log,
	})
	defer client.Close()

	a := addin.New(client, addin.Options{Store: cache, Metrics: m, Log: log})
	log.Info().
		Str("implementation", addin.ImplementationName).
		Str("base_url", cfg.BaseURL).
		Bool("durable_cache", cache.Enabled()).
		Msg("IEX add-in initialized")

	if flags.NArg() > 0 {
		code := callOnce(ctx, a, flags.Arg(0), flags.Args()[1:])
		cancel()
		client.Close()
		os.Exit(code)
	}

	if err := serve(ctx, a, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// callOnce evaluates one function and prints its value.
func callOnce(ctx context.Context, a *addin.AddIn, name string, args []string) int {
	if _, ok := addin.Lookup(name); !ok {
		fmt.Fprintf(os.Stderr, "Unknown function %s\n", name)
		return 2
	}
	switch v := a.Evaluate(ctx, name, args).(type) {
	case float64:
		fmt.Println(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		fmt.Println(v)
	}
	return 0
}

// serve runs the add-in server until ctx is canceled.
func serve(ctx context.Context, a *addin.AddIn, cfg *config.Config, log zerolog.Logger) error {
	srv := server.New(server.Config{
		Addr:           cfg.Listen,
		AddIn:          a,
		Log:            log,
		RequestTimeout: cfg.Timeout + 5*time.Second,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info().Msg("Received interrupt signal, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
