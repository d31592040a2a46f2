// Package ledgerapi provides the API to manage accounts and money transfers.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/snapshotrepo"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/metricspkg"
)

const (
	seedCurrency     = "QZN"
	seedAmount       = 1_000_000
	shutdownDeadline = 10 * time.Second
)

func main() {
	flags := pflag.NewFlagSet("pet-ledger", pflag.ExitOnError)
	flags.String("server-address", "", "address the ledger API listens on")
	flags.String("metrics-address", "", "address the metrics endpoint listens on")
	flags.String("state-file", "", "path of the ledger snapshot file (empty disables persistence)")
	_ = flags.Parse(os.Args[1:])

	config, err := configpkg.Load("./configs", flags)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	ledger, repo, err := buildLedger(config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot restore ledger state")
	}

	ctx := logger.WithContext(context.Background())

	if ledger.AccountCount(ctx) == 0 {
		account, err := ledger.CreateAccount(ctx, domain.Money{Currency: seedCurrency, Amount: seedAmount})
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot seed demo account")
		}

		logger.Info().Str("account_id", account.ID).Msg("seeded demo account")
	}

	metricspkg.SetAccounts(ledger.AccountCount(ctx))

	server, err := httpserver.New(ledger, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	apiServer := &http.Server{Addr: config.ServerAddress, Handler: server}
	metricsServer := &http.Server{Addr: config.MetricsAddress, Handler: metricspkg.Handler()}

	go func() {
		logger.Info().Str("address", config.MetricsAddress).Msg("metrics exposed")

		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		logger.Info().Str("address", config.ServerAddress).Msg("LEDGER API SERVER HAS STARTED")

		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("cannot start server")
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-stopCtx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown failed")
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown failed")
	}

	if repo != nil {
		if err := repo.Save(ledger.Snapshot(ctx)); err != nil {
			logger.Error().Err(err).Msg("cannot save ledger snapshot")
		} else {
			logger.Info().Str("path", config.StateFile).Msg("ledger snapshot saved")
		}
	}
}

// buildLedger restores the engine from the configured snapshot file, or
// starts empty when persistence is disabled.
func buildLedger(config configpkg.Config) (*ledgerservice.Service, *snapshotrepo.Repo, error) {
	if config.StateFile == "" {
		return ledgerservice.New(), nil, nil
	}

	repo := snapshotrepo.New(config.StateFile)

	snap, err := repo.Load()
	if err != nil {
		return nil, nil, err
	}

	ledger, err := ledgerservice.NewFromSnapshot(snap)
	if err != nil {
		return nil, nil, err
	}

	return ledger, repo, nil
}
