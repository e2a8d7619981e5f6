// dispatcher watches a broker of locally-computed rollup claims and
// submits every claim not yet reflected in the on-chain history.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/statefold/rollups-dispatcher/broker/levelfeed"
	"github.com/statefold/rollups-dispatcher/broker/wsfeed"
	"github.com/statefold/rollups-dispatcher/dispatcher"
	"github.com/statefold/rollups-dispatcher/history"
	"github.com/statefold/rollups-dispatcher/txsender"
)

var configFlag = &cli.StringFlag{
	Name:     "config",
	Usage:    "Path to the TOML configuration file",
	Value:    "dispatcher.toml",
	Required: false,
}

func main() {
	app := &cli.App{
		Name:   "dispatcher",
		Usage:  "submits locally-computed rollup claims missing from the on-chain history",
		Flags:  []cli.Flag{configFlag},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	if err := setupLogging(cfg.Log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ethclient.DialContext(ctx, cfg.Chain.URL)
	if err != nil {
		return fmt.Errorf("failed to dial chain endpoint %s: %w", cfg.Chain.URL, err)
	}
	defer client.Close()

	key, err := crypto.LoadECDSA(cfg.Chain.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load submission key: %w", err)
	}

	dapp := common.HexToAddress(cfg.Chain.DApp)
	historyContract := common.HexToAddress(cfg.Chain.HistoryContract)
	chainID := big.NewInt(cfg.Chain.ChainID)

	feed, closeFeed, err := buildFeed(ctx, cfg.Broker, dapp)
	if err != nil {
		return err
	}
	defer closeFeed()

	folder := history.NewFolder(client, historyContract, cfg.Chain.StartBlock)

	newSender := func(ctx context.Context) (dispatcher.Sender, error) {
		return txsender.New(ctx, client, key, chainID, historyContract, dapp)
	}

	service := dispatcher.NewService(
		dispatcher.NewDriver(dapp),
		folder,
		feed,
		newSender,
		time.Duration(cfg.Dispatcher.PollInterval),
	)

	log.Info("Starting dispatcher", "dapp", dapp, "history", historyContract, "broker", cfg.Broker.Mode)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Dispatcher stopped")

	return nil
}

// buildFeed constructs the configured claim feed and its teardown hook.
func buildFeed(ctx context.Context, cfg BrokerConfig, dapp common.Address) (dispatcher.ClaimFeed, func(), error) {
	switch cfg.Mode {
	case "ws":
		client := wsfeed.NewClient(cfg.WSURL, dapp)
		if err := client.Subscribe(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to subscribe to claim broker: %w", err)
		}

		return client, func() { client.Close() }, nil
	case "level":
		queue, err := levelfeed.Open(cfg.LevelPath, dapp)
		if err != nil {
			return nil, nil, err
		}

		return queue, func() { queue.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown broker mode %q", cfg.Mode)
	}
}

func setupLogging(cfg LogConfig) error {
	var level slog.Level

	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = log.LevelTrace
	case "debug":
		level = log.LevelDebug
	case "", "info":
		level = log.LevelInfo
	case "warn":
		level = log.LevelWarn
	case "error":
		level = log.LevelError
	default:
		return fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var handler slog.Handler
	if cfg.File != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		handler = log.LogfmtHandlerWithLevel(writer, level)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}

	log.SetDefault(log.NewLogger(handler))

	return nil
}
