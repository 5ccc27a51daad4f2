package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/openoption/blitzws/internal/candles"
	"github.com/openoption/blitzws/internal/config"
	"github.com/openoption/blitzws/internal/dispatch"
	"github.com/openoption/blitzws/internal/session"
	"github.com/openoption/blitzws/internal/trade"
	"github.com/openoption/blitzws/internal/transport"
	"github.com/openoption/blitzws/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.local.yaml", "path to config file")
	activeID := flag.Int64("active", 76, "asset id to demo against")
	direction := flag.String("direction", "call", "trade direction: call or put")
	amount := flag.String("amount", "1", "stake amount")
	duration := flag.Int("duration", 30, "option duration in seconds")
	history := flag.Int("history", 100, "number of historical candles to fetch")
	placeTrade := flag.Bool("trade", false, "place one demo trade")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tradedemo",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Wire transport, dispatcher and session
	tc := transport.NewClient(transport.Config{
		URL:               cfg.Platform.WSURL,
		HandshakeTimeout:  cfg.Transport.HandshakeTimeout,
		WriteTimeout:      cfg.Transport.WriteTimeout,
		BufferSize:        cfg.Transport.BufferSize,
		ReconnectBaseWait: cfg.Transport.ReconnectBaseWait,
		ReconnectMaxWait:  cfg.Transport.ReconnectMaxWait,
	}, logger.With("component", "transport"))

	d := dispatch.NewDispatcher(logger.With("component", "dispatch"))

	sess := session.New(tc, d, session.Config{
		SSID:              cfg.Platform.SSID,
		AuthTimeout:       cfg.Session.AuthTimeout,
		HeartbeatInterval: cfg.Session.HeartbeatInterval,
		RequestTimeout:    cfg.Session.RequestTimeout,
		RequestRetries:    cfg.Session.RequestRetries,
		RetryBackoff:      cfg.Session.RetryBackoff,
	}, logger.With("component", "session"))

	tc.OnMessage(sess.Clock().Observe)
	tc.OnDisconnect(sess.HandleDisconnect)
	tc.OnReconnect(sess.HandleReconnect)

	if err := tc.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer tc.Close()

	go session.RunPump(ctx, tc.Messages(), d, logger.With("component", "pump"))

	if err := sess.Start(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	defer sess.Close()

	// Pick the practice balance
	balances, err := sess.GetBalances(ctx)
	if err != nil {
		logger.Error("failed to fetch balances", "error", err)
		os.Exit(1)
	}
	for _, b := range balances {
		logger.Info("balance", "id", b.ID, "type", b.Type, "amount", b.Amount, "currency", b.Currency)
		if b.IsPractice() {
			sess.SelectBalance(b.ID)
		}
	}
	if sess.ActiveBalance() == 0 && len(balances) > 0 {
		sess.SelectBalance(balances[0].ID)
	}

	assetKey := strconv.FormatInt(*activeID, 10)
	logger.Info("asset status",
		"active_id", *activeID,
		"open", sess.IsAssetOpen(assetKey),
		"payout", sess.PayoutPercent(assetKey),
	)

	// Historical candles
	paginator := candles.NewPaginator(sess, candles.Config{ChunkSize: cfg.Candles.ChunkSize}, logger.With("component", "candles"))
	series, err := paginator.Fetch(ctx, *activeID, 60, *history)
	if err != nil {
		logger.Error("failed to fetch candles", "error", err)
	} else if len(series) > 0 {
		first, last := series[0], series[len(series)-1]
		logger.Info("candle history",
			"count", len(series),
			"from", first.From,
			"to", last.To,
			"last_close", last.Close,
		)
	}

	if !*placeTrade {
		logger.Info("dry run complete (pass -trade to place an order)")
		return
	}

	stake, err := decimal.NewFromString(*amount)
	if err != nil {
		logger.Error("invalid amount", "error", err)
		os.Exit(1)
	}

	executor := trade.NewExecutor(sess, trade.Config{
		AckTimeout:    cfg.Trade.AckTimeout,
		MinSettleWait: cfg.Trade.MinSettleWait,
		SettleGrace:   cfg.Trade.SettleGrace,
	}, logger.With("component", "trade"))

	result, err := executor.Execute(ctx, trade.Order{
		ActiveID:  *activeID,
		Direction: *direction,
		Amount:    stake,
		Duration:  *duration,
	})
	if err != nil {
		logger.Error("trade failed", "error", err)
		os.Exit(1)
	}

	logger.Info("trade finished",
		"state", result.State,
		"order_id", result.OrderID,
		"outcome", result.Outcome,
		"profit", result.Profit,
	)
}
