package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hackingsage/Quant-Trading-Simulator/config"
	"github.com/hackingsage/Quant-Trading-Simulator/httpapi"
	"github.com/hackingsage/Quant-Trading-Simulator/logging"
	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/netserver"
	"github.com/hackingsage/Quant-Trading-Simulator/quoting"
	"github.com/hackingsage/Quant-Trading-Simulator/sim"
	"github.com/hackingsage/Quant-Trading-Simulator/wsbridge"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	server := matchserver.New(matchserver.Config{
		PoolCapacity: cfg.PoolCapacity,
		InCapacity:   cfg.InCapacity,
		OutCapacity:  cfg.OutCapacity,
		InstrumentID: cfg.InstrumentID,
		Logger:       logger,
	})
	for _, userID := range cfg.TrackedUsers {
		server.TrackUser(userID)
	}
	if cfg.Simulator.Enabled {
		server.TrackUser(cfg.Simulator.UserID)
	}
	if cfg.BSBot.Enabled {
		server.TrackUser(cfg.BSBot.UserID)
	}
	server.Start()
	defer server.Stop()

	feed := matchserver.NewFeed(server)
	go feed.Run()
	defer feed.CloseFeed()

	tcpServer := netserver.New(cfg.TCPListenAddr, feed, logger)
	if err := tcpServer.Start(); err != nil {
		logger.Fatal("start tcp server", zap.Error(err))
	}
	defer tcpServer.Stop()

	bridge := wsbridge.New(feed, "*", logger)
	wsMux := http.NewServeMux()
	wsMux.Handle("/stream", bridge)
	wsHTTPServer := &http.Server{Addr: cfg.WSListenAddr, Handler: wsMux}
	go func() {
		if err := wsHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ws server exited", zap.Error(err))
		}
	}()
	defer wsHTTPServer.Close()

	httpServer := &http.Server{Addr: cfg.HTTPListenAddr, Handler: httpapi.NewRouter(server)}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited", zap.Error(err))
		}
	}()
	defer httpServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Simulator.Enabled {
		generator := sim.New(feed, sim.Config{
			UserID:     cfg.Simulator.UserID,
			StartPrice: cfg.Simulator.StartPrice,
			Mu:         cfg.Simulator.Mu,
			Sigma:      cfg.Simulator.Sigma,
			DtSeconds:  cfg.Simulator.DtSeconds,
			OrderSize:  cfg.Simulator.OrderSize,
		})
		go generator.Run(ctx)
		logger.Info("started market simulator", zap.Uint64("user_id", cfg.Simulator.UserID))
	}

	if cfg.BSBot.Enabled {
		bot := quoting.New(feed, quoting.Config{
			UserID:        cfg.BSBot.UserID,
			IsCall:        cfg.BSBot.IsCall,
			Strike:        cfg.BSBot.Strike,
			RiskFree:      cfg.BSBot.RiskFree,
			Vol:           cfg.BSBot.Vol,
			ExpirySeconds: cfg.BSBot.ExpirySeconds,
			QuoteSpread:   cfg.BSBot.QuoteSpread,
			QuoteSize:     cfg.BSBot.QuoteSize,
		})
		go bot.Run(ctx)
		logger.Info("started quoting bot", zap.Uint64("user_id", cfg.BSBot.UserID))
	}

	logger.Info("enginesrv up",
		zap.String("tcp_addr", cfg.TCPListenAddr),
		zap.String("ws_addr", cfg.WSListenAddr),
		zap.String("http_addr", cfg.HTTPListenAddr),
		zap.Uint64("instrument_id", cfg.InstrumentID),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
}
