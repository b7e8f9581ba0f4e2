package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"channeld/config"
	"channeld/core/events"
	"channeld/core/state"
	"channeld/gateway/routes"
	"channeld/integrations/onft"
	"channeld/native/assets"
	"channeld/native/channel"
	"channeld/native/funds"
	"channeld/observability"
	"channeld/observability/logging"
	"channeld/storage"
)

// logEmitter forwards every domain event to the structured log.
type logEmitter struct {
	logger *slog.Logger
}

func (l *logEmitter) Emit(evt events.Event) {
	if l == nil || l.logger == nil || evt == nil {
		return
	}
	l.logger.Info("event", "type", evt.EventType())
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("channeld", cfg.Environment)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "registry"))
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	registry := channel.NewRegistry(manager)
	store := assets.NewStore(manager)
	ledger := onft.NewClient(cfg.OnftAPIURL)

	engine := channel.NewEngine(registry, store, ledger)
	engine.SetPauses(cfg)
	engine.SetEmitter(observability.NewEmitter(&logEmitter{logger: logger}))

	params, err := registry.GetParams()
	if err != nil {
		logger.Error("failed to read params", "err", err)
		os.Exit(1)
	}
	switch {
	case params.ProtocolAdmin != "":
		// Already seeded on a previous boot.
	case cfg.ProtocolAdmin == "":
		logger.Warn("ProtocolAdmin not configured; admin operations unavailable until set")
	default:
		seed := channel.Params{
			ChannelsCollectionID: cfg.ChannelsCollectionID,
			AcceptedTipDenoms:    cfg.AcceptedTipDenoms,
			ProtocolAdmin:        cfg.ProtocolAdmin,
			FeeCollector:         cfg.FeeCollector,
		}
		if cfg.ChannelCreationFeeAmount > 0 {
			seed.ChannelCreationFee = []funds.Coin{
				funds.NewCoin(cfg.ChannelCreationFeeDenom, cfg.ChannelCreationFeeAmount),
			}
		}
		if err := engine.InitParams(seed); err != nil {
			logger.Error("failed to seed params", "err", err)
			os.Exit(1)
		}
		logger.Info("seeded registry params", "admin", seed.ProtocolAdmin)
	}

	handler := routes.New(routes.Config{
		Registry:       registry,
		Store:          store,
		Network:        cfg.NetworkName,
		MetricsHandler: promhttp.Handler(),
	})

	logger.Info("channeld started", "listen", cfg.ListenAddress, "network", cfg.NetworkName)
	if err := http.ListenAndServe(cfg.ListenAddress, handler); err != nil {
		logger.Error("http server stopped", "err", err)
		os.Exit(1)
	}
}
