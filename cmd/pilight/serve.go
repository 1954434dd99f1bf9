package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/begillespie/pilight/internal/api"
	"github.com/begillespie/pilight/internal/command"
	"github.com/begillespie/pilight/internal/config"
	"github.com/begillespie/pilight/internal/events"
	"github.com/begillespie/pilight/internal/led"
	"github.com/begillespie/pilight/internal/logging"
	"github.com/begillespie/pilight/internal/metrics"
	"github.com/begillespie/pilight/internal/ws"
)

func serve(parent context.Context, configPath string, fs *pflag.FlagSet) error {
	cfg, err := loadConfig(configPath, fs)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Hardware & core ----
	ch, driver := openBackend(cfg)
	bus := events.New()
	defer bus.Close()

	ctrl := led.New(ch, led.WithBus(bus))
	dispatcher := command.New(ctrl, command.WithStatus(ctrl))

	// ---- Observers ----
	hub := ws.NewHub(ctrl.Snapshot)
	defer hub.Close()
	defer hub.Attach(bus)()

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		defer metrics.Attach(bus)()
		metricsHandler = metrics.Handler()
	}

	if cfg.Token == "" {
		log.Warn().Msg("no token configured; POST /set will reject every request")
	}
	srv := api.NewServer(api.Options{
		Token:    cfg.Token,
		Executor: dispatcher,
		Snapshot: ctrl.Snapshot,
		WS:       http.HandlerFunc(hub.HandleWS),
		Metrics:  metricsHandler,
	})

	// ---- Hot reload ----
	watcher := config.NewWatcher(configPath, 0)
	watcher.OnReload(func(next *config.Config) {
		if err := next.ApplyEnv(nil); err != nil {
			log.Warn().Err(err).Msg("reload: environment override failed")
		}
		if err := next.ApplyFlags(fs); err != nil {
			log.Warn().Err(err).Msg("reload: flag override failed")
		}
		srv.SetToken(next.Token)
		logging.SetLevel(next.Log.Level)
		log.Info().Str("log_level", next.Log.Level).Msg("configuration reloaded")
	})
	if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("config watcher disabled")
	} else {
		defer watcher.Stop()
	}

	// ---- Serve until signalled ----
	pins := ch.Pins()
	log.Info().Str("driver", driver).Strs("pins", pins[:]).Msg("LED ready")
	err = srv.Run(ctx, cfg.Addr, func() {
		if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			log.Debug().Err(err).Msg("sd_notify ready")
		}
	})
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	// ---- Graceful shutdown ----
	log.Info().Msg("shutting down")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if _, stopErr := ctrl.Stop(); stopErr != nil {
		log.Error().Err(stopErr).Msg("LED shutdown incomplete")
		err = errors.Join(err, stopErr)
	}
	return err
}
