package app

import (
	"context"
	"sync"
	"time"

	"shopwatch/internal/catalog"
	"shopwatch/internal/config"
	"shopwatch/internal/discord"
	"shopwatch/internal/notify"
	"shopwatch/internal/snapshot"
	"shopwatch/internal/watcher"
	logx "shopwatch/pkg/logx"
)

// App wires the watcher together: config manager, logger, snapshot store,
// catalog client, notification sinks and the poll loop.
type App struct {
	cfgm *config.Manager

	log     logx.Logger
	store   snapshot.Store
	fetcher *catalog.Client
	webhook *discord.Webhook
	svc     *watcher.Service

	wg sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	spec, err := watcher.ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := config.ParseDurationOrDefault("catalog.timeout", cfg.Catalog.Timeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	cooldown, err := config.ParseDurationOrDefault("webhook.cooldown", cfg.Webhook.Cooldown, time.Second)
	if err != nil {
		return nil, err
	}
	sendTimeout, err := config.ParseDurationOrDefault("webhook.timeout", cfg.Webhook.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	busyTimeout, err := config.ParseDurationField("snapshot.busy_timeout", cfg.Snapshot.BusyTimeout)
	if err != nil {
		return nil, err
	}

	store, err := snapshot.Open(snapshot.Config{
		Driver:      cfg.Snapshot.Driver,
		Path:        cfg.SnapshotPath(),
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "snapshot")))
	if err != nil {
		return nil, err
	}

	fetcher := catalog.NewClient(cfg.Catalog.URL, fetchTimeout, log.With(logx.String("comp", "catalog")))
	webhook := discord.NewWebhook(cfg.Webhook.URL, cooldown, sendTimeout, log.With(logx.String("comp", "discord")))

	var extra []notify.Sink
	if t := cfg.Telegram; t != nil && t.Enabled {
		sink, err := notify.NewTelegramSink(t.Token, t.ChatID, t.RatePerSec, log.With(logx.String("comp", "telegram")))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		extra = append(extra, sink)
	}
	notifier := notify.New(webhook, log.With(logx.String("comp", "notify")), extra...)

	svc := watcher.New(spec, fetcher, store, notifier, log.With(logx.String("comp", "watcher")))

	return &App{
		cfgm:    cfgm,
		log:     log,
		store:   store,
		fetcher: fetcher,
		webhook: webhook,
		svc:     svc,
	}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

// Start launches the config watcher and the poll loop. It returns
// immediately; the loop runs until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn("config watch unavailable; live reload disabled", logx.Err(err))
		}
	}()

	updates := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				a.apply(cfg)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.svc.Run(ctx); err != nil {
			a.log.Error("watcher stopped", logx.Err(err))
		}
	}()
}

// apply pushes reloadable settings into the running components. Schedule,
// snapshot driver and the Telegram sink are wired at startup and need a
// restart to change.
func (a *App) apply(cfg *config.Config) {
	a.fetcher.Apply(cfg.Catalog.URL)

	cooldown, _ := config.ParseDurationOrDefault("webhook.cooldown", cfg.Webhook.Cooldown, time.Second)
	sendTimeout, _ := config.ParseDurationOrDefault("webhook.timeout", cfg.Webhook.Timeout, 10*time.Second)
	a.webhook.Apply(cfg.Webhook.URL, cooldown, sendTimeout)

	a.log.Info("config applied; schedule and snapshot changes take effect on restart")
}

// Stop waits for the loop to wind down and releases resources.
func (a *App) Stop() {
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("snapshot store close failed", logx.Err(err))
	}
	_ = a.log.Close()
}
