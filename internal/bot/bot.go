package bot

import (
	"context"
	"time"

	"finbot/internal/config"
	"finbot/internal/logger"
	"finbot/internal/storage"
	tg "finbot/internal/telegram"
	"finbot/internal/telegram/dialog"
	"finbot/internal/telegram/menu"
	"finbot/internal/telegram/middleware"
	"finbot/internal/telegram/router"
	"finbot/internal/telegram/sender"
)

// Bot wires the dialog machine, the repository and the Telegram transport.
type Bot struct {
	cfg      *config.Config
	repo     *storage.Repository
	sessions *dialog.Store
	machine  *dialog.Machine
	flow     *flow
	registry *tg.Registry
}

// New assembles a bot over the given configuration and repository.
func New(cfg *config.Config, repo *storage.Repository) *Bot {
	b := &Bot{
		cfg:      cfg,
		repo:     repo,
		sessions: dialog.NewStore(),
		machine:  dialog.NewMachine(&repoLedger{repo: repo}),
		registry: tg.NewRegistry(),
	}

	b.registry.RegisterCommand("/start", tg.Command{
		Description: "Запустить бота",
		Handler:     b.startHandler,
	})
	b.registry.SetTextFallback(b.textFallback)

	_ = b.registry.RegisterView(menu.Main, b.mainView)
	_ = b.registry.RegisterView(menu.Categories, b.categoriesView)
	_ = b.registry.RegisterView(menu.History, b.historyView)
	_ = b.registry.RegisterView(menu.Limits, b.stubView)
	_ = b.registry.RegisterView(menu.Statistics, b.stubView)

	return b
}

// Run starts the bot and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dispatcher := sender.NewDispatcher(sender.Options{})
	b.flow = &flow{
		sessions: b.sessions,
		machine:  b.machine,
		exec:     &executor{dispatcher: dispatcher},
	}

	var middlewares []tg.Middleware
	if interval := b.cfg.RateLimit.IntervalMS; interval > 0 {
		exclude := make(map[string]struct{}, len(b.cfg.RateLimit.ExcludeUpdates))
		for _, kind := range b.cfg.RateLimit.ExcludeUpdates {
			if kind != "" {
				exclude[kind] = struct{}{}
			}
		}
		middlewares = append(middlewares, tg.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: time.Duration(interval) * time.Millisecond,
				Exclude:  exclude,
			}),
		})
	}

	routes := []tg.Route{
		router.TextRoute(b.flow, b.registry, router.TextOptions{}),
		router.CallbackRoute(b.flow, b.registry, router.CallbackOptions{}),
	}

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      b.cfg,
		Registry:    b.registry,
		Dispatcher:  dispatcher,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			logger.Info(ctx, "bot", "started")
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			logger.Info(ctx, "bot", "stopped")
			return nil
		},
	})
}
