package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	sloggger "github.com/vietdungdev/mapcrafter/cmd/crafter/log"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/craft"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
	"github.com/vietdungdev/mapcrafter/internal/event"
	"github.com/vietdungdev/mapcrafter/internal/inventory"
	"github.com/vietdungdev/mapcrafter/internal/remote/discord"
	ngrokremote "github.com/vietdungdev/mapcrafter/internal/remote/ngrok"
	"github.com/vietdungdev/mapcrafter/internal/remote/telegram"
	"github.com/vietdungdev/mapcrafter/internal/server"
	"golang.org/x/sync/errgroup"
)

const (
	exitSuccess   = 0
	exitFailed    = 1
	exitCancelled = 2
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, debug.Stack()))
				sloggger.FlushLog()
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return f()
	}
}

func main() {
	profile := flag.String("profile", "", "run a single craft session for this profile and exit")
	configDir := flag.String("config", config.Dir, "configuration directory")
	flag.Parse()

	config.Dir = *configDir
	if err := config.Load(); err != nil {
		log.Fatalf("Error loading configuration: %s", err.Error())
	}

	logger, err := sloggger.NewLogger(config.Crafter.Debug.Log, config.Crafter.LogSaveDirectory, *profile)
	if err != nil {
		log.Fatalf("Error starting logger: %s", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every profile crafts on its own simulated stash.
	manager := crafter.NewManager(logger, func(string) (craft.Inventory, error) {
		return inventory.New(config.Crafter.Simulator, logger), nil
	})

	if *profile != "" {
		code := runOnce(ctx, logger, manager, *profile)
		stop()
		sloggger.FlushAndClose()
		os.Exit(code)
	}

	if err = serve(ctx, logger, manager); err != nil {
		logger.Error("Error running crafter", slog.Any("error", err))
		stop()
		sloggger.FlushAndClose()
		os.Exit(exitFailed)
	}

	sloggger.FlushAndClose()
}

func runOnce(ctx context.Context, logger *slog.Logger, manager *crafter.Manager, profile string) int {
	ok, err := manager.Run(ctx, profile)
	switch {
	case ok:
		logger.Info("Craft session succeeded", "profile", profile)
		return exitSuccess
	case errors.Is(err, craft.ErrCancelled):
		logger.Warn("Craft session cancelled", "profile", profile)
		return exitCancelled
	case err != nil:
		logger.Error("Craft session ended with an error", "profile", profile, slog.Any("error", err))
		return exitFailed
	default:
		logger.Error("Craft session failed", "profile", profile, "status", manager.Status(profile).Error)
		return exitFailed
	}
}

func serve(ctx context.Context, logger *slog.Logger, manager *crafter.Manager) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)

	var srv *server.HttpServer
	if config.Crafter.Server.Enabled {
		srv = server.New(logger, manager)
		eventListener.Register(srv.HandleEvent)
		g.Go(wrapWithRecover(logger, func() error {
			defer cancel()
			logger.Info("Local server listening", "port", config.Crafter.Server.Port)
			return srv.Listen(ctx, config.Crafter.Server.Port)
		}))
	}

	var tunnel *ngrokremote.Tunnel
	if srv != nil && config.Crafter.Ngrok.Enabled {
		var err error
		tunnel, err = ngrokremote.Start(ctx, ngrokremote.Options{
			LocalAddr:     fmt.Sprintf("http://localhost:%d", config.Crafter.Server.Port),
			Authtoken:     config.Crafter.Ngrok.Authtoken,
			Region:        config.Crafter.Ngrok.Region,
			Domain:        config.Crafter.Ngrok.Domain,
			BasicAuthUser: config.Crafter.Ngrok.BasicAuthUser,
			BasicAuthPass: config.Crafter.Ngrok.BasicAuthPass,
		}, logger)
		if err != nil {
			logger.Error("ngrok tunnel failed to start", slog.Any("error", err))
		} else {
			logger.Info("ngrok tunnel established", slog.String("url", tunnel.URL()))
			if config.Crafter.Ngrok.SendURL {
				event.Send(event.TunnelOpened(tunnel.URL()))
			}
		}
	}

	if config.Crafter.Discord.Enabled {
		discordBot, err := discord.NewBot(
			config.Crafter.Discord.Token,
			config.Crafter.Discord.ChannelID,
			manager,
			config.Crafter.Discord.UseWebhook,
			config.Crafter.Discord.WebhookURL,
		)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(discordBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				return discordBot.Start(ctx)
			}))
		}
	}

	if config.Crafter.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(config.Crafter.Telegram.Token, config.Crafter.Telegram.ChatID, manager, logger)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(telegramBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				defer telegramBot.Close()
				return telegramBot.Start(ctx)
			}))
		}
	}

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return eventListener.Listen(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("Crafter shutting down...")
		manager.StopAll()
		if err := tunnel.Close(); err != nil {
			logger.Error("error stopping ngrok tunnel", slog.Any("error", err))
		}
		if srv == nil {
			return nil
		}
		if err := srv.Stop(); err != nil {
			logger.Error("error stopping local server", slog.Any("error", err))
			return err
		}
		return nil
	}))

	logger.Info("Crafter started", "version", config.Version, "profiles", manager.AvailableProfiles())

	return g.Wait()
}
