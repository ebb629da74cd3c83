/**
 * ARK Log Watchdog - Main Entry Point
 *
 * Watches a fixed region of the screen for in-game tribe-log entries,
 * OCRs them, and posts trigger matches to a Discord webhook.
 *
 * Startup order: .env, config.yaml, logging, license gate, collaborators
 * (screen capture, Tesseract engine, webhook client, optional hit history),
 * then the watch loop until SIGINT/SIGTERM.
 */

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/OGFlash/ark-log-watchdog/internal/capture"
	"github.com/OGFlash/ark-log-watchdog/internal/clients"
	"github.com/OGFlash/ark-log-watchdog/internal/config"
	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
	"github.com/OGFlash/ark-log-watchdog/internal/logging"
	"github.com/OGFlash/ark-log-watchdog/internal/ocr"
	"github.com/OGFlash/ark-log-watchdog/internal/storage"
	"github.com/OGFlash/ark-log-watchdog/internal/watch"
)

// fail logs err and exits: 2 for the fatal setup class, 1 for everything else.
func fail(log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	if werrors.Fatal(err) {
		os.Exit(2)
	}
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	// A .env file is optional; system environment still applies.
	_ = godotenv.Load()
	logging.Init(os.Getenv("LOG_LEVEL"))
	log := logging.Component("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(log, err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		fail(log, err, "configuration is not runnable")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// License gate: the loop does not start without a valid token.
	if cfg.License.Disabled {
		log.Warn().Msg("license gate disabled by configuration")
	} else {
		lc, err := clients.NewLicenseClient(cfg.License.APIBase, cfg.License.AppID, cfg.License.PublicKeyPEM)
		if err != nil {
			fail(log, err, "failed to initialize license client")
		}
		ok, msg := lc.RequireValid(ctx, true, os.Getenv("ARKWD_LICENSE_KEY"))
		if !ok {
			fail(log, werrors.New(werrors.ErrorLicenseRejected, msg, nil), "license not valid")
		}
		log.Info().Str("status", msg).Msg("license check passed")
	}

	screen, err := capture.NewScreen()
	if err != nil {
		fail(log, err, "failed to initialize screen capture")
	}
	clamped := screen.Clamp(ocr.Rect{X: cfg.ROI.X, Y: cfg.ROI.Y, W: cfg.ROI.W, H: cfg.ROI.H})
	cfg.ROI = config.ROI{X: clamped.X, Y: clamped.Y, W: clamped.W, H: clamped.H}

	engine := ocr.NewEngine(ocr.EngineConfig{TessdataPrefix: cfg.TessdataPrefix})
	notifier := clients.NewDiscord(cfg.DiscordWebhookURL, allowedMentions(cfg))

	deps := watch.Deps{Screen: screen, Engine: engine, Notifier: notifier}
	if cfg.DatabaseURL != "" {
		history, err := storage.NewHitHistory(cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("hit history unavailable, continuing without it")
		} else {
			defer history.Close()
			deps.History = history
			log.Info().Msg("hit history enabled")
		}
	}

	watcher, err := watch.New(cfg, deps)
	if err != nil {
		fail(log, err, "failed to initialize watcher")
	}

	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		fail(log, err, "watch loop failed")
	}
	log.Info().Msg("shutdown complete")
}

// allowedMentions converts the config policy into the webhook payload shape.
func allowedMentions(cfg *config.Config) *clients.AllowedMentions {
	am := cfg.DiscordAllowedMentions
	out := &clients.AllowedMentions{Parse: []string{}}
	if am.Everyone {
		out.Parse = append(out.Parse, "everyone")
	}
	if am.Roles {
		out.Parse = append(out.Parse, "roles")
	}
	if am.Users {
		out.Parse = append(out.Parse, "users")
	}
	out.Roles = am.RoleIDs
	out.Users = am.UserIDs
	return out
}
