package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"rankscout/internal/api/routes"
	"rankscout/internal/audit"
	"rankscout/internal/automator"
	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/ledger"
	"rankscout/internal/logging"
	"rankscout/internal/notify"
	"rankscout/internal/rank"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	seed := flag.Int64("seed", 0, "random seed for replayable timing and detours (0 = time-based)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()
	logger.Info("Starting rank automation")

	notifier, err := notify.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to configure notifications", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	led, err := ledger.Open(cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer led.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the browser
	manager := browser.NewManager(cfg)
	if err := manager.Start(ctx); err != nil {
		logger.Error("Failed to start browser", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer manager.Close()

	session, err := manager.NewSession()
	if err != nil {
		logger.Error("Failed to open browser session", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer session.Close()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	logger.Info("Random source seeded", map[string]interface{}{
		"seed": *seed,
	})

	// Wire the run pipeline
	progress := automator.NewProgress()
	delays := rank.NewDelayPolicy(cfg, rng)
	captcha := rank.NewCaptchaGate(cfg, session, notifier, logger)
	captcha.OnPause = progress.SetCaptchaPaused
	detour := rank.NewDetourEngine(cfg, session, delays, rng, logger)
	scanner := rank.NewScanner(cfg, session, logger)
	finder := rank.NewFinder(cfg, session, delays, detour, scanner, captcha, rng, logger)
	siteSearch := audit.NewSiteSearch(cfg, session, logger)
	funnel := audit.NewFunnel(cfg, session, logger)
	runner := automator.NewRunner(cfg, session, led, finder, siteSearch, funnel, delays, progress, notifier, logger)

	// Observation API
	var e *echo.Echo
	if cfg.Server.Enabled {
		e = echo.New()
		e.HideBanner = true
		e.Server.ReadTimeout = cfg.Server.ReadTimeout.Std()
		e.Server.WriteTimeout = cfg.Server.WriteTimeout.Std()
		routes.SetupRoutes(e, progress)

		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			logger.Info("Status server starting", map[string]interface{}{
				"address": address,
			})
			if err := e.Start(address); err != nil {
				logger.Info("Status server stopped", map[string]interface{}{
					"reason": err.Error(),
				})
			}
		}()
	}

	if err := runner.Run(ctx); err != nil {
		logger.Error("Batch run aborted", map[string]interface{}{
			"error": err.Error(),
		})
		if ctx.Err() == nil {
			alertCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if sendErr := notifier.Send(alertCtx, "Automation run aborted", err.Error()); sendErr != nil {
				logger.Warn("Abort alert not delivered", map[string]interface{}{
					"error": sendErr.Error(),
				})
			}
			cancel()
		}
	}

	if e != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down status server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	logger.Info("Shutdown complete")
}
