package browser

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"rankscout/internal/config"
	"rankscout/internal/logging"
)

// Manager owns the single browser process behind the run. One manager, one
// browser, one page at a time - tasks are strictly sequential.
type Manager struct {
	config   *config.Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	logger   logging.Logger
}

// NewManager creates a browser manager with humanlike launch flags.
func NewManager(cfg *config.Config) *Manager {
	logger := logging.GetGlobalLogger()

	l := launcher.New().
		Headless(cfg.Search.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("no-first-run").
		Set("disable-extensions").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	if chromePath := systemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	} else {
		logger.Warn("System Chrome not found, Rod will download browser")
	}

	if cfg.Search.UserAgent != "" {
		l = l.Set("user-agent", cfg.Search.UserAgent)
	}

	return &Manager{
		config:   cfg,
		launcher: l,
		logger:   logger,
	}
}

// Start launches the browser process and connects to it.
func (m *Manager) Start(ctx context.Context) error {
	url, err := m.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	m.browser = browser
	m.logger.Info("Browser instance started")
	return nil
}

// NewSession creates the page all tasks will drive. Stealth mode masks the
// usual automation fingerprints before the first navigation.
func (m *Manager) NewSession() (Session, error) {
	if m.browser == nil {
		return nil, fmt.Errorf("browser not started")
	}

	var page *rod.Page
	var err error

	if m.config.Search.StealthMode {
		page, err = stealth.Page(m.browser)
	} else {
		page, err = m.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		m.logger.Warn("Failed to set viewport", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if m.config.Search.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: m.config.Search.UserAgent,
		}); err != nil {
			m.logger.Warn("Failed to set user agent", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return &rodSession{page: page, logger: m.logger}, nil
}

// Close shuts the browser down.
func (m *Manager) Close() error {
	if m.browser == nil {
		return nil
	}

	m.logger.Info("Closing browser")
	if err := m.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	m.browser = nil

	// Give the process a moment to release its profile lock
	time.Sleep(500 * time.Millisecond)
	m.launcher.Cleanup()
	return nil
}

// systemChromePath finds an installed Chrome/Chromium binary.
func systemChromePath() string {
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		candidates = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	default:
		candidates = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
