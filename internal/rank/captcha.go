package rank

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/internal/notify"
)

// captchaState tracks one pause. It lives for a single Gate.Wait call.
type captchaState struct {
	firstSeenAt time.Time
	alertSent   bool
}

// CaptchaGate pauses the run while a security challenge blocks the page and
// waits for a human to clear it. Solving is strictly manual; the gate only
// detects, alerts and polls.
type CaptchaGate struct {
	session  browser.Session
	marker   string
	poll     time.Duration
	timeout  time.Duration
	notifier notify.Notifier
	logger   logging.Logger

	// Out receives the operator prompt and progress dots. Defaults to
	// stdout.
	Out io.Writer

	// OnPause, when set, is told whether the run is currently paused on a
	// challenge. Used to surface the state on the status endpoint.
	OnPause func(paused bool)
}

// NewCaptchaGate wires a gate against the current session. The notifier is
// injected so alert transport stays out of the gate's concern.
func NewCaptchaGate(cfg *config.Config, session browser.Session, notifier notify.Notifier, logger logging.Logger) *CaptchaGate {
	return &CaptchaGate{
		session:  session,
		marker:   cfg.Serp.CaptchaMarker,
		poll:     cfg.Search.Captcha.PollInterval.Std(),
		timeout:  cfg.Search.Captcha.WaitTimeout.Std(),
		notifier: notifier,
		logger:   logger,
		Out:      os.Stdout,
	}
}

// Present reports whether the challenge marker is on the current page.
func (g *CaptchaGate) Present() bool {
	present, err := g.session.Has(g.marker)
	if err != nil {
		g.logger.Warn("Captcha marker check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return present
}

// Wait blocks until the challenge marker disappears or the wait ceiling is
// hit. It returns true on resolution and false on timeout; callers must
// abandon the current task on false and move on. Exactly one out-of-band
// alert is sent per pause, and a failure to send it never blocks polling.
func (g *CaptchaGate) Wait(ctx context.Context, keyword string) bool {
	state := captchaState{firstSeenAt: time.Now()}

	g.logger.Warn("CAPTCHA detected, pausing for manual intervention", map[string]interface{}{
		"keyword": keyword,
	})
	if g.OnPause != nil {
		g.OnPause(true)
		defer g.OnPause(false)
	}

	for time.Since(state.firstSeenAt) < g.timeout {
		present, err := g.session.Has(g.marker)
		if err != nil {
			// Treat a failed check as still blocked and keep polling
			g.logger.Warn("Captcha marker check failed", map[string]interface{}{
				"error": err.Error(),
			})
			present = true
		}
		if !present {
			fmt.Fprintln(g.Out)
			g.logger.Info("CAPTCHA solved, resuming", map[string]interface{}{
				"keyword": keyword,
				"paused":  time.Since(state.firstSeenAt).Round(time.Second).String(),
			})
			return true
		}

		if !state.alertSent {
			g.printPrompt()
			subject := "Ranking automator alert: CAPTCHA - action required"
			body := fmt.Sprintf(
				"Hello,\n\nThe automator hit a security challenge and is paused.\n\nKeyword: %q\n\nPlease solve the check in the browser window. The run resumes automatically.\n\n- rankscout",
				keyword)
			if err := g.notifier.Send(ctx, subject, body); err != nil {
				g.logger.Error("Failed to send CAPTCHA alert", map[string]interface{}{
					"error": err.Error(),
				})
			}
			state.alertSent = true
		}

		select {
		case <-ctx.Done():
			g.logger.Error("Run cancelled while waiting on CAPTCHA", map[string]interface{}{
				"keyword": keyword,
			})
			return false
		case <-time.After(g.poll):
		}
		fmt.Fprint(g.Out, ".")
	}

	fmt.Fprintln(g.Out)
	g.logger.Error("CAPTCHA wait timed out, abandoning task", map[string]interface{}{
		"keyword": keyword,
		"waited":  g.timeout.String(),
	})
	return false
}

func (g *CaptchaGate) printPrompt() {
	line := "============================================================"
	fmt.Fprintln(g.Out)
	fmt.Fprintln(g.Out, line)
	fmt.Fprintln(g.Out, "ACTION REQUIRED: solve the CAPTCHA in the browser window.")
	fmt.Fprintf(g.Out, "The run waits up to %.0f minutes and resumes on its own.\n", g.timeout.Minutes())
	fmt.Fprintln(g.Out, line)
}
