package rank

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rankscout/internal/browser/browsertest"
	"rankscout/internal/config"
	"rankscout/internal/logging"
)

const captchaMarker = `iframe[title="recaptcha-challenge"]`

const blockedHTML = `<html><body><iframe title="recaptcha-challenge"></iframe></body></html>`
const clearHTML = `<html><body><div class="g"><a href="https://example.com"><h3>Example</h3></a></div></body></html>`

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (n *recordingNotifier) Send(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return n.err
}

func (n *recordingNotifier) sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func captchaTestGate(session *browsertest.Session, notifier *recordingNotifier, timeout time.Duration) *CaptchaGate {
	cfg := &config.Config{}
	cfg.Serp.CaptchaMarker = captchaMarker
	cfg.Search.Captcha.PollInterval = config.Duration(2 * time.Millisecond)
	cfg.Search.Captcha.WaitTimeout = config.Duration(timeout)

	gate := NewCaptchaGate(cfg, session, notifier, logging.NewMultiLogger())
	gate.Out = &bytes.Buffer{}
	return gate
}

func TestWaitResumesWhenChallengeClears(t *testing.T) {
	session := browsertest.New()
	session.AddPage("serp", blockedHTML)
	session.Goto("serp")

	notifier := &recordingNotifier{}
	gate := captchaTestGate(session, notifier, time.Second)

	var pauses []bool
	var mu sync.Mutex
	gate.OnPause = func(paused bool) {
		mu.Lock()
		pauses = append(pauses, paused)
		mu.Unlock()
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		session.SetHTML("serp", clearHTML)
	}()

	if !gate.Wait(context.Background(), "red shoes") {
		t.Fatal("expected Wait to report the challenge resolved")
	}
	if got := notifier.sent(); got != 1 {
		t.Fatalf("expected exactly one alert, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(pauses) != 2 || !pauses[0] || pauses[1] {
		t.Fatalf("expected pause transitions [true false], got %v", pauses)
	}
}

func TestWaitTimesOutWhenUnsolved(t *testing.T) {
	session := browsertest.New()
	session.AddPage("serp", blockedHTML)
	session.Goto("serp")

	notifier := &recordingNotifier{}
	gate := captchaTestGate(session, notifier, 20*time.Millisecond)

	if gate.Wait(context.Background(), "red shoes") {
		t.Fatal("expected Wait to give up on an unsolved challenge")
	}
	if got := notifier.sent(); got != 1 {
		t.Fatalf("expected exactly one alert, got %d", got)
	}
}

func TestWaitKeepsPollingWhenAlertFails(t *testing.T) {
	session := browsertest.New()
	session.AddPage("serp", blockedHTML)
	session.Goto("serp")

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	gate := captchaTestGate(session, notifier, time.Second)

	go func() {
		time.Sleep(10 * time.Millisecond)
		session.SetHTML("serp", clearHTML)
	}()

	if !gate.Wait(context.Background(), "red shoes") {
		t.Fatal("alert failure must not stop the gate from resuming")
	}
	if got := notifier.sent(); got != 1 {
		t.Fatalf("expected exactly one alert attempt, got %d", got)
	}
}

func TestPresentDetectsMarker(t *testing.T) {
	session := browsertest.New()
	session.AddPage("serp", blockedHTML)
	session.Goto("serp")

	gate := captchaTestGate(session, &recordingNotifier{}, time.Second)
	if !gate.Present() {
		t.Fatal("expected the marker to be detected")
	}

	session.SetHTML("serp", clearHTML)
	if gate.Present() {
		t.Fatal("expected no marker on a clean page")
	}
}
