package automator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"rankscout/internal/audit"
	"rankscout/internal/browser/browsertest"
	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/internal/notify"
	"rankscout/internal/rank"
	"rankscout/pkg/models"
)

type fakeLedger struct {
	mu        sync.Mutex
	tasks     []models.SearchTask
	ranks     map[int]models.RankOutcome
	audits    map[int]models.AuditOutcome
	completed map[int]bool
	saves     int

	rankErr      error
	panicOnAudit bool
}

func newFakeLedger(tasks ...models.SearchTask) *fakeLedger {
	return &fakeLedger{
		tasks:     tasks,
		ranks:     make(map[int]models.RankOutcome),
		audits:    make(map[int]models.AuditOutcome),
		completed: make(map[int]bool),
	}
}

func (f *fakeLedger) Tasks() ([]models.SearchTask, error) { return f.tasks, nil }

func (f *fakeLedger) WriteRank(row int, outcome models.RankOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rankErr != nil {
		return f.rankErr
	}
	f.ranks[row] = outcome
	return nil
}

func (f *fakeLedger) WriteAudit(row int, outcome models.AuditOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnAudit {
		panic("worksheet gone")
	}
	f.audits[row] = outcome
	return nil
}

func (f *fakeLedger) MarkCompleted(row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[row] = true
	return nil
}

func (f *fakeLedger) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return nil
}

func (f *fakeLedger) Close() error { return nil }

type countingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *countingNotifier) Send(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, subject)
	return nil
}

func runnerTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Search.EntryURL = "engine"
	cfg.Search.MaxPages = 1
	cfg.Search.ResultsPerPage = 10
	cfg.Search.DetourProbability = 0
	cfg.Search.RatePerMinute = 60000
	cfg.Search.ResultsWait = config.Duration(50 * time.Millisecond)
	cfg.Search.SearchBoxWait = config.Duration(50 * time.Millisecond)
	cfg.Search.Captcha.PollInterval = config.Duration(2 * time.Millisecond)
	cfg.Search.Captcha.WaitTimeout = config.Duration(20 * time.Millisecond)
	cfg.Serp.ResultContainer = "div.g"
	cfg.Serp.Link = "a"
	cfg.Serp.Heading = "h3"
	cfg.Serp.AdMarker = "[data-text-ad]"
	cfg.Serp.NextPage = "a#pnnext"
	cfg.Serp.SearchInput = "input#q"
	cfg.Serp.CaptchaMarker = `iframe[title="challenge"]`
	cfg.Site.FallbackURL = "https://www.myntra.com"
	cfg.Site.SearchInput = "input.searchBar"
	cfg.Site.NoResults = "span.title-corrections"
	cfg.Site.ProductCount = "span.title-count"
	cfg.Site.ContentBlock = "div.seo-content"
	cfg.Site.SearchWait = config.Duration(50 * time.Millisecond)
	cfg.Site.BodyWait = config.Duration(50 * time.Millisecond)
	cfg.Site.MinProductCount = 13
	cfg.Site.TitleMinLen = 45
	cfg.Site.TitleMaxLen = 70
	cfg.Site.DescMinLen = 145
	cfg.Site.DescMaxLen = 165
	cfg.Site.MinContentWords = 250

	ms := func(n int) config.Duration { return config.Duration(time.Duration(n) * time.Millisecond) }
	cfg.Delays.Typing = config.DelayRange{Min: ms(1), Max: ms(2)}
	cfg.Delays.PageLoad = config.DelayRange{Min: ms(1), Max: ms(2)}
	cfg.Delays.SerpRead = config.DelayRange{Min: ms(1), Max: ms(2)}
	cfg.Delays.BeforeNextPage = config.DelayRange{Min: ms(1), Max: ms(2)}
	cfg.Delays.DetourView = config.DelayRange{Min: ms(1), Max: ms(2)}
	cfg.Delays.BackSettle = config.DelayRange{Min: ms(1), Max: ms(2)}
	cfg.Delays.BetweenTasks = config.DelayRange{Min: ms(1), Max: ms(2)}
	return cfg
}

func runnerTestSession() *browsertest.Session {
	session := browsertest.New()
	session.AddPage("engine", `<html><body><input id="q" type="text"></body></html>`)
	session.AddPage("serp", `<html><body>
<div class="g"><a href="https://alpha.example/1"><h3>Alpha</h3></a></div>
<div class="g"><a href="https://www.myntra.com/shoes"><h3>Shoes</h3></a></div>
</body></html>`)
	storefront := `<html><body><input class="searchBar" type="text"></body></html>`
	session.AddPage("https://myntra.com", storefront)
	session.AddPage("https://www.myntra.com", storefront)
	session.AddPage("https://www.myntra.com/shoes", storefront)
	session.AddPage("https://www.myntra.com/red-shoes?src=s", `<html><body>
<span class="title-corrections">Nothing found</span>
</body></html>`)
	session.AddPage("https://www.myntra.com/red-shoes", `<html><body>
<span class="title-corrections">Nothing found</span>
</body></html>`)
	session.SubmitFunc = func(selector, typed string) string {
		switch selector {
		case "input#q":
			return "serp"
		case "input.searchBar":
			return "https://www.myntra.com/red-shoes?src=s"
		}
		return ""
	}
	return session
}

func newTestRunner(cfg *config.Config, session *browsertest.Session, led *fakeLedger, notifier notify.Notifier) (*Runner, *Progress) {
	rng := rand.New(rand.NewSource(1))
	logger := logging.NewMultiLogger()
	delays := rank.NewDelayPolicy(cfg, rng)
	gate := rank.NewCaptchaGate(cfg, session, notifier, logger)
	gate.Out = &bytes.Buffer{}
	detour := rank.NewDetourEngine(cfg, session, delays, rng, logger)
	scanner := rank.NewScanner(cfg, session, logger)
	finder := rank.NewFinder(cfg, session, delays, detour, scanner, gate, rng, logger)
	siteSearch := audit.NewSiteSearch(cfg, session, logger)
	funnel := audit.NewFunnel(cfg, session, logger)
	progress := NewProgress()
	runner := NewRunner(cfg, session, led, finder, siteSearch, funnel, delays, progress, notifier, logger)
	return runner, progress
}

func TestRunProcessesTasksEndToEnd(t *testing.T) {
	cfg := runnerTestConfig()
	session := runnerTestSession()
	led := newFakeLedger(
		models.SearchTask{Keyword: "red shoes", Target: "myntra.com", Row: 2},
		models.SearchTask{Keyword: "blue bags", Target: "www.myntra.com", Row: 3},
	)

	runner, progress := newTestRunner(cfg, session, led, &countingNotifier{})
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := led.ranks[2]; !got.Found || got.Rank != 2 {
		t.Fatalf("row 2 rank outcome = %+v", got)
	}
	if got := led.ranks[3]; !got.Found || got.Rank != 2 {
		t.Fatalf("row 3 rank outcome = %+v", got)
	}
	for _, row := range []int{2, 3} {
		if led.audits[row].Category != models.AuditDeletion {
			t.Fatalf("row %d audit = %+v", row, led.audits[row])
		}
		if !led.completed[row] {
			t.Fatalf("row %d not marked completed", row)
		}
	}
	if led.audits[2].Value != "red shoes" || led.audits[3].Value != "blue bags" {
		t.Fatalf("deletion values = %q, %q", led.audits[2].Value, led.audits[3].Value)
	}
	if led.saves < 2 {
		t.Fatalf("saves = %d, want one per task", led.saves)
	}

	snap := progress.Snapshot()
	if snap.CompletedTasks != 2 || snap.FailedTasks != 0 {
		t.Fatalf("progress = %+v", snap)
	}
	if snap.Phase != PhaseDone {
		t.Fatalf("phase = %q, want done", snap.Phase)
	}
}

func TestRunAuditsThePageThatRanks(t *testing.T) {
	cfg := runnerTestConfig()
	session := browsertest.New()
	session.AddPage("engine", `<html><body><input id="q" type="text"></body></html>`)
	session.AddPage("serp", `<html><body>
<div class="g"><a href="https://www.myntra.com/shoes"><h3>Shoes</h3></a></div>
</body></html>`)
	// The page that ranks has no site search and shows the empty-results
	// banner; the fallback homepage would lead to a healthy listing instead
	session.AddPage("https://www.myntra.com/shoes", `<html><body>
<span class="title-corrections">Nothing found</span>
</body></html>`)
	session.AddPage("https://www.myntra.com", `<html><body><input class="searchBar" type="text"></body></html>`)
	healthy := fmt.Sprintf(`<html><head><title>%s</title><meta name="description" content="%s"></head><body>
<span class="title-count">500 Items Found</span>
<div class="seo-content">%s</div>
</body></html>`, strings.Repeat("t", 50), strings.Repeat("m", 150), strings.TrimSpace(strings.Repeat("word ", 260)))
	session.AddPage("https://www.myntra.com/red-shoes", healthy)
	session.SubmitFunc = func(selector, typed string) string {
		switch selector {
		case "input#q":
			return "serp"
		case "input.searchBar":
			return "https://www.myntra.com/red-shoes"
		}
		return ""
	}

	led := newFakeLedger(models.SearchTask{Keyword: "red shoes", Target: "myntra.com", Row: 2})
	runner, _ := newTestRunner(cfg, session, led, &countingNotifier{})
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := led.ranks[2]; !got.Found || got.URL != "https://www.myntra.com/shoes" {
		t.Fatalf("row 2 rank outcome = %+v", got)
	}
	if got := led.audits[2]; got.Category != models.AuditDeletion {
		t.Fatalf("audit = %+v, want the verdict of the page that ranks", got)
	}
}

func TestRunCountsLedgerWriteFailure(t *testing.T) {
	cfg := runnerTestConfig()
	session := runnerTestSession()
	led := newFakeLedger(models.SearchTask{Keyword: "red shoes", Target: "myntra.com", Row: 2})
	led.rankErr = errors.New("disk full")

	runner, progress := newTestRunner(cfg, session, led, &countingNotifier{})
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := progress.Snapshot()
	if snap.FailedTasks != 1 {
		t.Fatalf("failed tasks = %d, want 1", snap.FailedTasks)
	}
	if led.completed[2] {
		t.Fatal("a failed row must not be marked completed")
	}
}

func TestRunRecoversFromTaskPanic(t *testing.T) {
	cfg := runnerTestConfig()
	session := runnerTestSession()
	led := newFakeLedger(
		models.SearchTask{Keyword: "red shoes", Target: "myntra.com", Row: 2},
		models.SearchTask{Keyword: "blue bags", Target: "myntra.com", Row: 3},
	)
	led.panicOnAudit = true

	notifier := &countingNotifier{}
	runner, progress := newTestRunner(cfg, session, led, notifier)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := progress.Snapshot()
	if snap.CompletedTasks != 2 || snap.FailedTasks != 2 {
		t.Fatalf("progress = %+v", snap)
	}
	if len(notifier.calls) != 2 {
		t.Fatalf("expected a crash alert per panicked task, got %v", notifier.calls)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	cfg := runnerTestConfig()
	session := runnerTestSession()
	led := newFakeLedger(
		models.SearchTask{Keyword: "red shoes", Target: "myntra.com", Row: 2},
		models.SearchTask{Keyword: "blue bags", Target: "myntra.com", Row: 3},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _ := newTestRunner(cfg, session, led, &countingNotifier{})
	if err := runner.Run(ctx); err == nil {
		t.Fatal("expected an error from a cancelled run")
	}
	if len(led.ranks) != 0 {
		t.Fatalf("no rows should have been processed, got %+v", led.ranks)
	}
}
