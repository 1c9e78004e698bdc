package rank

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"rankscout/internal/browser/browsertest"
	"rankscout/internal/config"
	"rankscout/internal/logging"
)

func detourTestConfig() *config.Config {
	cfg := delayTestConfig()
	cfg.Serp.ResultContainer = "div.g"
	cfg.Serp.Link = "a"
	cfg.Serp.Heading = "h3"
	return cfg
}

func newDetourEngine(cfg *config.Config, session *browsertest.Session, seed int64) *DetourEngine {
	rng := rand.New(rand.NewSource(seed))
	delays := NewDelayPolicy(cfg, rng)
	return NewDetourEngine(cfg, session, delays, rng, logging.NewMultiLogger())
}

const detourSerpHTML = `<html><body>
<div class="g"><a href="https://www.myntra.com/shoes"><h3>Target</h3></a></div>
<div class="g"><a href="https://example.com/one"><h3>One</h3></a></div>
<div class="g"><a href="https://example.org/two"><h3>Two</h3></a></div>
</body></html>`

func TestDetourNeverClicksTarget(t *testing.T) {
	cfg := detourTestConfig()
	session := browsertest.New()
	session.AddPage("serp", detourSerpHTML)
	session.AddPage("away", "<html><body>elsewhere</body></html>")
	session.Routes["https://example.com/one"] = "away"
	session.Routes["https://example.org/two"] = "away"
	session.Goto("serp")

	engine := newDetourEngine(cfg, session, 7)
	for i := 0; i < 25; i++ {
		engine.Perform(context.Background(), "myntra.com")
	}

	if len(session.Clicks) == 0 {
		t.Fatal("expected the generic detour to click something")
	}
	for _, clicked := range session.Clicks {
		if strings.Contains(clicked, "myntra.com") {
			t.Fatalf("detour clicked the target: %s", clicked)
		}
	}
}

func TestDetourSkipsWhenOnlyTargetLinksExist(t *testing.T) {
	cfg := detourTestConfig()
	session := browsertest.New()
	session.AddPage("serp", `<html><body>
<div class="g"><a href="https://www.myntra.com/a"><h3>A</h3></a></div>
<div class="g"><a href="https://www.myntra.com/b"><h3>B</h3></a></div>
</body></html>`)
	session.Goto("serp")

	engine := newDetourEngine(cfg, session, 3)
	engine.Perform(context.Background(), "myntra.com")

	if len(session.Clicks) != 0 {
		t.Fatalf("expected no clicks, got %v", session.Clicks)
	}
}

func TestDetourClicksDecoyTab(t *testing.T) {
	cfg := detourTestConfig()
	cfg.Serp.Detours = map[string]string{"images": "a.images-tab"}
	session := browsertest.New()
	session.AddPage("serp", `<html><body>
<a class="images-tab" href="https://search.example/images">Images</a>
</body></html>`)
	session.AddPage("images", "<html><body>pictures</body></html>")
	session.Routes["https://search.example/images"] = "images"
	session.Goto("serp")

	engine := newDetourEngine(cfg, session, 11)
	for i := 0; i < 20 && len(session.Clicks) == 0; i++ {
		engine.Perform(context.Background(), "myntra.com")
	}

	if len(session.Clicks) == 0 {
		t.Fatal("decoy tab was never clicked")
	}
	if session.Clicks[0] != "https://search.example/images" {
		t.Fatalf("unexpected click target: %s", session.Clicks[0])
	}
}

func TestDetourComesBackToResults(t *testing.T) {
	cfg := detourTestConfig()
	session := browsertest.New()
	session.AddPage("serp", detourSerpHTML)
	session.AddPage("away", "<html><body>elsewhere</body></html>")
	session.Routes["https://example.com/one"] = "away"
	session.Routes["https://example.org/two"] = "away"
	session.Goto("serp")

	engine := newDetourEngine(cfg, session, 5)
	deadline := time.Now().Add(2 * time.Second)
	for len(session.Clicks) == 0 && time.Now().Before(deadline) {
		engine.Perform(context.Background(), "myntra.com")
	}

	if got := session.CurrentURL(); got != "serp" {
		t.Fatalf("expected to return to the results page, on %q", got)
	}
}
