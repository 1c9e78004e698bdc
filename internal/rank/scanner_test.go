package rank

import (
	"context"
	"testing"
	"time"

	"rankscout/internal/browser/browsertest"
	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/pkg/models"
)

func scannerTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Serp.ResultContainer = "div.g"
	cfg.Serp.Link = "a"
	cfg.Serp.Heading = "h3"
	cfg.Serp.AdMarker = "[data-text-ad]"
	cfg.Search.ResultsWait = config.Duration(50 * time.Millisecond)
	return cfg
}

const mixedSerpHTML = `<html><body>
<div class="g"><span data-text-ad="1"></span><a href="https://ads.example/promo"><h3>Sponsored</h3></a></div>
<div class="g"><a href="https://alpha.example/page"><h3>Alpha</h3></a></div>
<div class="g"><a href="https://beta.example/page"><h3>   </h3></a></div>
<div class="g"><h3>Headline without a link</h3></div>
<div class="g"><a href="https://www.myntra.com/shoes"><h3>Shoes</h3></a></div>
<div class="g"><a href="https://gamma.example/page"><h3>Gamma</h3></a></div>
</body></html>`

func TestCollectFiltersAndKeepsRanksContiguous(t *testing.T) {
	session := browsertest.New()
	session.AddPage("serp", mixedSerpHTML)
	session.Goto("serp")

	scanner := NewScanner(scannerTestConfig(), session, logging.NewMultiLogger())
	results, err := scanner.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// A headed block with no readable link keeps its position; only ads and
	// headingless blocks are dropped from the ranking
	want := []models.OrganicResult{
		{Rank: 1, URL: "https://alpha.example/page"},
		{Rank: 2, URL: ""},
		{Rank: 3, URL: "https://www.myntra.com/shoes"},
		{Rank: 4, URL: "https://gamma.example/page"},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(results), len(want), results)
	}
	for i, r := range results {
		if r != want[i] {
			t.Fatalf("result %d = %+v, want %+v", i, r, want[i])
		}
	}
}

func TestCollectAppliesPageOffset(t *testing.T) {
	session := browsertest.New()
	session.AddPage("serp", mixedSerpHTML)
	session.Goto("serp")

	scanner := NewScanner(scannerTestConfig(), session, logging.NewMultiLogger())
	results, err := scanner.Collect(context.Background(), 10)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if results[0].Rank != 11 {
		t.Fatalf("first rank = %d, want 11", results[0].Rank)
	}
}

func TestCollectErrorsWhenResultsNeverAppear(t *testing.T) {
	session := browsertest.New()
	session.AddPage("empty", "<html><body><p>nothing</p></body></html>")
	session.Goto("empty")

	scanner := NewScanner(scannerTestConfig(), session, logging.NewMultiLogger())
	if _, err := scanner.Collect(context.Background(), 0); err == nil {
		t.Fatal("expected an error when no result containers appear")
	}
}

func TestMatchUsesSubstringContainment(t *testing.T) {
	scanner := NewScanner(scannerTestConfig(), browsertest.New(), logging.NewMultiLogger())
	results := []models.OrganicResult{
		{Rank: 1, URL: "https://alpha.example/page"},
		{Rank: 2, URL: ""},
		{Rank: 3, URL: "https://www.myntra.com/shoes"},
		{Rank: 4, URL: "https://myntra.com/bags"},
	}

	hit, ok := scanner.Match(results, "myntra.com")
	if !ok {
		t.Fatal("expected a match")
	}
	if hit.Rank != 3 {
		t.Fatalf("matched rank %d, want the first containing URL at rank 3", hit.Rank)
	}

	if _, ok := scanner.Match(results, "nowhere.example"); ok {
		t.Fatal("expected no match")
	}
}
