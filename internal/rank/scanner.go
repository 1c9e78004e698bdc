package rank

import (
	"context"
	"strings"

	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/pkg/models"
)

// Scanner extracts ordered organic results from a results page and matches
// them against a target identifier.
type Scanner struct {
	session browser.Session
	cfg     *config.Config
	logger  logging.Logger
}

func NewScanner(cfg *config.Config, session browser.Session, logger logging.Logger) *Scanner {
	return &Scanner{
		session: session,
		cfg:     cfg,
		logger:  logger,
	}
}

// Collect waits for result containers to appear and returns the organic
// results on the current page, ranked offset+1, offset+2, and so on.
// Sponsored blocks and blocks without a heading are dropped before ranks are
// assigned; a block whose link cannot be read still holds its position, with
// an empty URL.
func (s *Scanner) Collect(ctx context.Context, offset int) ([]models.OrganicResult, error) {
	if _, err := s.session.WaitElement(ctx, s.cfg.Serp.ResultContainer, s.cfg.Search.ResultsWait.Std()); err != nil {
		return nil, err
	}

	blocks, err := s.session.Elements(s.cfg.Serp.ResultContainer)
	if err != nil {
		return nil, err
	}

	results := make([]models.OrganicResult, 0, len(blocks))
	for _, block := range blocks {
		if s.isSponsored(block) {
			continue
		}
		var href string
		if link, err := block.Element(s.cfg.Serp.Link); err == nil {
			if attr, err := link.Attribute("href"); err == nil {
				href = attr
			}
		}
		results = append(results, models.OrganicResult{
			Rank: offset + len(results) + 1,
			URL:  href,
		})
	}
	return results, nil
}

// Match returns the first result whose URL contains the target identifier.
// Results without a readable URL are skipped. Substring containment is
// deliberate: it matches www and country variants of the same site, at the
// cost of false positives on unrelated URLs that embed the identifier.
func (s *Scanner) Match(results []models.OrganicResult, target string) (models.OrganicResult, bool) {
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if strings.Contains(r.URL, target) {
			return r, true
		}
	}
	return models.OrganicResult{}, false
}

// isSponsored reports whether a result block is an ad or lacks a non-empty
// heading. Blocks without a heading are sitelinks, people-also-ask rows and
// other non-organic furniture.
func (s *Scanner) isSponsored(block browser.Element) bool {
	if ok, err := block.Has(s.cfg.Serp.AdMarker); err != nil || ok {
		return true
	}
	heading, err := block.Element(s.cfg.Serp.Heading)
	if err != nil {
		return true
	}
	text, err := heading.Text()
	if err != nil {
		return true
	}
	return strings.TrimSpace(text) == ""
}
