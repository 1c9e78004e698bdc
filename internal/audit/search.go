package audit

import (
	"context"
	"strings"

	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/logging"
)

// SiteSearch runs the target site's own search box and reports the landing
// URL for a keyword. The audit funnel then classifies that page.
type SiteSearch struct {
	cfg     *config.Config
	session browser.Session
	logger  logging.Logger
}

func NewSiteSearch(cfg *config.Config, session browser.Session, logger logging.Logger) *SiteSearch {
	return &SiteSearch{
		cfg:     cfg,
		session: session,
		logger:  logger,
	}
}

// Landing navigates to startURL, submits the keyword through the site search
// box and returns the resulting listing URL with tracking parameters
// stripped. On any failure it falls back to the stripped start URL so the
// audit can still run against a known page.
func (s *SiteSearch) Landing(ctx context.Context, startURL, keyword string) string {
	fallback := stripQuery(startURL)

	if err := s.session.Navigate(ctx, startURL); err != nil {
		s.logger.Warn("Could not open site for search", map[string]interface{}{
			"url":   startURL,
			"error": err.Error(),
		})
		return fallback
	}

	box, err := s.session.WaitElement(ctx, s.cfg.Site.SearchInput, s.cfg.Site.SearchWait.Std())
	if err != nil {
		s.logger.Warn("Site search box not found", map[string]interface{}{
			"url": startURL,
		})
		return fallback
	}
	if err := box.Clear(); err != nil {
		return fallback
	}
	if err := box.Input(keyword); err != nil {
		return fallback
	}
	if err := box.PressEnter(); err != nil {
		return fallback
	}

	// Either a listing or the empty-results banner means the search landed.
	settled := s.cfg.Site.ProductCount + ", " + s.cfg.Site.NoResults
	if _, err := s.session.WaitElement(ctx, settled, s.cfg.Site.BodyWait.Std()); err != nil {
		s.logger.Warn("Site search did not settle", map[string]interface{}{
			"keyword": keyword,
		})
		return fallback
	}

	return stripQuery(s.session.CurrentURL())
}

// stripQuery drops everything from the first query separator on. Listing
// URLs carry per-session tracking parameters that would make the ledger
// rows unstable.
func stripQuery(url string) string {
	if i := strings.Index(url, "?"); i >= 0 {
		return url[:i]
	}
	return url
}
