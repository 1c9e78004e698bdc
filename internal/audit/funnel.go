package audit

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/pkg/models"
)

// metaDescription locates the page's meta description tag.
const metaDescription = `meta[name="description"]`

var digitsPattern = regexp.MustCompile(`\d+`)

// Funnel classifies a listing page into exactly one audit category. Checks
// run in a fixed order and the first failing check decides the category, so
// a page with several problems surfaces the most severe one.
type Funnel struct {
	cfg     *config.Config
	session browser.Session
	logger  logging.Logger
}

func NewFunnel(cfg *config.Config, session browser.Session, logger logging.Logger) *Funnel {
	return &Funnel{
		cfg:     cfg,
		session: session,
		logger:  logger,
	}
}

// Classify audits the page currently loaded in the session for the keyword.
func (f *Funnel) Classify(ctx context.Context, keyword string) models.AuditOutcome {
	pageURL := stripQuery(f.session.CurrentURL())

	rules := []struct {
		category models.AuditCategory
		failed   func() bool
		value    string
	}{
		{models.AuditDeletion, f.noResults, keyword},
		{models.AuditTitleMeta, f.titleOrMetaBroken, pageURL},
		{models.AuditLowProductCount, f.productCountLow,
			fmt.Sprintf("Analysis stopped due to < %d products.", f.cfg.Site.MinProductCount)},
		{models.AuditContent, f.contentThin, pageURL},
	}

	for _, rule := range rules {
		if rule.failed() {
			f.logger.Info("Audit classified page", map[string]interface{}{
				"keyword":  keyword,
				"category": string(rule.category),
			})
			return models.AuditOutcome{Category: rule.category, Value: rule.value}
		}
	}

	f.logger.Info("Audit classified page", map[string]interface{}{
		"keyword":  keyword,
		"category": string(models.AuditOptimized),
	})
	return models.AuditOutcome{Category: models.AuditOptimized, Value: pageURL}
}

// noResults reports whether the site answered the search with its
// empty-results banner.
func (f *Funnel) noResults() bool {
	ok, err := f.session.Has(f.cfg.Site.NoResults)
	return err == nil && ok
}

// titleOrMetaBroken checks the title tag and meta description against the
// configured length windows and the placeholder glyph. Extraction errors
// count as a pass here: a page we cannot read the title of gets flagged by a
// later check or not at all, never misfiled as a title problem.
func (f *Funnel) titleOrMetaBroken() bool {
	title, err := f.session.Title()
	if err != nil {
		return false
	}
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < f.cfg.Site.TitleMinLen || n > f.cfg.Site.TitleMaxLen {
		return true
	}

	meta, err := f.session.Element(metaDescription)
	if err != nil {
		return true
	}
	desc, err := meta.Attribute("content")
	if err != nil {
		return false
	}
	if f.cfg.Site.PlaceholderGlyph != "" && strings.Contains(desc, f.cfg.Site.PlaceholderGlyph) {
		return true
	}
	dn := utf8.RuneCountInString(strings.TrimSpace(desc))
	return dn < f.cfg.Site.DescMinLen || dn > f.cfg.Site.DescMaxLen
}

// productCountLow reads the listing's result counter. A missing or
// unparseable counter is treated as a failure: a listing page without a
// count is not a healthy listing page.
func (f *Funnel) productCountLow() bool {
	el, err := f.session.Element(f.cfg.Site.ProductCount)
	if err != nil {
		return true
	}
	text, err := el.Text()
	if err != nil {
		return true
	}
	match := digitsPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return true
	}
	count, err := strconv.Atoi(match)
	if err != nil {
		return true
	}
	if count < f.cfg.Site.MinProductCount {
		f.logger.Info("Listing below product threshold", map[string]interface{}{
			"count": count,
		})
		return true
	}
	return false
}

// contentThin checks the SEO content block for the configured minimum word
// count. A page without the block fails outright; a block whose text cannot
// be read passes, like the other extraction errors.
func (f *Funnel) contentThin() bool {
	el, err := f.session.Element(f.cfg.Site.ContentBlock)
	if err != nil {
		return true
	}
	text, err := el.Text()
	if err != nil {
		return false
	}
	return len(strings.Fields(text)) < f.cfg.Site.MinContentWords
}
