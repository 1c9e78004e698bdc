package rank

import (
	"context"
	"math/rand"

	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/pkg/models"
)

// Finder drives a full rank lookup: load the search engine, type the keyword
// like a person would, take at most one decoy detour, then walk result pages
// scanning for the target with a captcha check per page.
type Finder struct {
	cfg     *config.Config
	session browser.Session
	delays  *DelayPolicy
	detour  *DetourEngine
	scanner *Scanner
	captcha *CaptchaGate
	rng     *rand.Rand
	logger  logging.Logger
}

func NewFinder(cfg *config.Config, session browser.Session, delays *DelayPolicy, detour *DetourEngine, scanner *Scanner, captcha *CaptchaGate, rng *rand.Rand, logger logging.Logger) *Finder {
	return &Finder{
		cfg:     cfg,
		session: session,
		delays:  delays,
		detour:  detour,
		scanner: scanner,
		captcha: captcha,
		rng:     rng,
		logger:  logger,
	}
}

// FindRank looks up the organic rank of target for keyword. Any failure in
// the lookup resolves to the not-found outcome; a rank lookup never takes
// the batch down.
func (f *Finder) FindRank(ctx context.Context, keyword, target string) models.RankOutcome {
	outcome, err := f.run(ctx, keyword, target)
	if err != nil {
		f.logger.Error("Rank lookup failed", map[string]interface{}{
			"keyword": keyword,
			"error":   err.Error(),
		})
		return models.NoRank()
	}
	return outcome
}

func (f *Finder) run(ctx context.Context, keyword, target string) (models.RankOutcome, error) {
	f.logger.Info("Starting rank lookup", map[string]interface{}{
		"keyword": keyword,
		"target":  target,
	})

	if err := f.session.Navigate(ctx, f.cfg.Search.EntryURL); err != nil {
		return models.RankOutcome{}, err
	}
	if err := f.delays.Sleep(ctx, DelayPageLoad); err != nil {
		return models.RankOutcome{}, err
	}

	if err := f.submitQuery(ctx, keyword); err != nil {
		return models.RankOutcome{}, err
	}
	if err := f.delays.Sleep(ctx, DelayPageLoad); err != nil {
		return models.RankOutcome{}, err
	}

	// One roll per lookup, before the first scan
	if f.rng.Float64() < f.cfg.Search.DetourProbability {
		f.detour.Perform(ctx, target)
	}

	offset := 0
	for page := 1; page <= f.cfg.Search.MaxPages; page++ {
		if err := f.delays.Sleep(ctx, DelaySerpRead); err != nil {
			return models.RankOutcome{}, err
		}

		if f.captcha.Present() {
			if !f.captcha.Wait(ctx, keyword) {
				f.logger.Error("Captcha unresolved, abandoning lookup", map[string]interface{}{
					"keyword": keyword,
				})
				return models.NoRank(), nil
			}
		}

		results, err := f.scanner.Collect(ctx, offset)
		if err != nil {
			f.logger.Warn("No results extracted from page", map[string]interface{}{
				"keyword": keyword,
				"page":    page,
				"error":   err.Error(),
			})
			results = nil
		}
		f.logger.Info("Scanned results page", map[string]interface{}{
			"keyword": keyword,
			"page":    page,
			"results": len(results),
		})

		if hit, ok := f.scanner.Match(results, target); ok {
			f.logger.Info("Target found", map[string]interface{}{
				"keyword": keyword,
				"rank":    hit.Rank,
				"url":     hit.URL,
			})
			return models.FoundAt(hit.Rank, hit.URL), nil
		}

		if page == f.cfg.Search.MaxPages {
			break
		}
		if !f.nextPage(ctx, page) {
			break
		}
		offset += f.cfg.Search.ResultsPerPage
	}

	f.logger.Info("Target not found in scanned pages", map[string]interface{}{
		"keyword": keyword,
	})
	return models.NoRank(), nil
}

// submitQuery types the keyword one character at a time with jittered pauses
// and submits with Enter.
func (f *Finder) submitQuery(ctx context.Context, keyword string) error {
	box, err := f.session.WaitElement(ctx, f.cfg.Serp.SearchInput, f.cfg.Search.SearchBoxWait.Std())
	if err != nil {
		return err
	}
	for _, ch := range keyword {
		if err := box.Input(string(ch)); err != nil {
			return err
		}
		if err := f.delays.Sleep(ctx, DelayTyping); err != nil {
			return err
		}
	}
	return box.PressEnter()
}

// nextPage advances to the following results page. The pagination control is
// clicked through script: the native click is intercepted by the footer
// overlay on some layouts.
func (f *Finder) nextPage(ctx context.Context, page int) bool {
	next, err := f.session.Element(f.cfg.Serp.NextPage)
	if err != nil {
		f.logger.Info("No next page control, stopping pagination", map[string]interface{}{
			"page": page,
		})
		return false
	}
	if err := f.delays.Sleep(ctx, DelayBeforeNextPage); err != nil {
		return false
	}
	if err := f.session.ScriptClick(next); err != nil {
		f.logger.Warn("Failed to advance to next page", map[string]interface{}{
			"page":  page,
			"error": err.Error(),
		})
		return false
	}
	return true
}
