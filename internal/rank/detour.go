package rank

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/logging"
)

// genericDetour is the built-in option that clicks an unrelated organic
// result instead of one of the labeled decoy tabs.
const genericDetour = "random_link"

// DetourEngine performs a decoy interaction on the results page to break up
// the behavioral signature of the automation: open an alternate content tab
// or an unrelated result, dwell, then come back. Every failure degrades to a
// logged no-op; the page is never left in a broken state on purpose.
type DetourEngine struct {
	session browser.Session
	serp    *config.Config
	delays  *DelayPolicy
	rng     *rand.Rand
	logger  logging.Logger
}

// NewDetourEngine creates a detour engine with an injected random source.
func NewDetourEngine(cfg *config.Config, session browser.Session, delays *DelayPolicy, rng *rand.Rand, logger logging.Logger) *DetourEngine {
	return &DetourEngine{
		session: session,
		serp:    cfg,
		delays:  delays,
		rng:     rng,
		logger:  logger,
	}
}

// Perform picks one decoy action uniformly at random and executes it. The
// target identifier is excluded from the generic option so the engine never
// clicks into the very thing being measured.
func (d *DetourEngine) Perform(ctx context.Context, target string) {
	options := d.options()
	choice := options[d.rng.Intn(len(options))]

	d.logger.Info("Performing random detour", map[string]interface{}{
		"choice": choice,
	})

	var clicked bool
	if choice == genericDetour {
		clicked = d.clickNonTargetLink(target)
	} else {
		clicked = d.clickDecoyTab(choice)
	}
	if !clicked {
		return
	}

	if err := d.delays.Sleep(ctx, DelayDetourView); err != nil {
		return
	}

	d.logger.Info("Returning from detour")
	if err := d.session.Back(ctx); err != nil {
		d.logger.Warn("Failed to navigate back from detour", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_ = d.delays.Sleep(ctx, DelayBackSettle)
}

// options returns the labels in a stable order so a seeded random source
// replays the same choices.
func (d *DetourEngine) options() []string {
	labels := make([]string, 0, len(d.serp.Serp.Detours)+1)
	for label := range d.serp.Serp.Detours {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return append(labels, genericDetour)
}

func (d *DetourEngine) clickDecoyTab(label string) bool {
	selector := d.serp.Serp.Detours[label]
	el, err := d.session.Element(selector)
	if err != nil {
		d.logger.Warn("Detour element not available, skipping", map[string]interface{}{
			"detour": label,
		})
		return false
	}
	if err := el.Click(); err != nil {
		d.logger.Warn("Detour click failed, skipping", map[string]interface{}{
			"detour": label,
			"error":  err.Error(),
		})
		return false
	}
	return true
}

func (d *DetourEngine) clickNonTargetLink(target string) bool {
	blocks, err := d.session.Elements(d.serp.Serp.ResultContainer)
	if err != nil {
		d.logger.Warn("Could not enumerate results for detour", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	var candidates []browser.Element
	for _, block := range blocks {
		link, err := block.Element(d.serp.Serp.Link)
		if err != nil {
			continue
		}
		href, err := link.Attribute("href")
		if err != nil {
			continue
		}
		if href == "" || strings.Contains(href, target) {
			continue
		}
		candidates = append(candidates, link)
	}

	if len(candidates) == 0 {
		d.logger.Warn("No non-target link available for detour, skipping")
		return false
	}

	link := candidates[d.rng.Intn(len(candidates))]
	if err := link.Click(); err != nil {
		d.logger.Warn("Detour link click failed, skipping", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return true
}
