package rank

import (
	"context"
	"math/rand"
	"time"

	"rankscout/internal/config"
)

// DelayCategory names one class of humanlike pause.
type DelayCategory string

const (
	DelayTyping         DelayCategory = "typing"
	DelayPageLoad       DelayCategory = "page_load"
	DelaySerpRead       DelayCategory = "serp_read"
	DelayBeforeNextPage DelayCategory = "before_next_page"
	DelayDetourView     DelayCategory = "detour_view"
	DelayBackSettle     DelayCategory = "back_settle"
	DelayBetweenTasks   DelayCategory = "between_tasks"
)

// DelayPolicy supplies randomized wait durations per interaction category.
// Ranges come from configuration and are validated there to have non-zero
// width, so pacing never collapses into a bot-like fixed rhythm.
type DelayPolicy struct {
	ranges map[DelayCategory]config.DelayRange
	rng    *rand.Rand
}

// NewDelayPolicy builds a policy over the configured ranges. The random
// source is injected so tests can replay a fixed seed.
func NewDelayPolicy(cfg *config.Config, rng *rand.Rand) *DelayPolicy {
	return &DelayPolicy{
		ranges: map[DelayCategory]config.DelayRange{
			DelayTyping:         cfg.Delays.Typing,
			DelayPageLoad:       cfg.Delays.PageLoad,
			DelaySerpRead:       cfg.Delays.SerpRead,
			DelayBeforeNextPage: cfg.Delays.BeforeNextPage,
			DelayDetourView:     cfg.Delays.DetourView,
			DelayBackSettle:     cfg.Delays.BackSettle,
			DelayBetweenTasks:   cfg.Delays.BetweenTasks,
		},
		rng: rng,
	}
}

// Duration returns a uniformly random duration within the category's range.
func (p *DelayPolicy) Duration(category DelayCategory) time.Duration {
	r, ok := p.ranges[category]
	if !ok || r.Width() <= 0 {
		return r.Min.Std()
	}
	return r.Min.Std() + time.Duration(p.rng.Int63n(int64(r.Width())))
}

// Sleep blocks for a random duration within the category's range, returning
// early if the context is cancelled.
func (p *DelayPolicy) Sleep(ctx context.Context, category DelayCategory) error {
	d := p.Duration(category)
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
