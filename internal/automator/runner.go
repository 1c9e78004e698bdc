package automator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"rankscout/internal/audit"
	"rankscout/internal/browser"
	"rankscout/internal/config"
	"rankscout/internal/ledger"
	"rankscout/internal/logging"
	"rankscout/internal/notify"
	"rankscout/internal/rank"
	"rankscout/pkg/models"
	"rankscout/pkg/utils"
)

// Runner processes the ledger's pending rows one at a time: rank lookup on
// the search engine, then the on-site audit, with results written back after
// each task. The loop is deliberately single-threaded; one browser session
// behaving like one person is the whole point.
type Runner struct {
	cfg      *config.Config
	session  browser.Session
	ledger   ledger.Ledger
	finder   *rank.Finder
	search   *audit.SiteSearch
	funnel   *audit.Funnel
	delays   *rank.DelayPolicy
	progress *Progress
	notifier notify.Notifier
	limiter  *rate.Limiter
	logger   logging.Logger
}

func NewRunner(cfg *config.Config, session browser.Session, led ledger.Ledger, finder *rank.Finder, search *audit.SiteSearch, funnel *audit.Funnel, delays *rank.DelayPolicy, progress *Progress, notifier notify.Notifier, logger logging.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		session:  session,
		ledger:   led,
		finder:   finder,
		search:   search,
		funnel:   funnel,
		delays:   delays,
		progress: progress,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Search.RatePerMinute)), 1),
		logger:   logger,
	}
}

// Run processes every pending ledger row. It returns an error only for
// run-level failures; individual task failures are logged, counted and the
// batch moves on.
func (r *Runner) Run(ctx context.Context) error {
	tasks, err := r.ledger.Tasks()
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	runID := utils.GenerateRunID()
	r.progress.StartRun(runID, len(tasks))
	r.logger.Info("Starting batch run", map[string]interface{}{
		"run_id": runID,
		"tasks":  len(tasks),
	})

	for i, task := range tasks {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		r.progress.BeginTask(task.Keyword)
		failed := r.runTask(ctx, task)
		r.progress.TaskDone(failed)

		if err := r.ledger.Save(); err != nil {
			r.logger.Error("Failed to persist ledger", map[string]interface{}{
				"row":   task.Row,
				"error": err.Error(),
			})
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if i < len(tasks)-1 {
			r.progress.SetPhase(PhaseCooldown)
			if err := r.delays.Sleep(ctx, rank.DelayBetweenTasks); err != nil {
				return err
			}
		}
	}

	r.progress.Finish()
	r.logger.Info("Batch run finished", map[string]interface{}{
		"run_id": runID,
	})
	return nil
}

// runTask executes one ledger row end to end. A panic anywhere inside is
// contained here: the row is marked failed and the loop continues with the
// next one.
func (r *Runner) runTask(ctx context.Context, task models.SearchTask) (failed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			failed = true
			r.logger.Error("Task panicked", map[string]interface{}{
				"keyword": task.Keyword,
				"row":     task.Row,
				"panic":   fmt.Sprintf("%v", rec),
			})
			subject := "Automation task crashed"
			body := fmt.Sprintf("Keyword %q (row %d) crashed: %v", task.Keyword, task.Row, rec)
			if err := r.notifier.Send(ctx, subject, body); err != nil {
				r.logger.Warn("Crash alert not delivered", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}()

	identifier := utils.HostIdentifier(task.Target)

	r.logger.Info("Processing task", map[string]interface{}{
		"keyword": task.Keyword,
		"target":  identifier,
		"row":     task.Row,
	})

	outcome := r.finder.FindRank(ctx, task.Keyword, identifier)
	if err := r.ledger.WriteRank(task.Row, outcome); err != nil {
		r.logger.Error("Failed to record rank", map[string]interface{}{
			"row":   task.Row,
			"error": err.Error(),
		})
		return true
	}

	// The audit starts from the page that actually ranks; only a fruitless
	// lookup falls back to the configured site
	startURL := r.cfg.Site.FallbackURL
	if outcome.Found {
		startURL = outcome.URL
	}

	r.progress.SetPhase(PhaseAuditing)
	landing := r.search.Landing(ctx, utils.EnsureScheme(startURL), task.Keyword)
	if err := r.session.Navigate(ctx, landing); err != nil {
		r.logger.Warn("Could not load landing page for audit", map[string]interface{}{
			"url":   landing,
			"error": err.Error(),
		})
		return true
	}
	verdict := r.funnel.Classify(ctx, task.Keyword)

	if err := r.ledger.WriteAudit(task.Row, verdict); err != nil {
		r.logger.Error("Failed to record audit verdict", map[string]interface{}{
			"row":   task.Row,
			"error": err.Error(),
		})
		return true
	}
	if err := r.ledger.MarkCompleted(task.Row); err != nil {
		r.logger.Error("Failed to mark row completed", map[string]interface{}{
			"row":   task.Row,
			"error": err.Error(),
		})
		return true
	}

	r.logger.Info("Task completed", map[string]interface{}{
		"keyword":  task.Keyword,
		"rank":     outcome.String(),
		"category": string(verdict.Category),
	})
	return false
}
