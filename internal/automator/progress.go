package automator

import (
	"sync"
	"time"

	"rankscout/pkg/models"
)

// Run phases reported by the status endpoint.
const (
	PhaseIdle     = "idle"
	PhaseRanking  = "ranking"
	PhaseAuditing = "auditing"
	PhaseCooldown = "cooldown"
	PhaseDone     = "done"
)

// Progress is the shared run state between the single-threaded run loop and
// the status API goroutine. All access goes through the mutex.
type Progress struct {
	mu     sync.Mutex
	status models.RunStatus
}

func NewProgress() *Progress {
	return &Progress{status: models.RunStatus{Phase: PhaseIdle}}
}

func (p *Progress) StartRun(runID string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = models.RunStatus{
		RunID:      runID,
		StartedAt:  time.Now().UTC(),
		Phase:      PhaseIdle,
		TotalTasks: total,
	}
}

func (p *Progress) BeginTask(keyword string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.CurrentKeyword = keyword
	p.status.Phase = PhaseRanking
}

func (p *Progress) SetPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Phase = phase
}

func (p *Progress) SetCaptchaPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.CaptchaPaused = paused
}

func (p *Progress) TaskDone(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.CurrentKeyword = ""
	p.status.CompletedTasks++
	if failed {
		p.status.FailedTasks++
	}
}

func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.CurrentKeyword = ""
	p.status.Phase = PhaseDone
}

// Snapshot returns a copy of the current run state.
func (p *Progress) Snapshot() models.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
