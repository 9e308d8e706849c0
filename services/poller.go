package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"casa_monitor/models"
)

// PollerState tracks the run lifecycle: a new StartRun re-enters
// triggering, settled is terminal per cycle.
type PollerState string

const (
	StateIdle       PollerState = "idle"
	StateTriggering PollerState = "triggering"
	StatePolling    PollerState = "polling"
	StateSettled    PollerState = "settled"
)

// DefaultPollInterval is how often the run list is refreshed while any
// run is still pending.
const DefaultPollInterval = 5 * time.Second

// RunLister is the slice of the store the poller reads.
type RunLister interface {
	ListRunsForAgency(ctx context.Context, agencyID uuid.UUID) ([]models.AgencyRun, error)
}

// RunTrigger starts a run on the remote job service.
type RunTrigger interface {
	StartRun(ctx context.Context, agencyID uuid.UUID) error
}

// SessionLog receives operational events from the poller. May be nil.
type SessionLog interface {
	RecordTriggerAttempt(agencyID string, attemptErr error) error
	StartPollSession(agencyID string, generation uint64) (int64, error)
	TickPollSession(id int64) error
	SettlePollSession(id int64) error
}

// Poller owns the single long-lived timer of the monitor. Exactly one
// polling session is active at a time; starting a new one cancels the
// previous session, and sessions are generation-tagged so a refresh
// from a superseded session never overwrites newer state.
type Poller struct {
	store    RunLister
	trigger  RunTrigger
	oplog    SessionLog
	interval time.Duration

	mu         sync.Mutex
	state      PollerState
	loading    bool
	generation uint64
	cancel     context.CancelFunc
	runs       []models.AgencyRun

	errs chan error
}

func NewPoller(store RunLister, trigger RunTrigger, oplog SessionLog, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		store:    store,
		trigger:  trigger,
		oplog:    oplog,
		interval: interval,
		state:    StateIdle,
		errs:     make(chan error, 8),
	}
}

func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Runs returns the latest complete run-list snapshot, newest first.
func (p *Poller) Runs() []models.AgencyRun {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.AgencyRun, len(p.runs))
	copy(out, p.runs)
	return out
}

// Errs exposes trigger and refresh failures. The channel is buffered
// and sends never block; a caller that ignores it loses nothing but
// the error text.
func (p *Poller) Errs() <-chan error {
	return p.errs
}

// StartRun asks the job service for a new run and begins polling until
// no run is pending. The trigger request is asynchronous; its failure
// is reported through Errs and the operational log, and polling starts
// regardless, matching the fire-and-forget contract.
func (p *Poller) StartRun(ctx context.Context, agencyID uuid.UUID) {
	p.mu.Lock()
	p.stopLocked()
	p.state = StateTriggering
	p.loading = true
	p.mu.Unlock()

	go func() {
		err := p.trigger.StartRun(ctx, agencyID)
		if p.oplog != nil {
			if logErr := p.oplog.RecordTriggerAttempt(agencyID.String(), err); logErr != nil {
				log.Printf("Poller: oplog write failed: %v", logErr)
			}
		}
		if err != nil {
			log.Printf("Poller: trigger failed: %v", err)
			p.report(err)
		}
	}()

	p.StartPolling(ctx, agencyID)
}

// StartPolling refreshes the run list on a fixed period until no run
// has a nil completion timestamp. Any previous session is cancelled
// first: the single-active-timer invariant.
func (p *Poller) StartPolling(ctx context.Context, agencyID uuid.UUID) {
	p.mu.Lock()
	p.stopLocked()
	p.generation++
	gen := p.generation
	sctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StatePolling
	p.mu.Unlock()

	var sessionID int64
	if p.oplog != nil {
		id, err := p.oplog.StartPollSession(agencyID.String(), gen)
		if err != nil {
			log.Printf("Poller: oplog session failed: %v", err)
		} else {
			sessionID = id
		}
	}

	go p.pollLoop(sctx, gen, agencyID, sessionID)
}

// StopPolling cancels the active session, if any. Idempotent.
func (p *Poller) StopPolling() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if p.state == StatePolling || p.state == StateTriggering {
		p.state = StateIdle
	}
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) pollLoop(ctx context.Context, gen uint64, agencyID uuid.UUID, sessionID int64) {
	if p.refresh(ctx, gen, agencyID, sessionID) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.refresh(ctx, gen, agencyID, sessionID) {
				return
			}
		}
	}
}

// refresh fetches the run list and applies it unless this session has
// been superseded. Returns true when the loop should exit: either all
// runs completed or the session is stale. A failed fetch keeps the
// previous snapshot and keeps polling.
func (p *Poller) refresh(ctx context.Context, gen uint64, agencyID uuid.UUID, sessionID int64) bool {
	runs, err := p.store.ListRunsForAgency(ctx, agencyID)
	if err != nil {
		log.Printf("Poller: refresh failed, keeping previous run list: %v", err)
		p.report(err)
		return false
	}

	p.mu.Lock()
	if gen != p.generation {
		// Superseded by a newer session; discard this result.
		p.mu.Unlock()
		return true
	}

	p.runs = runs
	pending := false
	for i := range runs {
		if runs[i].Pending() {
			pending = true
			break
		}
	}
	if !pending {
		p.loading = false
		p.state = StateSettled
		p.stopLocked()
	}
	p.mu.Unlock()

	if p.oplog != nil && sessionID != 0 {
		_ = p.oplog.TickPollSession(sessionID)
		if !pending {
			_ = p.oplog.SettlePollSession(sessionID)
		}
	}

	return !pending
}

func (p *Poller) report(err error) {
	select {
	case p.errs <- err:
	default:
	}
}
