// Package transfer submits style-transfer jobs and tracks them to a
// terminal state by polling the service.
package transfer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
)

// ForcedFailureMessage is the fixed error recorded when a status check
// cannot reach the service; the loop stops without retrying.
const ForcedFailureMessage = "status check failed"

// DefaultPollInterval is used when TrackerOptions leaves Interval zero.
const DefaultPollInterval = 5 * time.Second

// TrackerOptions holds the dependencies for creating a Tracker.
type TrackerOptions struct {
	Client   *api.Client
	Interval time.Duration
	Logger   *slog.Logger
}

// Tracker drives the polling loop for at most one job at a time. The
// loop fires on a fixed wall-clock tick: a new status check starts
// every interval whether or not the previous one has answered, so two
// checks for the same job can be in flight at once. That is accepted;
// status is an idempotent read and the only ordering contract is that
// the loop stops permanently after delivering the first terminal
// observation.
//
// Tracking a new job cancels the previous loop, and any response still
// in flight for the superseded job is dropped, never applied.
type Tracker struct {
	client   *api.Client
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    int
	active bool
}

// NewTracker creates a Tracker.
func NewTracker(opts TrackerOptions) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tracker{
		client:   opts.Client,
		interval: opts.Interval,
		logger:   opts.Logger,
	}
}

// Track starts polling jobID and returns the update stream. Every
// observed status is delivered in arrival order; the first terminal
// status is delivered and then the channel is closed. Tracking a new
// job, cancelling, or cancelling ctx tears the loop down and closes
// the channel without further updates.
func (t *Tracker) Track(ctx context.Context, jobID string) <-chan domain.Job {
	loopCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	t.cancel = cancel
	t.active = true
	t.mu.Unlock()

	updates := make(chan domain.Job, 16)
	go t.loop(loopCtx, cancel, gen, jobID, updates)
	return updates
}

// Cancel stops the outstanding loop, if any. Safe to call repeatedly.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.active = false
}

// Active reports whether a polling loop is currently live.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// finish releases a loop's resources. A superseded loop must not
// clobber the live loop's state, so only the current generation may
// clear the tracker fields.
func (t *Tracker) finish(gen int, cancel context.CancelFunc) {
	cancel()
	t.mu.Lock()
	if gen == t.gen {
		t.active = false
		t.cancel = nil
	}
	t.mu.Unlock()
}

type pollResult struct {
	job domain.Job
	err error
}

func (t *Tracker) loop(ctx context.Context, cancel context.CancelFunc, gen int, jobID string, updates chan<- domain.Job) {
	defer close(updates)
	defer t.finish(gen, cancel)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	results := make(chan pollResult)
	fetch := func() {
		var job domain.Job
		err := t.client.GetJSON(ctx, "/transfer/"+jobID, &job)
		select {
		case results <- pollResult{job: job, err: err}:
		case <-ctx.Done():
			// Cancelled while this check was in flight: drop it.
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go fetch()
		case res := <-results:
			job := res.job
			if res.err != nil {
				// Transport failure: force the job failed and stop.
				// No retry budget, no backoff.
				t.logger.WarnContext(ctx, "status check failed, marking job failed",
					"job_id", jobID, "error", res.err)
				job = domain.Job{ID: jobID, Status: domain.JobStatusFailed, Error: ForcedFailureMessage}
			}
			if !t.deliver(ctx, updates, job) {
				return
			}
			if job.Status.Terminal() {
				// Inclusive-terminal semantics: the terminal value was
				// just emitted, now stop for good.
				return
			}
		}
	}
}

// deliver sends an update unless the loop was cancelled meanwhile.
func (t *Tracker) deliver(ctx context.Context, updates chan<- domain.Job, job domain.Job) bool {
	select {
	case updates <- job:
		return true
	case <-ctx.Done():
		return false
	}
}
