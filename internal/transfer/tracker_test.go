package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
	"github.com/artmixer/atelier/internal/testutil"
	"github.com/artmixer/atelier/internal/transfer"
)

const testInterval = 10 * time.Millisecond

type stubSession struct {
	token string
}

func (s *stubSession) IsAuthenticated() bool { return s.token != "" }
func (s *stubSession) IsAdmin() bool         { return false }

func (s *stubSession) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token, TokenType: "Bearer"})
}

func newTracker(t *testing.T, backend *testutil.Backend) *transfer.Tracker {
	t.Helper()
	client, err := api.New(api.Options{
		BaseURL: backend.URL(),
		Session: &stubSession{token: backend.IssueToken(false)},
	})
	require.NoError(t, err)
	return transfer.NewTracker(transfer.TrackerOptions{Client: client, Interval: testInterval})
}

// collect drains updates until the channel closes or the deadline hits.
func collect(t *testing.T, updates <-chan domain.Job) []domain.Job {
	t.Helper()
	var got []domain.Job
	deadline := time.After(5 * time.Second)
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return got
			}
			got = append(got, job)
		case <-deadline:
			t.Fatalf("update stream did not close; got %d updates", len(got))
		}
	}
}

func statuses(jobs []domain.Job) []domain.JobStatus {
	out := make([]domain.JobStatus, len(jobs))
	for i, j := range jobs {
		out[i] = j.Status
	}
	return out
}

func TestTracker_DeliversEveryStatusThenStops(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-1"] = []domain.Job{
		{Status: domain.JobStatusPending},
		{Status: domain.JobStatusProcessing, Progress: 0.4},
		{Status: domain.JobStatusCompleted, ResultURL: "/results/job-1.png"},
	}

	tracker := newTracker(t, backend)
	got := collect(t, tracker.Track(context.Background(), "job-1"))

	require.Equal(t, []domain.JobStatus{
		domain.JobStatusPending,
		domain.JobStatusProcessing,
		domain.JobStatusCompleted,
	}, statuses(got))
	assert.Equal(t, "/results/job-1.png", got[2].ResultURL)
	assert.False(t, tracker.Active())

	// The terminal status was delivered, so polling must stop for good.
	// A last overlapping check may still land, so settle first.
	time.Sleep(5 * testInterval)
	calls := backend.StatusCallCount("job-1")
	time.Sleep(10 * testInterval)
	assert.Equal(t, calls, backend.StatusCallCount("job-1"))
}

func TestTracker_FailedIsTerminalToo(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-2"] = []domain.Job{
		{Status: domain.JobStatusPending},
		{Status: domain.JobStatusFailed, Error: "optimizer diverged"},
	}

	tracker := newTracker(t, backend)
	got := collect(t, tracker.Track(context.Background(), "job-2"))

	require.Equal(t, []domain.JobStatus{
		domain.JobStatusPending,
		domain.JobStatusFailed,
	}, statuses(got))
	assert.Equal(t, "optimizer diverged", got[1].Error)

	time.Sleep(5 * testInterval)
	calls := backend.StatusCallCount("job-2")
	time.Sleep(10 * testInterval)
	assert.Equal(t, calls, backend.StatusCallCount("job-2"))
}

func TestTracker_TransportFailureForcesFailed(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	tracker := newTracker(t, backend)
	backend.Close()

	got := collect(t, tracker.Track(context.Background(), "job-3"))

	require.Len(t, got, 1)
	assert.Equal(t, domain.JobStatusFailed, got[0].Status)
	assert.Equal(t, transfer.ForcedFailureMessage, got[0].Error)
	assert.Equal(t, "job-3", got[0].ID)
	assert.False(t, tracker.Active())
}

func TestTracker_NewJobSupersedesOld(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-old"] = []domain.Job{{Status: domain.JobStatusPending}}
	backend.JobScripts["job-new"] = []domain.Job{{Status: domain.JobStatusCompleted}}

	tracker := newTracker(t, backend)
	oldUpdates := tracker.Track(context.Background(), "job-old")

	// Let the old loop get at least one poll in before superseding it.
	select {
	case <-oldUpdates:
	case <-time.After(5 * time.Second):
		t.Fatal("no update from the first job")
	}

	newUpdates := tracker.Track(context.Background(), "job-new")

	got := collect(t, newUpdates)
	require.Equal(t, []domain.JobStatus{domain.JobStatusCompleted}, statuses(got))

	// The superseded stream closes without a terminal status.
	old := collect(t, oldUpdates)
	for _, job := range old {
		assert.False(t, job.Status.Terminal())
	}

	time.Sleep(5 * testInterval)
	calls := backend.StatusCallCount("job-old")
	time.Sleep(10 * testInterval)
	assert.Equal(t, calls, backend.StatusCallCount("job-old"))
}

func TestTracker_ActiveStaysTrueAfterSupersede(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-old"] = []domain.Job{{Status: domain.JobStatusPending}}
	backend.JobScripts["job-new"] = []domain.Job{{Status: domain.JobStatusPending}}

	tracker := newTracker(t, backend)
	oldUpdates := tracker.Track(context.Background(), "job-old")

	select {
	case <-oldUpdates:
	case <-time.After(5 * time.Second):
		t.Fatal("no update from the first job")
	}

	newUpdates := tracker.Track(context.Background(), "job-new")

	// Drain the superseded stream so its loop has fully exited, then
	// confirm the exit did not clobber the live loop's state.
	collect(t, oldUpdates)
	assert.True(t, tracker.Active())

	select {
	case job := <-newUpdates:
		assert.Equal(t, domain.JobStatusPending, job.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("no update from the superseding job")
	}
	assert.True(t, tracker.Active())

	tracker.Cancel()
	assert.False(t, tracker.Active())
	collect(t, newUpdates)
}

func TestTracker_InFlightCheckDroppedOnSupersede(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-old"] = []domain.Job{{Status: domain.JobStatusPending}}
	backend.JobScripts["job-new"] = []domain.Job{{Status: domain.JobStatusCompleted}}
	release := backend.GateStatus("job-old")
	defer release()

	tracker := newTracker(t, backend)
	oldUpdates := tracker.Track(context.Background(), "job-old")

	// Wait until a status check for the old job is held in the handler.
	require.Eventually(t, func() bool {
		return backend.StatusCallCount("job-old") >= 1
	}, 5*time.Second, time.Millisecond)

	newUpdates := tracker.Track(context.Background(), "job-new")
	release()

	// The response was in flight at supersede time: it must never be
	// applied, so the old stream closes without a single update.
	old := collect(t, oldUpdates)
	assert.Empty(t, old)

	got := collect(t, newUpdates)
	require.Equal(t, []domain.JobStatus{domain.JobStatusCompleted}, statuses(got))
}

func TestTracker_InFlightCheckDroppedOnCancel(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-held"] = []domain.Job{{Status: domain.JobStatusPending}}
	release := backend.GateStatus("job-held")
	defer release()

	tracker := newTracker(t, backend)
	updates := tracker.Track(context.Background(), "job-held")

	require.Eventually(t, func() bool {
		return backend.StatusCallCount("job-held") >= 1
	}, 5*time.Second, time.Millisecond)

	tracker.Cancel()
	release()

	got := collect(t, updates)
	assert.Empty(t, got)
	assert.False(t, tracker.Active())
}

func TestTracker_Cancel(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-4"] = []domain.Job{{Status: domain.JobStatusPending}}

	tracker := newTracker(t, backend)
	updates := tracker.Track(context.Background(), "job-4")

	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("no update before cancel")
	}

	tracker.Cancel()
	assert.False(t, tracker.Active())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("update stream did not close after cancel")
		}
	}
}

func TestTracker_ContextCancellation(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.JobScripts["job-5"] = []domain.Job{{Status: domain.JobStatusPending}}

	ctx, cancel := context.WithCancel(context.Background())
	tracker := newTracker(t, backend)
	updates := tracker.Track(ctx, "job-5")
	cancel()

	got := collect(t, updates)
	for _, job := range got {
		assert.False(t, job.Status.Terminal())
	}
}
