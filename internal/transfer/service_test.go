package transfer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
	apperrors "github.com/artmixer/atelier/internal/errors"
	"github.com/artmixer/atelier/internal/testutil"
	"github.com/artmixer/atelier/internal/transfer"
)

func newService(t *testing.T, backend *testutil.Backend, sess api.SessionSource) *transfer.Service {
	t.Helper()
	client, err := api.New(api.Options{BaseURL: backend.URL(), Session: sess})
	require.NoError(t, err)
	tracker := transfer.NewTracker(transfer.TrackerOptions{Client: client, Interval: testInterval})
	return transfer.NewService(transfer.ServiceOptions{Client: client, Tracker: tracker})
}

func asset(name, content string) transfer.Asset {
	return transfer.Asset{Name: name, Reader: strings.NewReader(content)}
}

func TestService_SubmitRequiresBothImages(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := newService(t, backend, &stubSession{token: backend.IssueToken(false)})

	_, _, err := svc.Submit(context.Background(), transfer.Asset{}, asset("s.png", "style"), domain.TransferParams{})
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = svc.Submit(context.Background(), asset("c.png", "content"), transfer.Asset{}, domain.TransferParams{})
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, backend.Submissions)
}

func TestService_SubmitRequiresSession(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := newService(t, backend, &stubSession{})

	_, _, err := svc.Submit(context.Background(), asset("c.png", "content"), asset("s.png", "style"), domain.TransferParams{})
	assert.True(t, apperrors.IsAuthRequired(err))
	assert.Empty(t, backend.Submissions)
}

func TestService_SubmitSendsParamsWithDefaults(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.ScriptNextJob(domain.Job{Status: domain.JobStatusCompleted})

	svc := newService(t, backend, &stubSession{token: backend.IssueToken(false)})

	job, updates, err := svc.Submit(context.Background(),
		asset("cat.png", "content-bytes"),
		asset("wave.png", "style-bytes"),
		domain.TransferParams{LayerWeights: map[string]float64{"conv4_2": 1.5}})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, domain.JobStatusPending, job.Status)

	sub, ok := backend.LastSubmission()
	require.True(t, ok)
	assert.Equal(t, []byte("content-bytes"), sub.ContentImage)
	assert.Equal(t, []byte("style-bytes"), sub.StyleImage)
	assert.Equal(t, "1000000", sub.StyleWeight)
	assert.Equal(t, "1", sub.ContentWeight)
	assert.Equal(t, "300", sub.NumSteps)
	assert.JSONEq(t, `{"conv4_2": 1.5}`, sub.LayerWeights)

	got := collect(t, updates)
	require.NotEmpty(t, got)
	assert.Equal(t, domain.JobStatusCompleted, got[len(got)-1].Status)
}

func TestService_SubmitKeepsExplicitParams(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	backend.ScriptNextJob(domain.Job{Status: domain.JobStatusCompleted})

	svc := newService(t, backend, &stubSession{token: backend.IssueToken(false)})

	_, updates, err := svc.Submit(context.Background(),
		asset("c.png", "content"),
		asset("s.png", "style"),
		domain.TransferParams{StyleWeight: 50000, ContentWeight: 2.5, NumSteps: 120})
	require.NoError(t, err)
	collect(t, updates)

	sub, ok := backend.LastSubmission()
	require.True(t, ok)
	assert.Equal(t, "50000", sub.StyleWeight)
	assert.Equal(t, "2.5", sub.ContentWeight)
	assert.Equal(t, "120", sub.NumSteps)
	assert.Empty(t, sub.LayerWeights)
}

func TestService_SubmitRejectsWhileJobLive(t *testing.T) {
	t.Parallel()

	backend := testutil.NewBackend(t)
	svc := newService(t, backend, &stubSession{token: backend.IssueToken(false)})

	// The first job never leaves pending, so it stays live.
	_, _, err := svc.Submit(context.Background(), asset("c.png", "a"), asset("s.png", "b"), domain.TransferParams{})
	require.NoError(t, err)

	_, _, err = svc.Submit(context.Background(), asset("c2.png", "a"), asset("s2.png", "b"), domain.TransferParams{})
	assert.True(t, apperrors.IsValidation(err))
	assert.Len(t, backend.Submissions, 1)

	// Cancelling frees the slot.
	svc.Tracker().Cancel()
	_, _, err = svc.Submit(context.Background(), asset("c3.png", "a"), asset("s3.png", "b"), domain.TransferParams{})
	assert.NoError(t, err)
	svc.Tracker().Cancel()
}
