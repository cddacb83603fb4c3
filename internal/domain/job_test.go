package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestJobStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed} {
		assert.True(t, s.Valid(), "%s should be valid", s)
	}
	assert.False(t, JobStatus("stalled").Valid())
	assert.False(t, JobStatus("").Valid())
}

func TestTransferParams_WithDefaults(t *testing.T) {
	t.Parallel()

	got := TransferParams{}.WithDefaults()
	assert.Equal(t, DefaultStyleWeight, got.StyleWeight)
	assert.Equal(t, DefaultContentWeight, got.ContentWeight)
	assert.Equal(t, DefaultNumSteps, got.NumSteps)

	custom := TransferParams{StyleWeight: 5, ContentWeight: 2, NumSteps: 50}.WithDefaults()
	assert.Equal(t, 5.0, custom.StyleWeight)
	assert.Equal(t, 2.0, custom.ContentWeight)
	assert.Equal(t, 50, custom.NumSteps)
}
