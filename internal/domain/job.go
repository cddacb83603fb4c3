// Package domain contains the pure types shared by the atelier client:
// transfer jobs, gallery items, and authentication identities.
package domain

// JobStatus is the lifecycle state of a remote style-transfer job as
// reported by the service. Transitions are pending → processing →
// {completed, failed}; completed and failed are terminal.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further status transitions can follow.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the recognized job states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Job is the client-side view of a remote style-transfer computation.
// The remote service is the transition authority; the client never
// infers a state change on its own except forcing failed when a status
// poll cannot reach the service at all.
type Job struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Progress    float64   `json:"progress,omitempty"`
	StyleLoss   *float64  `json:"style_loss,omitempty"`
	ContentLoss *float64  `json:"content_loss,omitempty"`
	ResultURL   string    `json:"result_url,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// TransferParams are the tunables sent with a transfer submission.
// LayerWeights maps VGG layer names to their relative style weights and
// is serialized as a JSON object form field.
type TransferParams struct {
	StyleWeight   float64
	ContentWeight float64
	NumSteps      int
	LayerWeights  map[string]float64
}

// Submission defaults applied when a field is left at its zero value;
// these mirror the service-side form defaults.
const (
	DefaultStyleWeight   = 1_000_000.0
	DefaultContentWeight = 1.0
	DefaultNumSteps      = 300
)

// WithDefaults returns a copy of p with zero-valued fields replaced by
// the service defaults.
func (p TransferParams) WithDefaults() TransferParams {
	if p.StyleWeight == 0 {
		p.StyleWeight = DefaultStyleWeight
	}
	if p.ContentWeight == 0 {
		p.ContentWeight = DefaultContentWeight
	}
	if p.NumSteps == 0 {
		p.NumSteps = DefaultNumSteps
	}
	return p
}
