package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
	apperr "github.com/artmixer/atelier/internal/errors"
)

// Asset is an image to upload, streamed from Reader under Name.
type Asset struct {
	Name   string
	Reader io.Reader
}

// ServiceOptions holds the dependencies for creating a Service.
type ServiceOptions struct {
	Client  *api.Client
	Tracker *Tracker
	Logger  *slog.Logger
}

// Service submits new transfer jobs and hands them to the Tracker.
type Service struct {
	client  *api.Client
	tracker *Tracker
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		client:  opts.Client,
		tracker: opts.Tracker,
		logger:  opts.Logger,
	}
}

// Tracker exposes the tracker so callers can cancel or inspect it.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

type submitResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// Submit uploads both images with the given parameters and starts
// tracking the resulting job. It refuses to submit while an earlier
// job is still live, and checks authentication before touching the
// network. The returned channel follows the Tracker contract.
func (s *Service) Submit(ctx context.Context, content, style Asset, params domain.TransferParams) (domain.Job, <-chan domain.Job, error) {
	if content.Reader == nil {
		return domain.Job{}, nil, apperr.ValidationField("content_image", "a content image is required")
	}
	if style.Reader == nil {
		return domain.Job{}, nil, apperr.ValidationField("style_image", "a style image is required")
	}
	if s.tracker.Active() {
		return domain.Job{}, nil, apperr.Validation("a transfer is already in progress")
	}
	if !s.client.Session().IsAuthenticated() {
		return domain.Job{}, nil, apperr.AuthRequired("")
	}

	params = params.WithDefaults()

	body, contentType, err := encodeSubmission(content, style, params)
	if err != nil {
		return domain.Job{}, nil, err
	}

	var resp submitResponse
	if err := s.client.PostMultipart(ctx, "/transfer", body, contentType, &resp); err != nil {
		return domain.Job{}, nil, err
	}
	if resp.JobID == "" {
		return domain.Job{}, nil, apperr.Server("the server did not return a job id")
	}

	s.logger.InfoContext(ctx, "transfer submitted",
		"job_id", resp.JobID,
		"style_weight", params.StyleWeight,
		"content_weight", params.ContentWeight,
		"num_steps", params.NumSteps)

	job := domain.Job{ID: resp.JobID, Status: resp.Status}
	if job.Status == "" {
		job.Status = domain.JobStatusPending
	}
	return job, s.tracker.Track(ctx, resp.JobID), nil
}

func encodeSubmission(content, style Asset, params domain.TransferParams) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeAsset(w, "content_image", content); err != nil {
		return nil, "", err
	}
	if err := writeAsset(w, "style_image", style); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"style_weight":   strconv.FormatFloat(params.StyleWeight, 'f', -1, 64),
		"content_weight": strconv.FormatFloat(params.ContentWeight, 'f', -1, 64),
		"num_steps":      strconv.Itoa(params.NumSteps),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", apperr.Networkf("encoding submission: %v", err)
		}
	}
	if len(params.LayerWeights) > 0 {
		raw, err := json.Marshal(params.LayerWeights)
		if err != nil {
			return nil, "", apperr.Networkf("encoding layer weights: %v", err)
		}
		if err := w.WriteField("layer_weights", string(raw)); err != nil {
			return nil, "", apperr.Networkf("encoding submission: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", apperr.Networkf("encoding submission: %v", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeAsset(w *multipart.Writer, field string, a Asset) error {
	name := a.Name
	if name == "" {
		name = field
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return apperr.Networkf("encoding submission: %v", err)
	}
	if _, err := io.Copy(part, a.Reader); err != nil {
		return apperr.Network(fmt.Sprintf("reading %s", field), err)
	}
	return nil
}
