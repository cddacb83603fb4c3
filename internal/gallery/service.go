package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/singleflight"

	"github.com/artmixer/atelier/internal/api"
	"github.com/artmixer/atelier/internal/domain"
	apperrors "github.com/artmixer/atelier/internal/errors"
)

// ServiceOptions groups dependencies for Service.
type ServiceOptions struct {
	Client     *api.Client
	Classifier Classifier
	Logger     *slog.Logger
}

// Service fetches the gallery, owns its derived view, and performs the
// authenticated delete-then-reload mutation.
type Service struct {
	client *api.Client
	view   *View
	logger *slog.Logger

	// reloads collapses concurrent wholesale refetches into one trip.
	reloads singleflight.Group
}

// NewService constructs a gallery service with an empty view.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		client: opts.Client,
		view:   NewView(opts.Classifier),
		logger: opts.Logger,
	}, nil
}

// View returns the derived view for filter/sort control.
func (s *Service) View() *View { return s.view }

// Refresh refetches the entire gallery and replaces the base
// collection. Concurrent callers share one request.
func (s *Service) Refresh(ctx context.Context) error {
	_, err, _ := s.reloads.Do("gallery", func() (any, error) {
		var items []domain.GalleryItem
		if err := s.client.GetJSON(ctx, "/gallery", &items); err != nil {
			return nil, err
		}
		s.view.SetItems(items)
		s.logger.DebugContext(ctx, "gallery refreshed", "items", len(items))
		return nil, nil
	})
	return err
}

// Get fetches a single gallery item by id.
func (s *Service) Get(ctx context.Context, id string) (domain.GalleryItem, error) {
	if id == "" {
		return domain.GalleryItem{}, apperrors.ValidationField("id", "item id is required")
	}
	var item domain.GalleryItem
	if err := s.client.GetJSON(ctx, "/gallery/"+id, &item); err != nil {
		return domain.GalleryItem{}, err
	}
	return item, nil
}

// Delete removes a gallery item remotely, then reloads the base
// collection. Without a session it fails with AuthRequired before any
// network call and the held collection is untouched; there is no
// optimistic local removal.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ValidationField("id", "item id is required")
	}
	if !s.client.Session().IsAuthenticated() {
		return apperrors.AuthRequired("")
	}
	if err := s.client.Delete(ctx, "/gallery/"+id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Query evaluates a JMESPath expression against the raw gallery JSON,
// for ad-hoc CLI projections like "[?styleLoss > `2`].id".
func (s *Service) Query(ctx context.Context, expr string) (any, error) {
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, apperrors.Validationf("invalid query expression: %v", err)
	}

	raw, err := s.client.GetRaw(ctx, "/gallery")
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperrors.Network("decode gallery response", err)
	}

	result, err := jmespath.Search(expr, data)
	if err != nil {
		return nil, apperrors.Validationf("evaluate query expression: %v", err)
	}
	return result, nil
}
