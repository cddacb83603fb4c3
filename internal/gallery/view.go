// Package gallery holds the fetched gallery collection and the derived
// filtered/sorted view over it, plus the authenticated mutations that
// reload it.
package gallery

import (
	"sort"

	"github.com/artmixer/atelier/internal/domain"
)

// Classifier labels a (styleWeight, contentWeight) pair with a preset
// name. The preset package provides the production implementation.
type Classifier interface {
	Label(styleWeight, contentWeight float64) string
}

// SortKey selects a view ordering.
type SortKey string

const (
	SortNewest         SortKey = "newest"
	SortOldest         SortKey = "oldest"
	SortLossAsc        SortKey = "lossAsc"
	SortLossDesc       SortKey = "lossDesc"
	SortProcessingTime SortKey = "processingTime"
	SortSteps          SortKey = "steps"
)

// FilterAll passes every item regardless of classifier label.
const FilterAll = "all"

// View holds an immutable base collection and recomputes the derived
// view whenever the filter or sort input changes. Recomputation is
// pure: the base is never patched incrementally, and ties keep input
// order.
type View struct {
	classifier Classifier
	base       []domain.GalleryItem
	sortKey    SortKey
	filterKey  string
	derived    []domain.GalleryItem
}

// NewView creates an empty view sorted newest-first and unfiltered.
func NewView(classifier Classifier) *View {
	return &View{
		classifier: classifier,
		sortKey:    SortNewest,
		filterKey:  FilterAll,
	}
}

// SetItems replaces the base collection wholesale and recomputes.
func (v *View) SetItems(items []domain.GalleryItem) {
	v.base = append([]domain.GalleryItem(nil), items...)
	v.recompute()
}

// SetFilter changes the filter label and recomputes.
func (v *View) SetFilter(label string) {
	v.filterKey = label
	v.recompute()
}

// SetSort changes the sort key and recomputes.
func (v *View) SetSort(key SortKey) {
	v.sortKey = key
	v.recompute()
}

// Filter returns the active filter label.
func (v *View) Filter() string { return v.filterKey }

// Sort returns the active sort key.
func (v *View) Sort() SortKey { return v.sortKey }

// Len returns the size of the base collection, ignoring the filter.
func (v *View) Len() int { return len(v.base) }

// Items returns the derived view. The caller must not mutate it.
func (v *View) Items() []domain.GalleryItem { return v.derived }

func (v *View) recompute() {
	filtered := make([]domain.GalleryItem, 0, len(v.base))
	for _, item := range v.base {
		if v.passes(item) {
			filtered = append(filtered, item)
		}
	}

	less := comparator(v.sortKey)
	sort.SliceStable(filtered, func(i, j int) bool {
		return less(filtered[i], filtered[j])
	})
	v.derived = filtered
}

func (v *View) passes(item domain.GalleryItem) bool {
	if v.filterKey == FilterAll || v.filterKey == "" {
		return true
	}
	if v.classifier == nil {
		return true
	}
	label := v.classifier.Label(
		item.Parameters.StyleWeight.Float64(),
		item.Parameters.ContentWeight.Float64(),
	)
	return label == v.filterKey
}

// comparator returns the less function for a sort key. Unrecognized
// keys fall back to newest-first.
func comparator(key SortKey) func(a, b domain.GalleryItem) bool {
	switch key {
	case SortOldest:
		return func(a, b domain.GalleryItem) bool {
			return a.ParsedTime().Before(b.ParsedTime())
		}
	case SortLossAsc:
		return func(a, b domain.GalleryItem) bool {
			return a.TotalLoss() < b.TotalLoss()
		}
	case SortLossDesc:
		return func(a, b domain.GalleryItem) bool {
			return a.TotalLoss() > b.TotalLoss()
		}
	case SortProcessingTime:
		return func(a, b domain.GalleryItem) bool {
			return a.ProcessingTime.Float64() > b.ProcessingTime.Float64()
		}
	case SortSteps:
		return func(a, b domain.GalleryItem) bool {
			return a.Parameters.NumSteps.Float64() > b.Parameters.NumSteps.Float64()
		}
	case SortNewest:
		fallthrough
	default:
		return func(a, b domain.GalleryItem) bool {
			return a.ParsedTime().After(b.ParsedTime())
		}
	}
}
