package gallery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/artmixer/atelier/internal/domain"
	"github.com/artmixer/atelier/internal/gallery"
	"github.com/artmixer/atelier/internal/mocks"
	"github.com/artmixer/atelier/internal/preset"
)

func lf(v float64) domain.LenientFloat { return domain.LenientFloat(v) }

// fixtureItems builds a small collection spanning every preset label.
func fixtureItems() []domain.GalleryItem {
	return []domain.GalleryItem{
		{
			ID:             "a",
			Timestamp:      "2026-03-01T10:00:00",
			StyleLoss:      lf(2),
			ContentLoss:    lf(1),
			ProcessingTime: lf(40),
			Parameters: domain.TransferParameters{
				StyleWeight:   lf(1_000_000),
				ContentWeight: lf(1),
				NumSteps:      lf(300),
			},
		},
		{
			ID:             "b",
			Timestamp:      "2026-03-03T10:00:00",
			StyleLoss:      lf(0.5),
			ContentLoss:    lf(0.25),
			ProcessingTime: lf(90),
			Parameters: domain.TransferParameters{
				StyleWeight:   lf(100_000),
				ContentWeight: lf(1),
				NumSteps:      lf(500),
			},
		},
		{
			ID:             "c",
			Timestamp:      "2026-03-02T10:00:00",
			StyleLoss:      lf(5),
			ContentLoss:    lf(3),
			ProcessingTime: lf(10),
			Parameters: domain.TransferParameters{
				StyleWeight:   lf(123),
				ContentWeight: lf(45),
				NumSteps:      lf(100),
			},
		},
		{
			ID:             "d",
			Timestamp:      "2026-03-04T10:00:00",
			StyleLoss:      lf(2),
			ContentLoss:    lf(1),
			ProcessingTime: lf(40),
			Parameters: domain.TransferParameters{
				StyleWeight:   lf(1_000_000),
				ContentWeight: lf(1),
				NumSteps:      lf(300),
			},
		},
	}
}

func ids(items []domain.GalleryItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func newView() *gallery.View {
	v := gallery.NewView(preset.NewClassifier(nil))
	v.SetItems(fixtureItems())
	return v
}

func TestView_SortOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  gallery.SortKey
		want []string
	}{
		{gallery.SortNewest, []string{"d", "b", "c", "a"}},
		{gallery.SortOldest, []string{"a", "c", "b", "d"}},
		{gallery.SortLossAsc, []string{"b", "a", "d", "c"}},
		{gallery.SortLossDesc, []string{"c", "a", "d", "b"}},
		{gallery.SortProcessingTime, []string{"b", "a", "d", "c"}},
		{gallery.SortSteps, []string{"b", "a", "d", "c"}},
		{gallery.SortKey("bogus"), []string{"d", "b", "c", "a"}}, // falls back to newest
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			t.Parallel()
			v := newView()
			v.SetSort(tt.key)
			assert.Equal(t, tt.want, ids(v.Items()))
		})
	}
}

func TestView_SortIsIdempotent(t *testing.T) {
	t.Parallel()

	v := newView()
	for _, key := range []gallery.SortKey{
		gallery.SortNewest, gallery.SortOldest, gallery.SortLossAsc,
		gallery.SortLossDesc, gallery.SortProcessingTime, gallery.SortSteps,
	} {
		v.SetSort(key)
		first := ids(v.Items())
		v.SetSort(key)
		assert.Equal(t, first, ids(v.Items()), "re-applying %s must not reorder", key)
	}
}

func TestView_TiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	// a and d tie on loss, processing time, and steps; a precedes d in
	// the base collection, so a must precede d in each of those views.
	v := newView()
	for _, key := range []gallery.SortKey{gallery.SortLossAsc, gallery.SortProcessingTime, gallery.SortSteps} {
		v.SetSort(key)
		got := ids(v.Items())
		aPos, dPos := -1, -1
		for i, id := range got {
			switch id {
			case "a":
				aPos = i
			case "d":
				dPos = i
			}
		}
		require.GreaterOrEqual(t, aPos, 0)
		require.GreaterOrEqual(t, dPos, 0)
		assert.Less(t, aPos, dPos, "stable sort must keep a before d for %s", key)
	}
}

func TestView_FilterAllEqualsBase(t *testing.T) {
	t.Parallel()

	v := newView()
	v.SetFilter(gallery.FilterAll)
	assert.Len(t, v.Items(), v.Len())
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids(v.Items()))
}

func TestView_FilterByLabel(t *testing.T) {
	t.Parallel()

	v := newView()

	v.SetFilter("balanced")
	assert.ElementsMatch(t, []string{"a", "d"}, ids(v.Items()))

	v.SetFilter("subtle")
	assert.ElementsMatch(t, []string{"b"}, ids(v.Items()))

	v.SetFilter("custom")
	assert.ElementsMatch(t, []string{"c"}, ids(v.Items()))
}

func TestView_LabelsPartitionTheCollection(t *testing.T) {
	t.Parallel()

	v := newView()
	seen := map[string]int{}
	for _, label := range preset.NewClassifier(nil).Labels() {
		v.SetFilter(label)
		for _, id := range ids(v.Items()) {
			seen[id]++
		}
	}

	// Every item appears under exactly one label: no overlap, no omission.
	assert.Len(t, seen, v.Len())
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %s appeared under %d labels", id, count)
	}
}

func TestView_FilterUsesClassifierOutput(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	classifier.EXPECT().Label(float64(1_000_000), float64(1)).Return("x").AnyTimes()
	classifier.EXPECT().Label(gomock.Any(), gomock.Any()).Return("y").AnyTimes()

	v := gallery.NewView(classifier)
	v.SetItems(fixtureItems())
	v.SetFilter("x")
	assert.ElementsMatch(t, []string{"a", "d"}, ids(v.Items()))
}

func TestView_RecomputeIsPure(t *testing.T) {
	t.Parallel()

	v := newView()
	v.SetFilter("balanced")
	v.SetSort(gallery.SortLossAsc)

	// Clearing the filter restores every item; prior filtering must not
	// have patched the base collection.
	v.SetFilter(gallery.FilterAll)
	assert.Len(t, v.Items(), 4)
}
