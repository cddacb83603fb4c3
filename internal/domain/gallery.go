package domain

import (
	"math"
	"strconv"
	"time"
)

// LenientFloat is a float64 that tolerates malformed input. The service's
// JSON encoder can emit null, omit fields entirely, or render
// non-finite values as the strings "Infinity"/"NaN"; all of those, and
// anything else that is not a finite number, decode to 0.
type LenientFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *LenientFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	s := string(data)
	if s == "null" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			*f = LenientFloat(v)
		}
		return nil
	}
	// Quoted values: tolerate numeric strings, swallow "Infinity"/"NaN"
	// and anything else unparseable.
	if unq, err := strconv.Unquote(s); err == nil {
		if v, err := strconv.ParseFloat(unq, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
			*f = LenientFloat(v)
		}
	}
	return nil
}

// Float64 returns the plain float value.
func (f LenientFloat) Float64() float64 { return float64(f) }

// TransferParameters are the recorded tunables of a finished run.
type TransferParameters struct {
	StyleWeight   LenientFloat            `json:"styleWeight"`
	ContentWeight LenientFloat            `json:"contentWeight"`
	NumSteps      LenientFloat            `json:"numSteps"`
	LayerWeights  map[string]LenientFloat `json:"layerWeights"`
}

// GalleryItem is one completed style-transfer run as stored by the
// service. Timestamps arrive as RFC 3339-ish strings without an offset;
// ParsedTime handles both forms.
type GalleryItem struct {
	ID              string             `json:"id"`
	Timestamp       string             `json:"timestamp"`
	ContentImageURL string             `json:"contentImageUrl"`
	StyleImageURL   string             `json:"styleImageUrl"`
	ResultImageURL  string             `json:"resultImageUrl"`
	BestLoss        LenientFloat       `json:"bestLoss"`
	StyleLoss       LenientFloat       `json:"styleLoss"`
	ContentLoss     LenientFloat       `json:"contentLoss"`
	ProcessingTime  LenientFloat       `json:"processingTime"`
	Parameters      TransferParameters `json:"parameters"`
}

// TotalLoss is the combined style and content loss used by loss sorts.
func (g GalleryItem) TotalLoss() float64 {
	return g.StyleLoss.Float64() + g.ContentLoss.Float64()
}

// ParsedTime parses the item timestamp, accepting RFC 3339 with or
// without a zone offset. Unparseable timestamps sort as the zero time.
func (g GalleryItem) ParsedTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, g.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}
