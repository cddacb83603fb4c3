package util //nolint:revive // package name util hosts shared formatting helpers used across CLI output

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatValue renders a loss/weight metric for display. Large values
// collapse to K/M suffixes, small values keep two decimals. nil means
// the value was never reported and renders as "--"; NaN and infinities
// come from degenerate optimizer states and render as "N/A" and "∞".
func FormatValue(v *float64) string {
	if v == nil {
		return "--"
	}
	x := *v
	switch {
	case math.IsNaN(x):
		return "N/A"
	case math.IsInf(x, 1):
		return "∞"
	case math.IsInf(x, -1):
		return "-∞"
	case math.Abs(x) >= 1_000_000:
		return strconv.FormatFloat(x/1_000_000, 'f', 1, 64) + "M"
	case math.Abs(x) >= 1_000:
		return strconv.FormatFloat(x/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
}

// FormatFloat is FormatValue for values known to be present.
func FormatFloat(v float64) string {
	return FormatValue(&v)
}

// FormatTotalLoss renders the combined style and content loss with two
// decimals: FormatTotalLoss(1.5, 2.25) == "3.75".
func FormatTotalLoss(styleLoss, contentLoss float64) string {
	return fmt.Sprintf("%.2f", styleLoss+contentLoss)
}

// FormatProcessingTime formats a processing time reported in seconds,
// truncated to milliseconds for readability. Returns "—" for zero or
// negative values.
func FormatProcessingTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	switch {
	case d <= 0:
		return "—"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
