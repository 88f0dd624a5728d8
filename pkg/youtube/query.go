package youtube

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ytsift/ytsift/pkg/core"
)

// PageSize is the number of result identifiers requested per search page.
const PageSize = 25

// DetailBatchSize is the upstream's per-request identifier limit for detail
// resolution.
const DetailBatchSize = 50

// SearchQuery is the resolved, preset-independent form of one search request.
type SearchQuery struct {
	Text            string
	CategoryID      int
	RegionCode      string
	RequireCaptions bool
	MinDurationSecs int
	Window          *core.TimeWindow
}

// Params renders the query as upstream request parameters. The duration class
// hint mirrors the minimum-duration threshold: twenty minutes and up maps to
// "long", ten minutes and up to "medium". Shorter thresholds get no hint
// because the upstream's "short" class would exclude mid-length videos.
func (q SearchQuery) Params() url.Values {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("maxResults", fmt.Sprintf("%d", PageSize))
	params.Set("q", q.Text)

	if q.CategoryID > 0 {
		params.Set("videoCategoryId", fmt.Sprintf("%d", q.CategoryID))
	}
	if q.RegionCode != "" {
		params.Set("regionCode", q.RegionCode)
	}
	if q.RequireCaptions {
		params.Set("videoCaption", "closedCaption")
	}
	if hint := DurationHint(q.MinDurationSecs); hint != "" {
		params.Set("videoDuration", hint)
	}
	if q.Window != nil {
		params.Set("publishedAfter", q.Window.Start.UTC().Format(time.RFC3339))
		params.Set("publishedBefore", q.Window.End.UTC().Format(time.RFC3339))
	}
	return params
}

// DurationHint maps a minimum-duration threshold to the upstream duration
// class, or "" when no class applies.
func DurationHint(minSecs int) string {
	switch {
	case minSecs >= 1200:
		return "long"
	case minSecs >= 600:
		return "medium"
	default:
		return ""
	}
}
