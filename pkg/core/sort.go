package core

import (
	"fmt"
	"sort"
)

// SortKey selects the final ordering of a run's merged video list.
type SortKey string

const (
	SortPublishedDesc SortKey = "published-desc"
	SortPublishedAsc  SortKey = "published-asc"
	SortDurationAsc   SortKey = "duration-asc"
	SortDurationDesc  SortKey = "duration-desc"
	SortChannelAsc    SortKey = "channel-asc"
)

// ParseSortKey validates a sort key string, mapping the empty string to the
// default publish-time-descending order.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortPublishedDesc, nil
	case SortPublishedDesc, SortPublishedAsc, SortDurationAsc, SortDurationDesc, SortChannelAsc:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("unknown sort key %q (valid: %s, %s, %s, %s, %s)",
		s, SortPublishedDesc, SortPublishedAsc, SortDurationAsc, SortDurationDesc, SortChannelAsc)
}

// SortVideos orders videos in place by the given key. All orderings break
// ties by video ID ascending so repeated sorts are deterministic no-ops.
func SortVideos(videos []Video, key SortKey) {
	less := func(a, b *Video) bool {
		switch key {
		case SortPublishedAsc:
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.Before(b.PublishedAt)
			}
		case SortDurationAsc:
			if a.DurationSecs != b.DurationSecs {
				return a.DurationSecs < b.DurationSecs
			}
		case SortDurationDesc:
			if a.DurationSecs != b.DurationSecs {
				return a.DurationSecs > b.DurationSecs
			}
		case SortChannelAsc:
			an, bn := a.ChannelSortName(), b.ChannelSortName()
			if an != bn {
				return an < bn
			}
		default: // SortPublishedDesc
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.After(b.PublishedAt)
			}
		}
		return a.ID < b.ID
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return less(&videos[i], &videos[j])
	})
}
