package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Signature derives the reproducible cache key for a run request. Two
// requests produce the same signature exactly when every parameter that can
// change the outcome is identical: mode, sort key, page budget, region,
// blocked channels, and each selected preset's fully resolved query, window
// and filter settings.
//
// Relative windows resolve against now truncated to the minute, so repeat
// views within the same minute hit the cache while any real parameter edit
// always misses.
func Signature(r *RunRequest, now time.Time) string {
	var b strings.Builder

	if r.Mode.IsAny() {
		b.WriteString("mode=any\n")
	} else {
		fmt.Fprintf(&b, "mode=single:%s\n", r.Mode.PresetID)
	}
	fmt.Fprintf(&b, "sort=%s\n", r.Sort)
	fmt.Fprintf(&b, "pages=%d\n", r.PageBudget)
	fmt.Fprintf(&b, "region=%s\n", r.Defaults.RegionCode)
	fmt.Fprintf(&b, "lang=%s\n", r.Defaults.TargetLanguage())

	blocked := append([]string(nil), r.BlockedChannels...)
	sort.Strings(blocked)
	fmt.Fprintf(&b, "blocked=%s\n", strings.Join(blocked, ","))

	if buckets := activeBucketSpec(&r.Defaults); buckets != "" {
		fmt.Fprintf(&b, "buckets=%s\n", buckets)
	}

	anchor := now.UTC().Truncate(time.Minute)
	selected, _ := r.SelectPresets()
	for i := range selected {
		p := &selected[i]
		fmt.Fprintf(&b, "preset=%s\n", p.ID)
		fmt.Fprintf(&b, " q=%s\n", p.Query.ComposedText())
		fmt.Fprintf(&b, " category=%d\n", p.Query.CategoryID)
		fmt.Fprintf(&b, " allow=%s\n", strings.Join(p.Query.ChannelAllow, ","))
		fmt.Fprintf(&b, " deny=%s\n", strings.Join(p.Query.ChannelDeny, ","))
		fmt.Fprintf(&b, " not=%s\n", strings.Join(p.Query.NotTerms, ","))
		if window, ok := ResolveWindow(p, &r.Defaults, anchor); ok {
			fmt.Fprintf(&b, " window=%s/%s\n",
				window.Start.UTC().Truncate(time.Minute).Format(time.RFC3339),
				window.End.UTC().Truncate(time.Minute).Format(time.RFC3339))
		} else {
			b.WriteString(" window=any\n")
		}
		fmt.Fprintf(&b, " lang_only=%t\n", EffectiveLanguageOnly(p, &r.Defaults))
		fmt.Fprintf(&b, " captions=%t\n", EffectiveRequireCaptions(p, &r.Defaults))
		fmt.Fprintf(&b, " min_duration=%d\n", EffectiveMinDuration(p, &r.Defaults))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func activeBucketSpec(g *GlobalDefaults) string {
	active := make(map[string]bool, len(g.ActiveBucketIDs))
	for _, id := range g.ActiveBucketIDs {
		active[id] = true
	}
	var parts []string
	for _, bucket := range g.DurationBuckets {
		if active[bucket.ID] {
			parts = append(parts, fmt.Sprintf("%s:%d-%d", bucket.ID, bucket.MinSecs, bucket.MaxSecs))
		}
	}
	return strings.Join(parts, ",")
}
