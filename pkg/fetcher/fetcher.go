// Package fetcher turns one preset into a raw-then-filtered video list by
// driving the paginated upstream search, resolving details in batches and
// applying the post-filter. Credential fallback is handled here so every
// upstream call in a run shares one advancing key pool.
package fetcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/credentials"
	"github.com/ytsift/ytsift/pkg/filter"
	"github.com/ytsift/ytsift/pkg/log"
	"github.com/ytsift/ytsift/pkg/youtube"
)

// Upstream is the slice of the API client the fetcher consumes. Tests inject
// fakes; production wires *youtube.Client.
type Upstream interface {
	Search(ctx context.Context, apiKey string, query youtube.SearchQuery, pageToken string) (*youtube.SearchPage, error)
	VideoDetails(ctx context.Context, apiKey string, ids []string) ([]core.Video, int, error)
	Channels(ctx context.Context, apiKey string, ids []string) (map[string]youtube.ChannelMeta, error)
}

// Result is the outcome of fetching one preset. Err marks a per-preset
// failure; it never aborts sibling presets in an Any run.
type Result struct {
	Preset *core.Preset

	// Videos passed the post-filter, each tagged with the preset ID.
	Videos []core.Video

	// RawIDs are the identifiers seen for this preset, deduplicated within
	// the preset, in first-seen order.
	RawIDs []string

	PagesFetched     int
	RawItems         int
	DuplicatesWithin int
	Malformed        int

	Err error
}

// Fetcher fetches presets against a shared credential pool.
type Fetcher struct {
	upstream Upstream
	pool     *credentials.Pool
	logger   *log.Logger
}

// New builds a fetcher for one run.
func New(upstream Upstream, pool *credentials.Pool) *Fetcher {
	return &Fetcher{
		upstream: upstream,
		pool:     pool,
		logger:   log.ForComponent("fetcher"),
	}
}

// FetchPreset requests up to pageBudget search pages for the preset,
// resolves details for the collected identifiers, filters them and enhances
// channel metadata. The window must be resolved by the caller so every
// preset in a run shares the same anchor time; windowed is false for an
// unbounded window.
func (f *Fetcher) FetchPreset(ctx context.Context, p *core.Preset, g *core.GlobalDefaults, blockedChannels []string, window core.TimeWindow, windowed bool, pageBudget int) Result {
	res := Result{Preset: p}

	queryText := p.Query.ComposedText()
	if queryText == "" {
		res.Err = fmt.Errorf("preset %q has an empty query", p.Name)
		return res
	}

	query := youtube.SearchQuery{
		Text:            queryText,
		CategoryID:      p.Query.CategoryID,
		RegionCode:      g.RegionCode,
		RequireCaptions: core.EffectiveRequireCaptions(p, g),
		MinDurationSecs: core.EffectiveMinDuration(p, g),
	}
	if windowed {
		query.Window = &window
	}

	seen := make(map[string]struct{})
	pageToken := ""
	for res.PagesFetched < pageBudget {
		var page *youtube.SearchPage
		err := f.withCredential(ctx, func(key string) error {
			var searchErr error
			page, searchErr = f.upstream.Search(ctx, key, query, pageToken)
			return searchErr
		})
		if err != nil {
			res.Err = fmt.Errorf("searching preset %q: %w", p.Name, err)
			return res
		}
		res.PagesFetched++
		res.RawItems += len(page.VideoIDs)

		for _, id := range page.VideoIDs {
			if _, dup := seen[id]; dup {
				res.DuplicatesWithin++
				continue
			}
			seen[id] = struct{}{}
			res.RawIDs = append(res.RawIDs, id)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	for start := 0; start < len(res.RawIDs); start += youtube.DetailBatchSize {
		end := min(start+youtube.DetailBatchSize, len(res.RawIDs))
		batch := res.RawIDs[start:end]

		var videos []core.Video
		var malformed int
		err := f.withCredential(ctx, func(key string) error {
			var detailErr error
			videos, malformed, detailErr = f.upstream.VideoDetails(ctx, key, batch)
			return detailErr
		})
		if err != nil {
			res.Err = fmt.Errorf("resolving details for preset %q: %w", p.Name, err)
			return res
		}
		res.Malformed += malformed

		for i := range videos {
			video := videos[i]
			if decision := filter.Decide(&video, p, g, blockedChannels); !decision.Keep {
				f.logger.Debugf("preset %s: dropped %s (%v)", p.ID, video.ID, decision.Reasons)
				continue
			}
			video.SourcePresets = []string{p.ID}
			res.Videos = append(res.Videos, video)
		}
	}

	f.enhanceChannels(ctx, res.Videos)

	f.logger.Infof("preset %s: %d pages, %d raw, %d unique, %d kept",
		p.ID, res.PagesFetched, res.RawItems, len(res.RawIDs), len(res.Videos))
	return res
}

// withCredential runs fn with the pool's current key, retrying transient
// failures on the same key and advancing the pool on authorization failures
// until a key works or the pool is exhausted.
func (f *Fetcher) withCredential(ctx context.Context, fn func(key string) error) error {
	for {
		key, idx, err := f.pool.Current()
		if err != nil {
			return err
		}

		err = youtube.WithRetry(ctx, f.logger, func() error { return fn(key) })
		if err == nil {
			return nil
		}
		if youtube.IsCredentialError(err) {
			f.logger.Warnf("credential %d rejected, advancing: %v", idx+1, err)
			f.pool.Advance(idx)
			continue
		}
		return err
	}
}

// enhanceChannels resolves display names and handles for the kept videos'
// channels. Best effort: lookup failures leave the raw channel titles in
// place and never fail the preset.
func (f *Fetcher) enhanceChannels(ctx context.Context, videos []core.Video) {
	idSet := make(map[string]struct{})
	for i := range videos {
		if videos[i].ChannelID != "" {
			idSet[videos[i].ChannelID] = struct{}{}
		}
	}

	meta := make(map[string]youtube.ChannelMeta, len(idSet))
	if len(idSet) > 0 {
		ids := make([]string, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for start := 0; start < len(ids); start += youtube.DetailBatchSize {
			end := min(start+youtube.DetailBatchSize, len(ids))
			batch := ids[start:end]

			var resolved map[string]youtube.ChannelMeta
			err := f.withCredential(ctx, func(key string) error {
				var chanErr error
				resolved, chanErr = f.upstream.Channels(ctx, key, batch)
				return chanErr
			})
			if err != nil {
				f.logger.Warnf("channel metadata lookup failed: %v", err)
				continue
			}
			for id, m := range resolved {
				meta[id] = m
			}
		}
	}

	for i := range videos {
		v := &videos[i]
		if m, ok := meta[v.ChannelID]; ok {
			if m.Title != "" {
				v.ChannelDisplayName = m.Title
			}
			if m.Handle != "" {
				v.ChannelHandle = m.Handle
			}
		}
		if v.ChannelDisplayName == "" {
			v.ChannelDisplayName = v.ChannelTitle
		}
	}
}
