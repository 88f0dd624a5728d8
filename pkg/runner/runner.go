// Package runner orchestrates a search run: it selects the working preset
// set, fans fetches out across presets, merges and deduplicates the filtered
// results into one deterministically ordered list, and publishes a snapshot
// through the result cache.
package runner

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ytsift/ytsift/pkg/cache"
	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/credentials"
	"github.com/ytsift/ytsift/pkg/fetcher"
	"github.com/ytsift/ytsift/pkg/log"
)

// DefaultPageBudget is the number of search pages requested per preset when
// nothing overrides it.
const DefaultPageBudget = 2

const pageBudgetEnv = "YTSIFT_MAX_SEARCH_PAGES"

// ResolvePageBudget picks the page budget for a run: an explicit request
// wins, then the environment override, then the configured value, then the
// default. Every source is clamped to 1..10.
func ResolvePageBudget(requested, configured int) int {
	if requested > 0 {
		return clampPages(requested)
	}
	if env := os.Getenv(pageBudgetEnv); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n >= 1 && n <= 10 {
			return n
		}
	}
	if configured > 0 {
		return clampPages(configured)
	}
	return DefaultPageBudget
}

func clampPages(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// Runner executes runs against one upstream and one result cache.
type Runner struct {
	upstream fetcher.Upstream
	cache    *cache.Cache
	logger   *log.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New builds a runner.
func New(upstream fetcher.Upstream, resultCache *cache.Cache) *Runner {
	return &Runner{
		upstream: upstream,
		cache:    resultCache,
		logger:   log.ForComponent("runner"),
		now:      time.Now,
	}
}

// Run executes the request and returns the merged, sorted result. Per-preset
// failures become warnings on the result; Run returns an error only when the
// request itself is unusable or no preset could fetch anything.
//
// A cache hit for the request's signature returns immediately with no
// upstream calls.
func (r *Runner) Run(ctx context.Context, req *core.RunRequest, apiKeys []string) (*core.RunResult, error) {
	// Resolve defaults on a copy so the caller's request stays untouched
	// and can be reused across supervised runs.
	resolved := *req
	req = &resolved
	if req.Sort == "" {
		req.Sort = core.SortPublishedDesc
	}
	req.PageBudget = ResolvePageBudget(req.PageBudget, 0)

	now := r.now()
	signature := core.Signature(req, now)
	if cached, ok := r.cache.Get(signature); ok {
		r.logger.Infof("cache hit for signature %.12s, serving %d videos", signature, len(cached.Videos))
		return cached, nil
	}

	selected, found := req.SelectPresets()
	if !found {
		return nil, fmt.Errorf("preset %q not found", req.Mode.PresetID)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no presets enabled: enable at least one preset or run a single preset")
	}

	pool := credentials.NewPool(apiKeys)
	if pool.Size() == 0 {
		return nil, fmt.Errorf("no API keys configured")
	}

	f := fetcher.New(r.upstream, pool)

	// Resolve every window from the same anchor so all presets in this run
	// search the same range regardless of fetch timing.
	type job struct {
		preset   core.Preset
		window   core.TimeWindow
		windowed bool
	}
	jobs := make([]job, len(selected))
	for i, p := range selected {
		window, windowed := core.ResolveWindow(&p, &req.Defaults, now)
		jobs[i] = job{preset: p, window: window, windowed: windowed}
	}

	results := make([]fetcher.Result, len(jobs))
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			j := &jobs[i]
			results[i] = f.FetchPreset(ctx, &j.preset, &req.Defaults, req.BlockedChannels, j.window, j.windowed, req.PageBudget)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged, stats, warnings := mergeResults(results)
	if len(warnings) == len(selected) && len(merged) == 0 {
		return nil, fmt.Errorf("every preset failed: %s", warnings[0].Message)
	}

	core.SortVideos(merged, req.Sort)
	stats.Kept = len(merged)

	result := &core.RunResult{
		Videos:      merged,
		Stats:       stats,
		Warnings:    warnings,
		Signature:   signature,
		GeneratedAt: now.UTC(),
	}

	r.cache.Put(signature, result)
	if err := r.cache.SaveSnapshot(result); err != nil {
		r.logger.Warnf("persisting snapshot: %v", err)
	}

	r.logger.Infof("run complete: %d presets, %d raw, %d unique, %d passed, %d kept, %d warnings",
		stats.PresetsRan, stats.RawItems, stats.UniqueIDs, stats.PassedFilters, stats.Kept, len(warnings))
	return result, nil
}

// mergeResults deduplicates filtered videos across presets by upstream
// identifier. A video matched by several presets keeps one instance carrying
// the union of matching preset IDs. Merging is idempotent: merging a
// preset's output with itself changes no unique counts, only confirms tags.
func mergeResults(results []fetcher.Result) ([]core.Video, core.RunStats, []core.PresetWarning) {
	var stats core.RunStats
	var warnings []core.PresetWarning

	indexByID := make(map[string]int)
	uniqueRaw := make(map[string]struct{})
	var merged []core.Video

	for i := range results {
		res := &results[i]
		stats.PresetsRan++
		stats.PagesFetched += res.PagesFetched
		stats.RawItems += res.RawItems
		stats.DuplicatesWithinPresets += res.DuplicatesWithin
		stats.MalformedItems += res.Malformed

		if res.Err != nil {
			warnings = append(warnings, core.PresetWarning{
				PresetID:   res.Preset.ID,
				PresetName: res.Preset.Name,
				Message:    res.Err.Error(),
			})
			continue
		}

		stats.PassedFilters += len(res.Videos)
		for _, id := range res.RawIDs {
			uniqueRaw[id] = struct{}{}
		}

		for _, video := range res.Videos {
			idx, exists := indexByID[video.ID]
			if !exists {
				indexByID[video.ID] = len(merged)
				merged = append(merged, video)
				continue
			}
			existing := &merged[idx]
			for _, source := range video.SourcePresets {
				if !containsString(existing.SourcePresets, source) {
					existing.SourcePresets = append(existing.SourcePresets, source)
					stats.DuplicatesAcrossPresets++
				}
			}
		}
	}

	stats.UniqueIDs = len(uniqueRaw)
	return merged, stats, warnings
}

func containsString(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}
