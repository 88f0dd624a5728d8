package runner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ytsift/ytsift/pkg/cache"
	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/fetcher"
	"github.com/ytsift/ytsift/pkg/youtube"
)

// fakeUpstream serves scripted search results keyed by the composed query
// text. Safe for the runner's concurrent preset fetches.
type fakeUpstream struct {
	mu sync.Mutex

	// idsByQuery maps a query substring to the video IDs it returns.
	idsByQuery map[string][]string

	// failQueries fail Search for matching queries with a request error.
	failQueries map[string]bool

	searchCalls int

	// delay stalls Search calls whose query contains delayQuery (every call
	// when delayQuery is empty), honoring cancellation.
	delay      time.Duration
	delayQuery string
}

func (f *fakeUpstream) Search(ctx context.Context, apiKey string, query youtube.SearchQuery, pageToken string) (*youtube.SearchPage, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()

	if f.delay > 0 && (f.delayQuery == "" || strings.Contains(query.Text, f.delayQuery)) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	for q, fail := range f.failQueries {
		if fail && strings.Contains(query.Text, q) {
			return nil, &youtube.APIError{StatusCode: 400, Reason: "invalidParameter"}
		}
	}
	for q, ids := range f.idsByQuery {
		if strings.Contains(query.Text, q) {
			return &youtube.SearchPage{VideoIDs: ids}, nil
		}
	}
	return &youtube.SearchPage{}, nil
}

func (f *fakeUpstream) VideoDetails(ctx context.Context, apiKey string, ids []string) ([]core.Video, int, error) {
	videos := make([]core.Video, 0, len(ids))
	for _, id := range ids {
		videos = append(videos, core.Video{
			ID:            id,
			Title:         "Video " + id,
			TitleLower:    "video " + id,
			ChannelID:     "UC-" + id,
			ChannelTitle:  "Channel " + id,
			PublishedAt:   time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC).Add(time.Duration(len(id)) * time.Minute),
			DurationSecs:  600,
			AudioLanguage: "en",
		})
	}
	return videos, 0, nil
}

func (f *fakeUpstream) Channels(ctx context.Context, apiKey string, ids []string) (map[string]youtube.ChannelMeta, error) {
	return nil, nil
}

func (f *fakeUpstream) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func newTestRunner(upstream *fakeUpstream) *Runner {
	r := New(upstream, cache.New(""))
	r.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return r
}

func anyRequest() *core.RunRequest {
	return &core.RunRequest{
		Mode: core.AnyMode(),
		Presets: []core.Preset{
			{ID: "alpha", Name: "Alpha", Enabled: true, Priority: 10, Query: core.QuerySpec{Text: "alpha"}},
			{ID: "beta", Name: "Beta", Enabled: true, Priority: 5, Query: core.QuerySpec{Text: "beta"}},
		},
		Defaults: core.GlobalDefaults{
			DefaultWindow:   core.Window7d,
			LanguageOnly:    true,
			MinDurationSecs: 75,
		},
		Sort:       core.SortPublishedDesc,
		PageBudget: 1,
	}
}

func TestRunMergesAcrossPresets(t *testing.T) {
	upstream := &fakeUpstream{
		idsByQuery: map[string][]string{
			"alpha": {"v1", "v2", "shared"},
			"beta":  {"v3", "shared"},
		},
	}
	r := newTestRunner(upstream)

	result, err := r.Run(context.Background(), anyRequest(), []string{"key1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Videos) != 4 {
		t.Fatalf("videos = %d, want 4 after cross-preset dedup", len(result.Videos))
	}

	var shared *core.Video
	seen := make(map[string]bool)
	for i := range result.Videos {
		v := &result.Videos[i]
		if seen[v.ID] {
			t.Fatalf("video %s appears twice in the merged list", v.ID)
		}
		seen[v.ID] = true
		if v.ID == "shared" {
			shared = v
		}
	}
	if shared == nil {
		t.Fatal("shared video missing from merge")
	}
	if len(shared.SourcePresets) != 2 {
		t.Errorf("shared video tags = %v, want both presets", shared.SourcePresets)
	}

	s := result.Stats
	if s.PresetsRan != 2 || s.RawItems != 5 || s.UniqueIDs != 4 {
		t.Errorf("stats = %+v, want 2 presets, 5 raw, 4 unique", s)
	}
	if s.DuplicatesAcrossPresets != 1 {
		t.Errorf("DuplicatesAcrossPresets = %d, want 1", s.DuplicatesAcrossPresets)
	}
	if s.Kept != 4 || s.PassedFilters != 5 {
		t.Errorf("stats = %+v, want kept 4, passed 5", s)
	}
	if result.Signature == "" || result.GeneratedAt.IsZero() {
		t.Error("result must carry its signature and timestamp")
	}
}

func TestRunSortsResult(t *testing.T) {
	upstream := &fakeUpstream{
		idsByQuery: map[string][]string{"alpha": {"bb", "a", "ccc"}},
	}
	r := newTestRunner(upstream)

	req := anyRequest()
	req.Presets = req.Presets[:1]
	req.Sort = core.SortPublishedAsc

	result, err := r.Run(context.Background(), req, []string{"key1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The fake publishes later for longer IDs, so ascending publish order is
	// ascending ID length.
	want := []string{"a", "bb", "ccc"}
	for i, id := range want {
		if result.Videos[i].ID != id {
			t.Fatalf("order = %v, want %v", result.Videos, want)
		}
	}
}

func TestRunPartialFailure(t *testing.T) {
	upstream := &fakeUpstream{
		idsByQuery:  map[string][]string{"alpha": {"v1"}},
		failQueries: map[string]bool{"beta": true},
	}
	r := newTestRunner(upstream)

	result, err := r.Run(context.Background(), anyRequest(), []string{"key1"})
	if err != nil {
		t.Fatalf("a partial failure must not fail the run: %v", err)
	}

	if len(result.Videos) != 1 || result.Videos[0].ID != "v1" {
		t.Fatalf("videos = %+v, want the surviving preset's video", result.Videos)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %+v, want exactly one", result.Warnings)
	}
	w := result.Warnings[0]
	if w.PresetID != "beta" || w.PresetName != "Beta" || w.Message == "" {
		t.Errorf("warning = %+v", w)
	}
}

func TestRunAllPresetsFailed(t *testing.T) {
	upstream := &fakeUpstream{
		failQueries: map[string]bool{"alpha": true, "beta": true},
	}
	r := newTestRunner(upstream)

	if _, err := r.Run(context.Background(), anyRequest(), []string{"key1"}); err == nil {
		t.Fatal("a run where every preset failed must error")
	}
}

func TestRunCacheHit(t *testing.T) {
	upstream := &fakeUpstream{
		idsByQuery: map[string][]string{"alpha": {"v1"}, "beta": {"v2"}},
	}
	r := newTestRunner(upstream)

	first, err := r.Run(context.Background(), anyRequest(), []string{"key1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	callsAfterFirst := upstream.calls()

	second, err := r.Run(context.Background(), anyRequest(), []string{"key1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if upstream.calls() != callsAfterFirst {
		t.Errorf("cache hit must not touch the upstream, calls went %d -> %d",
			callsAfterFirst, upstream.calls())
	}
	if second.Signature != first.Signature {
		t.Error("identical requests must share a signature")
	}

	// Changing a parameter misses the cache and fetches again.
	req := anyRequest()
	req.Sort = core.SortDurationAsc
	if _, err := r.Run(context.Background(), req, []string{"key1"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if upstream.calls() == callsAfterFirst {
		t.Error("a parameter change must bypass the cache")
	}
}

func TestRunValidation(t *testing.T) {
	r := newTestRunner(&fakeUpstream{})

	req := anyRequest()
	req.Mode = core.SingleMode("missing")
	if _, err := r.Run(context.Background(), req, []string{"key1"}); err == nil {
		t.Error("unknown single-mode preset must fail")
	}

	req = anyRequest()
	for i := range req.Presets {
		req.Presets[i].Enabled = false
	}
	if _, err := r.Run(context.Background(), req, []string{"key1"}); err == nil {
		t.Error("no enabled presets must fail")
	}

	req = anyRequest()
	if _, err := r.Run(context.Background(), req, nil); err == nil {
		t.Error("no API keys must fail")
	}
}

func TestRunLeavesRequestUntouched(t *testing.T) {
	t.Setenv(pageBudgetEnv, "")
	upstream := &fakeUpstream{idsByQuery: map[string][]string{"alpha": {"v1"}, "beta": {"v2"}}}
	r := newTestRunner(upstream)

	// Defaults are resolved on a private copy: a caller-held request stays
	// reusable and race-free across supervised runs.
	req := anyRequest()
	req.Sort = ""
	req.PageBudget = 0

	if _, err := r.Run(context.Background(), req, []string{"key1"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if req.Sort != "" {
		t.Errorf("req.Sort = %q, want caller's zero value preserved", req.Sort)
	}
	if req.PageBudget != 0 {
		t.Errorf("req.PageBudget = %d, want caller's zero value preserved", req.PageBudget)
	}
}

func TestMergeResultsIdempotent(t *testing.T) {
	preset := &core.Preset{ID: "alpha", Name: "Alpha"}
	videos := []core.Video{
		{ID: "v1", SourcePresets: []string{"alpha"}},
		{ID: "v2", SourcePresets: []string{"alpha"}},
	}
	res := fetcher.Result{
		Preset:   preset,
		Videos:   videos,
		RawIDs:   []string{"v1", "v2"},
		RawItems: 2,
	}

	// Merging a preset's output with itself keeps the unique counts of a
	// single pass; the repeated tags are already present, so nothing counts
	// as a cross-preset duplicate.
	merged, stats, warnings := mergeResults([]fetcher.Result{res, res})
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(merged) != 2 || stats.UniqueIDs != 2 {
		t.Errorf("merged = %d unique = %d, want 2/2", len(merged), stats.UniqueIDs)
	}
	if stats.DuplicatesAcrossPresets != 0 {
		t.Errorf("DuplicatesAcrossPresets = %d, want 0 for identical tags", stats.DuplicatesAcrossPresets)
	}
	for _, v := range merged {
		if len(v.SourcePresets) != 1 || v.SourcePresets[0] != "alpha" {
			t.Errorf("video %s tags = %v, want [alpha]", v.ID, v.SourcePresets)
		}
	}
}

func TestResolvePageBudget(t *testing.T) {
	tests := []struct {
		name       string
		requested  int
		configured int
		env        string
		want       int
	}{
		{"default", 0, 0, "", DefaultPageBudget},
		{"configured", 0, 4, "", 4},
		{"request wins", 3, 4, "", 3},
		{"request clamped high", 99, 0, "", 10},
		{"configured clamped", 0, 99, "", 10},
		{"env beats configured", 0, 4, "6", 6},
		{"request beats env", 3, 0, "6", 3},
		{"env out of range ignored", 0, 0, "11", DefaultPageBudget},
		{"env garbage ignored", 0, 0, "lots", DefaultPageBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(pageBudgetEnv, tt.env)
			if got := ResolvePageBudget(tt.requested, tt.configured); got != tt.want {
				t.Errorf("ResolvePageBudget(%d, %d) = %d, want %d",
					tt.requested, tt.configured, got, tt.want)
			}
		})
	}
}
