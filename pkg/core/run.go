package core

import (
	"sort"
	"time"
)

// RunMode selects which presets a run executes.
type RunMode struct {
	// PresetID is set for a single-preset run and empty for Any mode.
	PresetID string `json:"preset_id,omitempty"`
}

// AnyMode runs the union of all enabled presets.
func AnyMode() RunMode { return RunMode{} }

// SingleMode runs exactly one preset.
func SingleMode(presetID string) RunMode { return RunMode{PresetID: presetID} }

// IsAny reports whether the mode unions all enabled presets.
func (m RunMode) IsAny() bool { return m.PresetID == "" }

// RunRequest carries everything a run needs, captured at request time.
type RunRequest struct {
	Mode            RunMode
	Presets         []Preset
	Defaults        GlobalDefaults
	BlockedChannels []string // normalized channel keys, run-wide deny list
	Sort            SortKey
	PageBudget      int
}

// SelectPresets returns the working preset set for the request: the one named
// preset in single mode, or all enabled presets ordered by priority descending
// then ID ascending in Any mode. The boolean is false when a single-mode
// preset ID does not exist.
func (r *RunRequest) SelectPresets() ([]Preset, bool) {
	if !r.Mode.IsAny() {
		for _, p := range r.Presets {
			if p.ID == r.Mode.PresetID {
				return []Preset{p}, true
			}
		}
		return nil, false
	}

	var selected []Preset
	for _, p := range r.Presets {
		if p.Enabled {
			selected = append(selected, p)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Priority != selected[j].Priority {
			return selected[i].Priority > selected[j].Priority
		}
		return selected[i].ID < selected[j].ID
	})
	return selected, true
}

// RunStats counts what a run fetched and kept.
type RunStats struct {
	PresetsRan              int `json:"presets_ran"`
	PagesFetched            int `json:"pages_fetched"`
	RawItems                int `json:"raw_items"`
	UniqueIDs               int `json:"unique_ids"`
	PassedFilters           int `json:"passed_filters"`
	Kept                    int `json:"kept"`
	DuplicatesWithinPresets int `json:"duplicates_within_presets"`
	DuplicatesAcrossPresets int `json:"duplicates_across_presets"`
	MalformedItems          int `json:"malformed_items"`
}

// PresetWarning records a non-fatal per-preset failure attached to a result.
type PresetWarning struct {
	PresetID   string `json:"preset_id"`
	PresetName string `json:"preset_name"`
	Message    string `json:"message"`
}

// RunResult is the published outcome of one run: the deduplicated, sorted
// video list plus statistics and warnings. A run with partial preset failures
// still carries the results that did succeed.
type RunResult struct {
	Videos      []Video         `json:"videos"`
	Stats       RunStats        `json:"stats"`
	Warnings    []PresetWarning `json:"warnings,omitempty"`
	Signature   string          `json:"signature"`
	GeneratedAt time.Time       `json:"generated_at"`
}
