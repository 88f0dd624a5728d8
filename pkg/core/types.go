// Package core defines the domain model shared by the search engine: presets,
// query specifications, global defaults, fetched videos and run results.
//
// Presets are named, independently configurable search definitions. A run
// executes either a single preset or the union of all enabled presets, and
// produces a deduplicated, sorted RunResult annotated with statistics and
// non-fatal per-preset warnings.
package core

import (
	"strings"
	"time"
)

// Preset is a named search definition. Presets are created and edited by the
// config layer and are read-only during a run.
type Preset struct {
	ID      string `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	Enabled bool   `toml:"enabled" json:"enabled"`

	// Priority orders presets in Any mode: higher priority runs first and
	// wins ordering ties. Presets with equal priority order by ID.
	Priority int `toml:"priority" json:"priority"`

	Query QuerySpec `toml:"query" json:"query"`

	// Per-preset overrides. A nil pointer falls back to the global default.
	WindowOverride      *TimeWindow `toml:"window,omitempty" json:"window,omitempty"`
	LanguageOverride    *bool       `toml:"language_only,omitempty" json:"language_only,omitempty"`
	CaptionsOverride    *bool       `toml:"require_captions,omitempty" json:"require_captions,omitempty"`
	MinDurationOverride *int        `toml:"min_duration_secs,omitempty" json:"min_duration_secs,omitempty"`
}

// QuerySpec describes what a preset searches for. Immutable within a run.
type QuerySpec struct {
	Text         string   `toml:"text" json:"text"`
	AnyTerms     []string `toml:"any_terms,omitempty" json:"any_terms,omitempty"`
	AllTerms     []string `toml:"all_terms,omitempty" json:"all_terms,omitempty"`
	NotTerms     []string `toml:"not_terms,omitempty" json:"not_terms,omitempty"`
	ChannelAllow []string `toml:"channel_allow,omitempty" json:"channel_allow,omitempty"`
	ChannelDeny  []string `toml:"channel_deny,omitempty" json:"channel_deny,omitempty"`
	CategoryID   int      `toml:"category_id,omitempty" json:"category_id,omitempty"`
}

// ComposedText renders the query spec as a single upstream query string:
// free text first, then an OR-group of any-terms, then all-terms, then
// not-terms prefixed with '-'. Tokens containing whitespace or quotes are
// quoted. The composition must stay stable: the upstream treats it as the
// query contract and the run signature includes it.
func (q QuerySpec) ComposedText() string {
	var parts []string

	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, text)
	}

	var anyTokens []string
	for _, term := range q.AnyTerms {
		if term = strings.TrimSpace(term); term != "" {
			anyTokens = append(anyTokens, formatQueryToken(term))
		}
	}
	if len(anyTokens) > 0 {
		parts = append(parts, "("+strings.Join(anyTokens, " OR ")+")")
	}

	for _, term := range q.AllTerms {
		if term = strings.TrimSpace(term); term != "" {
			parts = append(parts, formatQueryToken(term))
		}
	}

	for _, term := range q.NotTerms {
		if term = strings.TrimSpace(term); term != "" {
			parts = append(parts, "-"+formatQueryToken(term))
		}
	}

	return strings.Join(parts, " ")
}

func formatQueryToken(term string) string {
	if strings.ContainsAny(term, " \t\n\"") {
		return `"` + strings.ReplaceAll(term, `"`, `\"`) + `"`
	}
	return term
}

// GlobalDefaults hold run-wide settings that presets can override.
type GlobalDefaults struct {
	DefaultWindow   WindowPreset `toml:"default_window" json:"default_window"`
	LanguageOnly    bool         `toml:"language_only" json:"language_only"`
	Language        string       `toml:"language" json:"language"`
	RequireCaptions bool         `toml:"require_captions" json:"require_captions"`
	MinDurationSecs int          `toml:"min_duration_secs" json:"min_duration_secs"`
	RegionCode      string       `toml:"region_code,omitempty" json:"region_code,omitempty"`

	// Duration buckets, when defined and selected, replace the single
	// minimum-duration threshold with labeled length ranges.
	DurationBuckets []DurationBucket `toml:"duration_buckets,omitempty" json:"duration_buckets,omitempty"`
	ActiveBucketIDs []string         `toml:"active_bucket_ids,omitempty" json:"active_bucket_ids,omitempty"`
}

// TargetLanguage returns the language code the language filter checks
// against, defaulting to English.
func (g GlobalDefaults) TargetLanguage() string {
	if lang := strings.TrimSpace(g.Language); lang != "" {
		return lang
	}
	return "en"
}

// EffectiveMinDuration resolves the minimum-duration threshold for a preset.
func EffectiveMinDuration(p *Preset, g *GlobalDefaults) int {
	if p.MinDurationOverride != nil {
		return *p.MinDurationOverride
	}
	return g.MinDurationSecs
}

// EffectiveLanguageOnly resolves the "require language match" flag.
func EffectiveLanguageOnly(p *Preset, g *GlobalDefaults) bool {
	if p.LanguageOverride != nil {
		return *p.LanguageOverride
	}
	return g.LanguageOnly
}

// EffectiveRequireCaptions resolves the caption-required flag.
func EffectiveRequireCaptions(p *Preset, g *GlobalDefaults) bool {
	if p.CaptionsOverride != nil {
		return *p.CaptionsOverride
	}
	return g.RequireCaptions
}

// DurationBucket is a labeled video-length range. MaxSecs of zero means
// unbounded. A bucket with MinSecs and MaxSecs both zero is the catch-all
// "any length" bucket.
type DurationBucket struct {
	ID       string `toml:"id" json:"id"`
	Label    string `toml:"label" json:"label"`
	MinSecs  int    `toml:"min_secs" json:"min_secs"`
	MaxSecs  int    `toml:"max_secs" json:"max_secs"`
	Default  bool   `toml:"default,omitempty" json:"default,omitempty"`
}

// Contains reports whether a duration in seconds falls inside the bucket.
func (b DurationBucket) Contains(secs int) bool {
	if secs < b.MinSecs {
		return false
	}
	return b.MaxSecs == 0 || secs < b.MaxSecs
}

// IsCatchAll reports whether the bucket accepts any duration.
func (b DurationBucket) IsCatchAll() bool {
	return b.MinSecs == 0 && b.MaxSecs == 0
}

// Video is one fetched item after detail resolution. Consumed read-only by
// the filter engine and the merge step.
type Video struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	TitleLower         string    `json:"title_lower"`
	ChannelID          string    `json:"channel_id"`
	ChannelTitle       string    `json:"channel_title"`
	ChannelDisplayName string    `json:"channel_display_name,omitempty"`
	ChannelHandle      string    `json:"channel_handle,omitempty"`
	PublishedAt        time.Time `json:"published_at"`
	DurationSecs       int       `json:"duration_secs"`
	AudioLanguage      string    `json:"audio_language,omitempty"`
	DefaultLanguage    string    `json:"default_language,omitempty"`
	ThumbnailURL       string    `json:"thumbnail_url,omitempty"`
	URL                string    `json:"url"`

	// SourcePresets lists the IDs of every preset that matched this video.
	// In Any mode a video surfacing from multiple presets keeps one entry
	// with the union of matching preset IDs.
	SourcePresets []string `json:"source_presets"`
}

// ChannelSortName returns the lowercase name used when sorting by channel:
// display name when resolved, else the raw channel title, else the handle.
func (v *Video) ChannelSortName() string {
	if name := strings.TrimSpace(v.ChannelDisplayName); name != "" {
		return strings.ToLower(name)
	}
	if title := strings.TrimSpace(v.ChannelTitle); title != "" {
		return strings.ToLower(title)
	}
	return strings.ToLower(strings.TrimSpace(v.ChannelHandle))
}
