// Package filter implements the client-side post-filter applied to fetched
// videos: duration threshold or bucket selection, language requirement,
// title term exclusion and channel allow/deny lists. Decisions are pure and
// deterministic; the same video, preset and defaults always produce the same
// outcome.
//
// The upstream query already narrows by search terms and category, so the
// filter only re-checks what the upstream cannot guarantee.
package filter

import (
	"github.com/ytsift/ytsift/pkg/core"
)

// DropReason identifies the rule that rejected a video.
type DropReason string

const (
	ReasonDuration       DropReason = "duration"
	ReasonLanguage       DropReason = "language"
	ReasonExcludedTerm   DropReason = "excluded-term"
	ReasonBlockedChannel DropReason = "blocked-channel"
	ReasonChannelDeny    DropReason = "channel-deny"
	ReasonChannelAllow   DropReason = "channel-allow"
)

// Decision is the outcome of filtering one video against one preset.
type Decision struct {
	Keep    bool
	Reasons []DropReason
}

// rules, in their fixed evaluation order. Each returns the reason it would
// drop the video for, or "".
var rules = []func(*core.Video, *core.Preset, *core.GlobalDefaults, []string) DropReason{
	durationRule,
	languageRule,
	excludedTermRule,
	blockedChannelRule,
	channelDenyRule,
	channelAllowRule,
}

// Decide applies the rules in order and stops at the first failure.
func Decide(v *core.Video, p *core.Preset, g *core.GlobalDefaults, blockedChannels []string) Decision {
	for _, rule := range rules {
		if reason := rule(v, p, g, blockedChannels); reason != "" {
			return Decision{Keep: false, Reasons: []DropReason{reason}}
		}
	}
	return Decision{Keep: true}
}

// Explain evaluates every rule regardless of earlier failures and collects
// all drop reasons, for diagnostics.
func Explain(v *core.Video, p *core.Preset, g *core.GlobalDefaults, blockedChannels []string) Decision {
	var reasons []DropReason
	for _, rule := range rules {
		if reason := rule(v, p, g, blockedChannels); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return Decision{Keep: len(reasons) == 0, Reasons: reasons}
}

// durationRule drops videos below the effective minimum duration, or outside
// every selected duration bucket when bucket selection is active. A preset
// override always takes the plain threshold path; with no selected bucket the
// bucket path accepts any length.
func durationRule(v *core.Video, p *core.Preset, g *core.GlobalDefaults, _ []string) DropReason {
	if p.MinDurationOverride == nil && bucketSelectionActive(g) {
		if !bucketAllows(g, v.DurationSecs) {
			return ReasonDuration
		}
		return ""
	}
	if v.DurationSecs < core.EffectiveMinDuration(p, g) {
		return ReasonDuration
	}
	return ""
}

func bucketSelectionActive(g *core.GlobalDefaults) bool {
	if len(g.DurationBuckets) == 0 || len(g.ActiveBucketIDs) == 0 {
		return false
	}
	for _, bucket := range g.DurationBuckets {
		for _, id := range g.ActiveBucketIDs {
			if bucket.ID == id {
				return true
			}
		}
	}
	return false
}

func bucketAllows(g *core.GlobalDefaults, secs int) bool {
	active := make(map[string]bool, len(g.ActiveBucketIDs))
	for _, id := range g.ActiveBucketIDs {
		active[id] = true
	}
	anySelected := false
	for _, bucket := range g.DurationBuckets {
		if !active[bucket.ID] {
			continue
		}
		anySelected = true
		if bucket.Contains(secs) {
			return true
		}
	}
	return !anySelected
}

// languageRule drops videos whose declared audio language, declared default
// language and title heuristic all fail the target language, when the
// effective language-only flag is set.
func languageRule(v *core.Video, p *core.Preset, g *core.GlobalDefaults, _ []string) DropReason {
	if !core.EffectiveLanguageOnly(p, g) {
		return ""
	}
	target := g.TargetLanguage()
	if languageMatches(v.AudioLanguage, target) || languageMatches(v.DefaultLanguage, target) {
		return ""
	}
	// The title heuristic distinguishes Latin-script titles only, so it can
	// vouch for English but not for other targets.
	if target == "en" && looksEnglish(v.TitleLower) {
		return ""
	}
	return ReasonLanguage
}

func excludedTermRule(v *core.Video, p *core.Preset, _ *core.GlobalDefaults, _ []string) DropReason {
	if ContainsAny(v.TitleLower, p.Query.NotTerms) {
		return ReasonExcludedTerm
	}
	return ""
}

func blockedChannelRule(v *core.Video, _ *core.Preset, _ *core.GlobalDefaults, blockedChannels []string) DropReason {
	if videoChannelMatches(v, blockedChannels) {
		return ReasonBlockedChannel
	}
	return ""
}

func channelDenyRule(v *core.Video, p *core.Preset, _ *core.GlobalDefaults, _ []string) DropReason {
	if videoChannelMatches(v, p.Query.ChannelDeny) {
		return ReasonChannelDeny
	}
	return ""
}

// channelAllowRule drops videos not on the allow-list. An empty allow-list
// means no restriction, never "match nothing".
func channelAllowRule(v *core.Video, p *core.Preset, _ *core.GlobalDefaults, _ []string) DropReason {
	if len(p.Query.ChannelAllow) == 0 {
		return ""
	}
	if !videoChannelMatches(v, p.Query.ChannelAllow) {
		return ReasonChannelAllow
	}
	return ""
}

// videoChannelMatches checks the patterns against every channel identity the
// video carries. The resolved handle is only present after channel
// enhancement, so the raw channel ID and title must match on their own.
func videoChannelMatches(v *core.Video, patterns []string) bool {
	if MatchesChannel(v.ChannelID, v.ChannelTitle, patterns) {
		return true
	}
	return v.ChannelHandle != "" && MatchesChannel(v.ChannelHandle, "", patterns)
}
