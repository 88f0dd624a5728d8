package core

import "time"

// WindowPreset names a relative publish-time window that resolves to absolute
// timestamps at run start.
type WindowPreset string

const (
	WindowToday WindowPreset = "today"
	Window48h   WindowPreset = "48h"
	Window7d    WindowPreset = "7d"
	WindowAny   WindowPreset = "any"
)

// TimeWindow is an absolute UTC publish-time range.
type TimeWindow struct {
	Start time.Time `toml:"start" json:"start"`
	End   time.Time `toml:"end" json:"end"`
}

// Resolve anchors the preset to now. The second return is false for the
// unbounded "any date" preset (and for unknown values, which behave as
// unbounded rather than failing a run).
func (p WindowPreset) Resolve(now time.Time) (TimeWindow, bool) {
	now = now.UTC()
	switch p {
	case WindowToday:
		return TimeWindow{Start: now.Add(-24 * time.Hour), End: now}, true
	case Window48h:
		return TimeWindow{Start: now.Add(-48 * time.Hour), End: now}, true
	case Window7d:
		return TimeWindow{Start: now.Add(-7 * 24 * time.Hour), End: now}, true
	default:
		return TimeWindow{}, false
	}
}

// ResolveWindow returns the effective time window for a preset: the preset's
// absolute override when present, else the global default preset anchored to
// now. The second return is false when the window is unbounded.
//
// Callers running multiple presets must resolve every window from the same
// now value so that all presets in one run search the same range.
func ResolveWindow(p *Preset, g *GlobalDefaults, now time.Time) (TimeWindow, bool) {
	if p.WindowOverride != nil {
		return *p.WindowOverride, true
	}
	return g.DefaultWindow.Resolve(now)
}
