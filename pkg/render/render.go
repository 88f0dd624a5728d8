// Package render formats run results for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ytsift/ytsift/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	videoTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("36")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(1, 0, 0, 0)

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

var titleCaser = cases.Title(language.English)

// RunResult renders the full result: header, one entry per video, warnings
// and the statistics box. presetNames maps preset IDs to display names for
// the matched-preset tags.
func RunResult(result *core.RunResult, presetNames map[string]string) string {
	var b strings.Builder

	header := fmt.Sprintf("%d videos · generated %s",
		len(result.Videos), result.GeneratedAt.Local().Format("2006-01-02 15:04"))
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	for i := range result.Videos {
		v := &result.Videos[i]
		b.WriteString(videoTitleStyle.Render(v.Title))
		b.WriteString("\n")

		channel := v.ChannelDisplayName
		if channel == "" {
			channel = v.ChannelTitle
		}
		if v.ChannelHandle != "" {
			channel += " (" + v.ChannelHandle + ")"
		}
		b.WriteString(metaStyle.Render(fmt.Sprintf("  %s · %s · %s",
			channel, FormatDuration(v.DurationSecs), v.PublishedAt.Local().Format("2006-01-02 15:04"))))
		b.WriteString("\n")

		if len(v.SourcePresets) > 0 {
			b.WriteString(tagStyle.Render("  matched: " + presetTags(v.SourcePresets, presetNames)))
			b.WriteString("\n")
		}
		b.WriteString(urlStyle.Render("  " + v.URL))
		b.WriteString("\n\n")
	}

	for _, warning := range result.Warnings {
		b.WriteString(warnStyle.Render(fmt.Sprintf("warning: preset %q: %s", warning.PresetName, warning.Message)))
		b.WriteString("\n")
	}

	b.WriteString(statsStyle.Render(Stats(&result.Stats)))
	b.WriteString("\n")
	return b.String()
}

// Stats renders the run counters on one line.
func Stats(s *core.RunStats) string {
	return fmt.Sprintf("presets %d · pages %d · raw %d · unique %d · passed %d · kept %d · dup within/across %d/%d · malformed %d",
		s.PresetsRan, s.PagesFetched, s.RawItems, s.UniqueIDs, s.PassedFilters, s.Kept,
		s.DuplicatesWithinPresets, s.DuplicatesAcrossPresets, s.MalformedItems)
}

// FormatDuration renders seconds as M:SS or H:MM:SS.
func FormatDuration(secs int) string {
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// presetTags joins preset display names, falling back to a title-cased form
// of the ID when a preset has no configured name.
func presetTags(ids []string, presetNames map[string]string) string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := presetNames[id]; name != "" {
			labels = append(labels, name)
			continue
		}
		labels = append(labels, titleCaser.String(strings.ReplaceAll(id, "-", " ")))
	}
	return strings.Join(labels, ", ")
}
