package filter

import (
	"strings"

	"golang.org/x/text/language"
)

// ContainsAny reports whether hay contains any of the needles as a
// case-insensitive substring. Empty needles are skipped.
func ContainsAny(hay string, needles []string) bool {
	h := strings.ToLower(hay)
	for _, needle := range needles {
		needle = strings.TrimSpace(needle)
		if needle == "" {
			continue
		}
		if strings.Contains(h, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// MatchesChannel reports whether a channel identified by its handle and title
// matches any of the patterns. A pattern matches when it equals the handle,
// equals the title, or is contained in the title, all case-insensitively and
// with a leading '@' stripped. An empty pattern list matches nothing.
func MatchesChannel(handle, title string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	handle = strings.ToLower(strings.TrimPrefix(handle, "@"))
	title = strings.ToLower(title)

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		cleaned := strings.ToLower(strings.TrimPrefix(pattern, "@"))
		if handle == cleaned || title == cleaned || strings.Contains(title, cleaned) {
			return true
		}
	}
	return false
}

// languageMatches reports whether a declared language code has the same base
// language as the target (so "en-US" and "en-GB" both match "en"). Codes the
// BCP 47 parser rejects fall back to a plain prefix comparison.
func languageMatches(code, target string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	targetTag, terr := language.Parse(target)
	codeTag, cerr := language.Parse(code)
	if terr != nil || cerr != nil {
		return strings.HasPrefix(strings.ToLower(code), strings.ToLower(target))
	}
	codeBase, _ := codeTag.Base()
	targetBase, _ := targetTag.Base()
	return codeBase == targetBase
}

// looksEnglish is the title heuristic used when no language is declared: the
// share of ASCII letters and common punctuation among non-space characters
// must reach 60%. Empty titles pass.
func looksEnglish(text string) bool {
	total := 0
	asciiish := 0
	for _, ch := range text {
		if ch == ' ' || ch == '\t' || ch == '\n' {
			continue
		}
		total++
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			asciiish++
			continue
		}
		switch ch {
		case '-', '_', ':', '!', '?', ',', '.', ';', '\'', '"', '/', '(', ')', '#':
			asciiish++
		}
	}
	if total == 0 {
		return true
	}
	return asciiish*100/total >= 60
}
