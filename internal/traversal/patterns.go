package traversal

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// regexPrefix marks a pattern as a regular expression; anything else is a
// glob. The prefix is stripped before compilation.
const regexPrefix = "regex:"

// PatternMatcher matches file and directory basenames against a single
// exclusion pattern, either glob or regex.
type PatternMatcher struct {
	glob  string
	regex *regexp.Regexp
}

// Match reports whether name matches the pattern
func (m PatternMatcher) Match(name string) bool {
	if m.regex != nil {
		return m.regex.MatchString(name)
	}
	matched, err := doublestar.Match(m.glob, name)
	return err == nil && matched
}

// String returns the pattern in its source form
func (m PatternMatcher) String() string {
	if m.regex != nil {
		return regexPrefix + m.regex.String()
	}
	return m.glob
}

// CompilePatterns builds matchers from raw pattern strings. Patterns that
// fail to compile are dropped.
func CompilePatterns(patterns []string) []PatternMatcher {
	matchers := make([]PatternMatcher, 0, len(patterns))
	for _, pattern := range patterns {
		if stripped, ok := strings.CutPrefix(pattern, regexPrefix); ok {
			re, err := regexp.Compile(stripped)
			if err != nil {
				continue
			}
			matchers = append(matchers, PatternMatcher{regex: re})
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			continue
		}
		matchers = append(matchers, PatternMatcher{glob: pattern})
	}
	return matchers
}

func matchesPatterns(name string, patterns []PatternMatcher) bool {
	for _, pattern := range patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}
