package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/phrasereport/internal/phrase"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern wrapped
// in slashes is a regular expression; anything else is a case-insensitive
// substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := CompileOne(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// CompileOne compiles a single non-empty pattern.
func CompileOne(raw string) (Pattern, error) {
	if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
		expr := raw[1 : len(raw)-1]
		re, err := regexp.Compile(expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("compile regexp %q: %w", raw, err)
		}
		return Pattern{raw: raw, regex: re}, nil
	}
	return Pattern{raw: raw, lower: strings.ToLower(raw)}, nil
}

// String returns the pattern as written.
func (p Pattern) String() string { return p.raw }

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Submatch returns the capture groups of a regex pattern, or an empty slice for
// a substring pattern. ok is false when the pattern does not match.
func (p Pattern) Submatch(s string) (args []string, ok bool) {
	if p.regex == nil {
		return []string{}, p.Match(s)
	}
	m := p.regex.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// Rules decide which phrases are excluded from execution.
type Rules struct {
	// OnlyTags keeps only phrases with at least one matching tag.
	OnlyTags []Pattern
	// SkipTags excludes phrases with any matching tag.
	SkipTags []Pattern
	// SkipPhrases excludes phrases whose body matches.
	SkipPhrases []Pattern
}

// CompileRules compiles the three pattern lists into Rules.
func CompileRules(onlyTags, skipTags, skipPhrases []string) (Rules, error) {
	var (
		rules Rules
		err   error
	)
	if rules.OnlyTags, err = Compile(onlyTags); err != nil {
		return Rules{}, err
	}
	if rules.SkipTags, err = Compile(skipTags); err != nil {
		return Rules{}, err
	}
	if rules.SkipPhrases, err = Compile(skipPhrases); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Empty reports whether the rules exclude nothing.
func (r Rules) Empty() bool {
	return len(r.OnlyTags) == 0 && len(r.SkipTags) == 0 && len(r.SkipPhrases) == 0
}

// Excludes reports whether p is filtered out.
func (r Rules) Excludes(p phrase.Phrase) bool {
	if len(r.OnlyTags) > 0 && !matchesTags(p.Tags, r.OnlyTags) {
		return true
	}
	if len(r.SkipTags) > 0 && matchesTags(p.Tags, r.SkipTags) {
		return true
	}
	for _, pattern := range r.SkipPhrases {
		if pattern.Match(p.Body) {
			return true
		}
	}
	return false
}

// Predicate returns Excludes as a plain function, or nil when the rules are
// empty.
func (r Rules) Predicate() func(phrase.Phrase) bool {
	if r.Empty() {
		return nil
	}
	return r.Excludes
}

func matchesTags(tags []string, patterns []Pattern) bool {
	for _, tag := range tags {
		for _, pattern := range patterns {
			if pattern.Match(tag) {
				return true
			}
		}
	}
	return false
}
