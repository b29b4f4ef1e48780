// Package filter applies a source's allow/deny rules to candidate titles
// before anything is persisted. Rejected candidates are dropped for good;
// relaxing a pattern later will not recover them.
package filter

import (
	"fmt"
	"regexp"

	"github.com/lc4t/ArticlesData/models"
)

// Passes applies the source's allow rule, then its deny rule, to the
// candidate's title. An empty pattern leaves that rule unapplied.
func Passes(source models.Source, candidate models.Candidate) (bool, error) {
	if source.AllowPattern != "" {
		ok, err := matchesPrefix(source.AllowPattern, candidate.Title)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if source.DenyPattern != "" {
		ok, err := matchesPrefix(source.DenyPattern, candidate.Title)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}

	return true, nil
}

// matchesPrefix reports whether pattern matches title anchored at the start.
// A pattern without anchors is a prefix test, never a substring search.
func matchesPrefix(pattern, title string) (bool, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return false, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re.MatchString(title), nil
}
