package filter

import (
	"strings"

	"github.com/amishk599/jobdeck/internal/model"
)

// TitleAndLocationFilter matches jobs whose role contains any of the title
// keywords and whose location contains any of the location keywords, and
// that hit none of the exclude lists. Matching is case-insensitive. Empty
// keyword lists are treated as "match all".
type TitleAndLocationFilter struct {
	titleKeywords    []string
	titleExcludes    []string
	locations        []string
	locationExcludes []string
}

// NewTitleAndLocationFilter returns a filter that requires both a title keyword
// match and a location keyword match (case-insensitive substring).
func NewTitleAndLocationFilter(titleKeywords, titleExcludes, locations, locationExcludes []string) *TitleAndLocationFilter {
	return &TitleAndLocationFilter{
		titleKeywords:    lowerAll(titleKeywords),
		titleExcludes:    lowerAll(titleExcludes),
		locations:        lowerAll(locations),
		locationExcludes: lowerAll(locationExcludes),
	}
}

// Match returns true if the job passes the title and location rules. A job
// with an empty location (not yet known) skips the location rules.
func (f *TitleAndLocationFilter) Match(job model.NormalizedJob) bool {
	titleLower := strings.ToLower(job.Role)
	locationLower := strings.ToLower(job.Location)

	if len(f.titleKeywords) > 0 && !containsAny(titleLower, f.titleKeywords) {
		return false
	}
	if containsAny(titleLower, f.titleExcludes) {
		return false
	}

	if locationLower == "" {
		return true
	}
	if len(f.locations) > 0 && !containsAny(locationLower, f.locations) {
		return false
	}
	if containsAny(locationLower, f.locationExcludes) {
		return false
	}

	return true
}

// Empty reports whether the filter has no rules and so matches everything.
func (f *TitleAndLocationFilter) Empty() bool {
	return len(f.titleKeywords) == 0 && len(f.titleExcludes) == 0 &&
		len(f.locations) == 0 && len(f.locationExcludes) == 0
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
