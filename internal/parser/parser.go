// Package parser extracts structured fields from free-form job descriptions.
//
// Parse is pure and deterministic: the same text always yields the same
// Result, and empty or malformed input yields empty slices rather than an
// error.
package parser

import "strings"

const (
	maxRequirements = 10
	maxBenefits     = 10
	maxTechStack    = 20
	maxCulture      = 8
)

// Result is the structured data found in a description.
type Result struct {
	Requirements []string `json:"requirements"`
	Benefits     []string `json:"benefits"`
	TeamSize     string   `json:"teamSize,omitempty"`
	Culture      []string `json:"culture"`
	Salary       string   `json:"salary,omitempty"`
	TechStack    []string `json:"techStack"`
}

// Parse extracts requirements, benefits, team size, culture signals, salary
// and tech stack from an HTML or plain-text description.
func Parse(text string) Result {
	res := Result{
		Requirements: []string{},
		Benefits:     []string{},
		Culture:      []string{},
		TechStack:    []string{},
	}

	plain := normalizeLines(htmlToText(text))
	if strings.TrimSpace(plain) == "" {
		return res
	}
	lines := strings.Split(plain, "\n")

	sections := splitSections(lines)
	var teamText []string
	for _, s := range sections {
		switch s.kind {
		case kindRequirements:
			res.Requirements = appendUnique(res.Requirements, extractItems(s.lines)...)
		case kindBenefits:
			res.Benefits = appendUnique(res.Benefits, extractItems(s.lines)...)
		case kindTeam:
			teamText = append(teamText, s.lines...)
		}
	}

	if len(res.Requirements) == 0 {
		res.Requirements = appendUnique(res.Requirements, keywordLines(lines, requirementKeywords)...)
	}
	if len(res.Benefits) == 0 {
		res.Benefits = appendUnique(res.Benefits, keywordLines(lines, benefitKeywords)...)
	}

	res.Salary = findSalary(plain)
	res.TechStack = findTechStack(plain)
	res.Culture = findCulture(plain)
	res.TeamSize = findTeamSize(strings.Join(teamText, "\n"))
	if res.TeamSize == "" {
		res.TeamSize = findTeamSize(plain)
	}

	res.Requirements = capList(res.Requirements, maxRequirements)
	res.Benefits = capList(res.Benefits, maxBenefits)
	res.TechStack = capList(res.TechStack, maxTechStack)
	res.Culture = capList(res.Culture, maxCulture)
	return res
}

// normalizeLines unifies line endings, trims each line and collapses runs
// of blank lines.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[strings.ToLower(d)] = true
	}
	for _, it := range items {
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		dst = append(dst, it)
	}
	return dst
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
