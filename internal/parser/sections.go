package parser

import (
	"regexp"
	"strings"
)

type sectionKind int

const (
	kindOther sectionKind = iota
	kindRequirements
	kindBenefits
	kindTeam
)

type section struct {
	header string
	kind   sectionKind
	lines  []string
}

var (
	markdownHeader = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*$`)
	boldHeader     = regexp.MustCompile(`^\*\*(.+?)\*\*:?$`)
	labelHeader    = regexp.MustCompile(`^([A-Z][A-Za-z0-9'’&/(),\- ]{1,60}):$`)
	capsHeader     = regexp.MustCompile(`^[A-Z][A-Z0-9'’&/ \-]{3,50}$`)

	bulletLine = regexp.MustCompile(`^(?:[•●○◦▪▸►]\s*|[\-*>]\s+|\d{1,2}[.)]\s+)(.+)$`)
)

// Header families, checked in order. The first family that matches wins.
var headerFamilies = []struct {
	kind sectionKind
	re   *regexp.Regexp
}{
	{kindRequirements, regexp.MustCompile(`(?i)requirement|qualification|about you|who you are|what you('ll| will)? (need|bring)|you (have|bring)|skills|experience|must[- ]haves?|nice[- ]to[- ]haves?|preferred|what we('re| are) looking for|ideal candidate|your profile|competenc`)},
	{kindBenefits, regexp.MustCompile(`(?i)benefit|perks?\b|compensation|what we offer|we offer|why (join|work)|salary|\bpay\b|rewards|what you('ll| will) get|in return`)},
	{kindTeam, regexp.MustCompile(`(?i)\bteam\b|about the role|the role|role overview|about us|who we are|the opportunity|your mission|what you('ll| will) do|responsibilit`)},
}

// headerLabel reports whether line is a section header and returns its label.
func headerLabel(line string) (string, bool) {
	if m := markdownHeader.FindStringSubmatch(line); m != nil {
		return strings.Trim(m[1], "*: "), true
	}
	if m := boldHeader.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := labelHeader.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if capsHeader.MatchString(line) && strings.ContainsAny(line, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return line, true
	}
	return "", false
}

func classify(header string) sectionKind {
	for _, f := range headerFamilies {
		if f.re.MatchString(header) {
			return f.kind
		}
	}
	return kindOther
}

// splitSections groups lines under the nearest preceding header. Lines
// before the first header form an unlabelled section.
func splitSections(lines []string) []section {
	sections := []section{{}}
	for _, line := range lines {
		if label, ok := headerLabel(line); ok {
			sections = append(sections, section{header: label, kind: classify(label)})
			continue
		}
		cur := &sections[len(sections)-1]
		cur.lines = append(cur.lines, line)
	}
	return sections
}

// extractItems returns the bulleted items of a section, or its substantive
// lines when it has no bullets.
func extractItems(lines []string) []string {
	var bullets []string
	for _, line := range lines {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			if item := strings.TrimSpace(m[1]); item != "" {
				bullets = append(bullets, item)
			}
		}
	}
	if len(bullets) > 0 {
		return bullets
	}

	var out []string
	for _, line := range lines {
		if n := len([]rune(line)); n >= 10 && n <= 500 {
			out = append(out, line)
		}
	}
	return out
}

var (
	requirementKeywords = regexp.MustCompile(`(?i)\d+\+? years|years of experience|years' experience|bachelor|master's|degree in|proficien|experience (with|in)|knowledge of|familiarity with|strong understanding|hands-on`)
	benefitKeywords     = regexp.MustCompile(`(?i)health (insurance|care|coverage)|dental|vision|401\(?k\)?|\bpto\b|paid time off|parental leave|equity|stock options|learning (budget|stipend)|wellness|vacation|pension|gym`)
)

// keywordLines scans every line of the text for keyword hits. It is the
// fallback when no section header matched.
func keywordLines(lines []string, re *regexp.Regexp) []string {
	var out []string
	for _, line := range lines {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		}
		if _, isHeader := headerLabel(line); isHeader {
			continue
		}
		n := len([]rune(line))
		if n < 10 || n > 500 {
			continue
		}
		if re.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}
