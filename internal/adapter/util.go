package adapter

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/company"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

const maxTags = 8

// tagVocabulary is matched case-insensitively on word boundaries against
// the title and description. Order decides which tags survive the cap.
var tagVocabulary = []string{
	"Go", "Golang", "Python", "Java", "Kotlin", "Scala", "Rust", "C++", "C#", "Ruby",
	"TypeScript", "JavaScript", "React", "Vue", "Angular", "Node.js", "Next.js",
	"Swift", "iOS", "Android", "Flutter",
	"AWS", "GCP", "Azure", "Kubernetes", "Docker", "Terraform",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "GraphQL", "gRPC",
	"Machine Learning", "Data", "DevOps", "Security", "Frontend", "Backend", "Full Stack",
	"Design", "Product", "Marketing", "Sales", "Support",
}

var tagPatterns = compileTagPatterns(tagVocabulary)

type tagPattern struct {
	tag string
	re  *regexp.Regexp
}

func compileTagPatterns(vocab []string) []tagPattern {
	out := make([]tagPattern, 0, len(vocab))
	for _, tag := range vocab {
		// \b does not work next to symbols like "+" or "#", so bound on
		// non-word characters instead.
		re := regexp.MustCompile(`(?i)(^|[^\w])` + regexp.QuoteMeta(tag) + `($|[^\w+#])`)
		out = append(out, tagPattern{tag: tag, re: re})
	}
	return out
}

// extractTags returns up to maxTags vocabulary tags found in the texts,
// merged after any tags the source already supplied.
func extractTags(existing []string, texts ...string) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] || len(tags) >= maxTags {
			return
		}
		seen[key] = true
		tags = append(tags, t)
	}

	for _, t := range existing {
		add(t)
	}
	joined := strings.Join(texts, "\n")
	for _, p := range tagPatterns {
		if len(tags) >= maxTags {
			break
		}
		if p.re.MatchString(joined) {
			add(p.tag)
		}
	}
	return tags
}

// normalizeLocation returns a trimmed location, or fallback when empty.
func normalizeLocation(loc, fallback string) string {
	loc = strings.Join(strings.Fields(loc), " ")
	if loc == "" {
		return fallback
	}
	return loc
}

// companyLogo keeps a source-supplied logo or guesses one from the name.
func companyLogo(supplied, companyName string) string {
	if s := strings.TrimSpace(supplied); s != "" {
		return s
	}
	return company.GuessLogo(companyName)
}

// formatSalaryRange renders "$120,000 - $180,000 per year" style ranges.
// Zero bounds are omitted; both zero yields "".
func formatSalaryRange(lo, hi float64, currency, period string) string {
	symbol := currency
	switch strings.ToUpper(currency) {
	case "", "USD":
		symbol = "$"
	case "EUR":
		symbol = "€"
	case "GBP":
		symbol = "£"
	default:
		symbol = strings.ToUpper(currency) + " "
	}

	var s string
	switch {
	case lo > 0 && hi > 0 && hi != lo:
		s = symbol + commas(lo) + " - " + symbol + commas(hi)
	case lo > 0:
		s = symbol + commas(lo)
	case hi > 0:
		s = symbol + commas(hi)
	default:
		return ""
	}
	if period != "" {
		s += " per " + strings.ToLower(period)
	}
	return s
}

func commas(v float64) string {
	digits := fmt.Sprintf("%d", int64(v+0.5))
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseTime tries RFC 3339 and a few common API layouts. Zero when unparseable.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
