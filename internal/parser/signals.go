package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	currency = `(?:[$€£]|(?:USD|EUR|GBP|CAD|AUD)\s?)`
	number   = `(?:\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`
	amount   = currency + `\s?` + number + `[kK]?`
	period   = `(?:\s*(?:per|/|a|an)\s*(?:year|yr|annum|hour|hr|month|mo|week)\b)?`
	rangeSep = `\s*(?:-|–|—|to)\s*`
)

// Salary patterns in priority order; the first match wins.
var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)` + amount + rangeSep + currency + `?\s?` + number + `[kK]?` + period),
	regexp.MustCompile(`(?i)up to\s+` + amount + period),
	regexp.MustCompile(`(?i)` + amount + `\+` + period),
	regexp.MustCompile(`(?i)(?:salary|compensation|pay)(?:\s+range)?:\s*(` + amount + period + `)`),
}

func findSalary(text string) string {
	for _, re := range salaryPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

// techCanonical maps lowercase spellings to their canonical name.
var techCanonical = map[string]string{
	"go": "Go", "golang": "Go", "python": "Python", "java": "Java", "javascript": "JavaScript",
	"typescript": "TypeScript", "ruby": "Ruby", "rust": "Rust", "kotlin": "Kotlin", "swift": "Swift",
	"scala": "Scala", "elixir": "Elixir", "php": "PHP", "c++": "C++", "c#": "C#", "haskell": "Haskell",
	"react": "React", "react native": "React Native", "vue": "Vue", "vue.js": "Vue", "angular": "Angular",
	"svelte": "Svelte", "next.js": "Next.js", "node.js": "Node.js", "nodejs": "Node.js", "django": "Django",
	"flask": "Flask", "fastapi": "FastAPI", "rails": "Rails", "ruby on rails": "Rails", "spring": "Spring",
	"graphql": "GraphQL", "grpc": "gRPC", "rest": "REST", "postgresql": "PostgreSQL", "postgres": "PostgreSQL",
	"mysql": "MySQL", "sqlite": "SQLite", "mongodb": "MongoDB", "redis": "Redis", "elasticsearch": "Elasticsearch",
	"kafka": "Kafka", "rabbitmq": "RabbitMQ", "cassandra": "Cassandra", "dynamodb": "DynamoDB",
	"snowflake": "Snowflake", "spark": "Spark", "airflow": "Airflow", "dbt": "dbt",
	"aws": "AWS", "amazon web services": "AWS", "gcp": "GCP", "google cloud": "GCP", "azure": "Azure",
	"kubernetes": "Kubernetes", "k8s": "Kubernetes", "docker": "Docker", "terraform": "Terraform",
	"ansible": "Ansible", "linux": "Linux", "git": "Git", "ci/cd": "CI/CD", "jenkins": "Jenkins",
	"github actions": "GitHub Actions", "prometheus": "Prometheus", "grafana": "Grafana",
	"pytorch": "PyTorch", "tensorflow": "TensorFlow", "llm": "LLM", "sql": "SQL", "nosql": "NoSQL",
	"html": "HTML", "css": "CSS", "tailwind": "Tailwind",
}

// caseSensitiveTech holds names that are also ordinary English words; they
// only count when written in their canonical casing.
var caseSensitiveTech = map[string]bool{
	"go": true, "rest": true, "spring": true, "rails": true, "spark": true,
	"swift": true, "rust": true, "git": true, "ruby": true, "react": true,
}

var techPattern = func() *regexp.Regexp {
	terms := make([]string, 0, len(techCanonical))
	for t := range techCanonical {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	for i, t := range terms {
		terms[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(terms, "|") + `)`)
}()

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// findTechStack returns known technologies in order of first mention. A hit
// only counts when it is not part of a longer word, so "Google" does not
// yield "Go".
func findTechStack(text string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, loc := range techPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 {
			if r := lastRune(text[:start]); isWordRune(r) {
				continue
			}
		}
		if end < len(text) {
			if r := firstRune(text[end:]); isWordRune(r) || r == '+' || r == '#' {
				continue
			}
		}
		hit := text[start:end]
		name := techCanonical[strings.ToLower(hit)]
		if caseSensitiveTech[strings.ToLower(hit)] && hit != name {
			continue
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

// cultureCanonical maps culture phrases to their normalized lowercase form.
var cultureCanonical = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)\bremote[- ]first\b`), "remote-first"},
	{regexp.MustCompile(`(?i)\bfully remote\b|\b100% remote\b`), "fully remote"},
	{regexp.MustCompile(`(?i)\bhybrid\b`), "hybrid"},
	{regexp.MustCompile(`(?i)\bunlimited (pto|vacation|paid time off)\b`), "unlimited pto"},
	{regexp.MustCompile(`(?i)\bflexible (hours|schedule|working hours)\b`), "flexible hours"},
	{regexp.MustCompile(`(?i)\bwork[- ]life balance\b`), "work-life balance"},
	{regexp.MustCompile(`(?i)\b(diverse|diversity)\b`), "diversity"},
	{regexp.MustCompile(`(?i)\binclusi(ve|on)\b`), "inclusive"},
	{regexp.MustCompile(`(?i)\bcollaborati(ve|on)\b`), "collaborative"},
	{regexp.MustCompile(`(?i)\bfast[- ]paced\b`), "fast-paced"},
	{regexp.MustCompile(`(?i)\basync(hronous)?\b`), "async"},
	{regexp.MustCompile(`(?i)\bmentor(ship|ing)\b`), "mentorship"},
	{regexp.MustCompile(`(?i)\b(4|four)[- ]day (work )?week\b`), "4-day week"},
	{regexp.MustCompile(`(?i)\bownership\b`), "ownership"},
	{regexp.MustCompile(`(?i)\bequal opportunity\b`), "equal opportunity"},
	{regexp.MustCompile(`(?i)\bstartup\b`), "startup"},
}

func findCulture(text string) []string {
	out := []string{}
	for _, c := range cultureCanonical {
		if c.re.MatchString(text) {
			out = append(out, c.name)
		}
	}
	return out
}

// Team size patterns in priority order.
var teamSizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bteam of (?:about |around |over |~)?\d+\s*(?:-|–|to)\s*\d+(?:\s+(?:engineers|developers|people|members))?`),
	regexp.MustCompile(`(?i)\b\d+\s*(?:-|–|to)\s*\d+\s+(?:engineers|developers|people|person|members)\b`),
	regexp.MustCompile(`(?i)\b\d+\+?\s+(?:engineers|developers|people|members|employees)\b`),
	regexp.MustCompile(`(?i)\bteam of (?:about |around |over |~)?\d+\+?`),
	regexp.MustCompile(`(?i)\b(?:small|tight[- ]knit|growing|lean|large|distributed) team\b`),
}

func findTeamSize(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range teamSizePatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
