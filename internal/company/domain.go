// Package company holds the deterministic company-name heuristics shared by
// adapters and resolvers: domain guessing, logo URLs and initials avatars.
package company

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// knownDomains overrides the slug heuristic for brands whose domain is not
// simply "<name>.com".
var knownDomains = map[string]string{
	"google":              "google.com",
	"alphabet":            "abc.xyz",
	"meta":                "meta.com",
	"facebook":            "meta.com",
	"amazon":              "amazon.com",
	"amazon web services": "aws.amazon.com",
	"aws":                 "aws.amazon.com",
	"microsoft":           "microsoft.com",
	"apple":               "apple.com",
	"netflix":             "netflix.com",
	"x":                   "x.com",
	"twitter":             "x.com",
	"openai":              "openai.com",
	"anthropic":           "anthropic.com",
	"stripe":              "stripe.com",
	"shopify":             "shopify.com",
	"airbnb":              "airbnb.com",
	"uber":                "uber.com",
	"lyft":                "lyft.com",
	"ibm":                 "ibm.com",
	"salesforce":          "salesforce.com",
	"linkedin":            "linkedin.com",
	"github":              "github.com",
	"gitlab":              "gitlab.com",
	"atlassian":           "atlassian.com",
	"hashicorp":           "hashicorp.com",
	"cloudflare":          "cloudflare.com",
	"datadog":             "datadoghq.com",
	"notion":              "notion.so",
	"vercel":              "vercel.com",
	"figma":               "figma.com",
	"spotify":             "spotify.com",
	"deel":                "deel.com",
	"canonical":           "canonical.com",
}

var legalSuffixes = []string{
	"incorporated", "inc", "llc", "l.l.c", "ltd", "limited", "corp", "corporation",
	"co", "company", "gmbh", "ag", "plc", "sa", "s.a", "bv", "b.v", "pty",
	"srl", "oy", "ab", "as", "holdings", "group",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases a company name and strips punctuation and trailing
// legal suffixes ("Acme, Inc." -> "acme").
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(",", " ", "&", " and ", "(", " ", ")", " ").Replace(s)
	words := strings.Fields(s)
	for len(words) > 1 && isLegalSuffix(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isLegalSuffix(w string) bool {
	w = strings.TrimSuffix(w, ".")
	for _, s := range legalSuffixes {
		if w == s {
			return true
		}
	}
	return false
}

// Slug turns a company name into a lowercase alphanumeric token.
func Slug(name string) string {
	return nonAlnum.ReplaceAllString(Normalize(name), "")
}

// GuessDomain returns the most likely web domain for a company name.
// Returns "" when nothing usable remains after normalization.
func GuessDomain(name string) string {
	n := Normalize(name)
	if n == "" {
		return ""
	}
	if d, ok := knownDomains[n]; ok {
		return d
	}
	slug := nonAlnum.ReplaceAllString(n, "")
	if slug == "" {
		return ""
	}
	return slug + ".com"
}

// LogoURL is the clearbit logo URL for a domain.
func LogoURL(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://logo.clearbit.com/" + domain
}

// GuessLogo combines GuessDomain and LogoURL.
func GuessLogo(name string) string {
	return LogoURL(GuessDomain(name))
}

// Initials returns up to two uppercase initials for a name.
func Initials(name string) string {
	words := strings.Fields(Normalize(name))
	if len(words) == 0 {
		words = strings.Fields(strings.ToLower(name))
	}
	var b strings.Builder
	for _, w := range words {
		for _, r := range w {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteString(strings.ToUpper(string(r)))
				break
			}
		}
		if b.Len() == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// AvatarURL builds a deterministic ui-avatars URL. The background colour is
// derived from the name so the same name always renders the same avatar.
func AvatarURL(name string, size int) string {
	if strings.TrimSpace(name) == "" {
		name = "?"
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	bg := fmt.Sprintf("%02x%02x%02x", sum[0], sum[1], sum[2])
	q := url.Values{}
	q.Set("name", strings.TrimSpace(name))
	q.Set("background", bg)
	q.Set("color", "ffffff")
	q.Set("size", fmt.Sprintf("%d", size))
	q.Set("bold", "true")
	return "https://ui-avatars.com/api/?" + q.Encode()
}
