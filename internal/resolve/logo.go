package resolve

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/amishk599/jobdeck/internal/company"
	"github.com/amishk599/jobdeck/internal/model"
)

const clearbitSuggestURL = "https://autocomplete.clearbit.com/v1/companies/suggest"

// placeholderLogoHosts serve generic images, or unverified guesses, rather
// than a company's real logo.
var placeholderLogoHosts = []string{
	"ui-avatars.com",
	"via.placeholder.com",
	"placeholder.com",
	"placehold.co",
	"placehold.it",
	"dummyimage.com",
	"logo.clearbit.com",
}

// LogoQuery identifies the company whose logo is wanted.
type LogoQuery struct {
	Company  string
	Existing string // logo supplied by the source adapter, if any
}

// LogoResolver finds a company logo.
type LogoResolver struct {
	deps   Deps
	client *resty.Client
	cache  *Cache[Resolved[string]]
	chain  *Chain[LogoQuery, string]
}

// NewLogoResolver builds the logo chain: adapter logo, verified clearbit
// logo for the guessed domain, clearbit brand search, initials avatar.
func NewLogoResolver(deps Deps, cache *Cache[Resolved[string]]) *LogoResolver {
	r := &LogoResolver{deps: deps, client: deps.client(), cache: cache}
	r.chain = NewChain("logo",
		Step[LogoQuery, string]{Source: model.SourceUIAvatars, Fn: avatarLogo},
		deps.Logger,
		Step[LogoQuery, string]{Source: model.SourceAdapter, Fn: existingLogo},
		Step[LogoQuery, string]{Source: model.SourceClearbit, Fn: r.guessedLogo},
		Step[LogoQuery, string]{Source: model.SourceClearbit, Fn: r.searchLogo},
	)
	return r
}

// Resolve returns the logo for q. Results are cached per normalized company
// name.
func (r *LogoResolver) Resolve(ctx context.Context, q LogoQuery) Resolved[string] {
	key := company.Normalize(q.Company) + "|" + strings.TrimSpace(q.Existing)
	return cached(ctx, r.cache, key, r.chain, q)
}

// Fallback returns the initials avatar without any network call.
func (r *LogoResolver) Fallback(q LogoQuery) Resolved[string] {
	v, _, _ := avatarLogo(context.Background(), q)
	return Resolved[string]{Value: v, Source: model.SourceUIAvatars}
}

func existingLogo(_ context.Context, q LogoQuery) (string, bool, error) {
	logo := strings.TrimSpace(q.Existing)
	if logo == "" || isPlaceholderLogo(logo) {
		return "", false, nil
	}
	return logo, true, nil
}

func isPlaceholderLogo(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range placeholderLogoHosts {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

func (r *LogoResolver) guessedLogo(ctx context.Context, q LogoQuery) (string, bool, error) {
	logo := company.GuessLogo(q.Company)
	if logo == "" {
		return "", false, nil
	}
	ok, err := imageExists(ctx, r.deps, r.client, logo)
	if err != nil || !ok {
		return "", false, err
	}
	return logo, true, nil
}

type clearbitSuggestion struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Logo   string `json:"logo"`
}

func (r *LogoResolver) searchLogo(ctx context.Context, q LogoQuery) (string, bool, error) {
	name := strings.TrimSpace(q.Company)
	if name == "" {
		return "", false, nil
	}

	var suggestions []clearbitSuggestion
	err := r.deps.call(ctx, serviceClearbit, func(ctx context.Context) error {
		suggestions = nil
		return getJSON(ctx, r.client, clearbitSuggestURL, map[string]string{"query": name}, nil, &suggestions, "clearbit suggest for "+name)
	})
	if err != nil {
		return "", false, err
	}

	want := company.Normalize(name)
	for _, s := range suggestions {
		if s.Logo != "" && company.Normalize(s.Name) == want {
			return s.Logo, true, nil
		}
	}
	for _, s := range suggestions {
		if s.Logo != "" {
			return s.Logo, true, nil
		}
	}
	return "", false, nil
}

func avatarLogo(_ context.Context, q LogoQuery) (string, bool, error) {
	name := strings.TrimSpace(q.Company)
	if name == "" {
		name = "?"
	}
	return company.AvatarURL(name, 128), true, nil
}
