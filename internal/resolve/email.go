package resolve

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/amishk599/jobdeck/internal/company"
	"github.com/amishk599/jobdeck/internal/model"
)

const (
	hunterFinderURL       = "https://api.hunter.io/v2/email-finder"
	hunterDomainSearchURL = "https://api.hunter.io/v2/domain-search"
	defaultMinConfidence  = 70
)

var (
	hrMailbox    = regexp.MustCompile(`(?i)^(jobs|careers|career|recruit|recruiting|recruitment|talent|hr|hiring|people|apply|join)[.\-_]?`)
	hrDepartment = regexp.MustCompile(`(?i)^(hr|human.?resources|recruiting|talent|people)`)
)

// EmailQuery describes the person or company whose email is wanted.
type EmailQuery struct {
	FirstName string
	LastName  string
	Company   string
	Domain    string // guessed from Company when empty
}

func (q EmailQuery) domain() string {
	if d := strings.TrimSpace(q.Domain); d != "" {
		return strings.ToLower(d)
	}
	return company.GuessDomain(q.Company)
}

// EmailResolver finds a contact email through Hunter.
type EmailResolver struct {
	deps          Deps
	client        *resty.Client
	apiKey        string
	minConfidence int
	cache         *Cache[Resolved[string]]
	chain         *Chain[EmailQuery, string]
}

// NewEmailResolver builds the email chain: Hunter email finder, Hunter
// domain search, careers@domain. The Hunter steps are skipped without apiKey.
func NewEmailResolver(deps Deps, apiKey string, minConfidence int, cache *Cache[Resolved[string]]) *EmailResolver {
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	r := &EmailResolver{
		deps:          deps,
		client:        deps.client(),
		apiKey:        apiKey,
		minConfidence: minConfidence,
		cache:         cache,
	}
	r.chain = NewChain("email",
		Step[EmailQuery, string]{Source: model.SourcePlaceholder, Fn: careersEmail},
		deps.Logger,
		Step[EmailQuery, string]{Source: model.SourceHunter, Fn: r.findPerson},
		Step[EmailQuery, string]{Source: model.SourceHunter, Fn: r.searchDomain},
	)
	return r
}

// Resolve returns an email for q, cached per domain and name.
func (r *EmailResolver) Resolve(ctx context.Context, q EmailQuery) Resolved[string] {
	key := q.domain() + "|" + strings.ToLower(q.FirstName) + "|" + strings.ToLower(q.LastName)
	return cached(ctx, r.cache, key, r.chain, q)
}

// Fallback returns careers@domain without any network call.
func (r *EmailResolver) Fallback(q EmailQuery) Resolved[string] {
	v, _, _ := careersEmail(context.Background(), q)
	return Resolved[string]{Value: v, Source: model.SourcePlaceholder}
}

type hunterFinderResponse struct {
	Data struct {
		Email string `json:"email"`
		Score int    `json:"score"`
	} `json:"data"`
}

func (r *EmailResolver) findPerson(ctx context.Context, q EmailQuery) (string, bool, error) {
	domain := q.domain()
	if r.apiKey == "" || domain == "" || q.FirstName == "" || q.LastName == "" {
		return "", false, nil
	}

	var resp hunterFinderResponse
	err := r.deps.call(ctx, serviceHunter, func(ctx context.Context) error {
		resp = hunterFinderResponse{}
		return getJSON(ctx, r.client, hunterFinderURL, map[string]string{
			"domain":     domain,
			"first_name": q.FirstName,
			"last_name":  q.LastName,
			"api_key":    r.apiKey,
		}, nil, &resp, "hunter email finder for "+domain)
	})
	if err != nil {
		return "", false, err
	}
	if resp.Data.Email == "" || resp.Data.Score < r.minConfidence {
		return "", false, nil
	}
	return resp.Data.Email, true, nil
}

type hunterEmail struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	Department string `json:"department"`
}

type hunterDomainResponse struct {
	Data struct {
		Emails []hunterEmail `json:"emails"`
	} `json:"data"`
}

func (r *EmailResolver) searchDomain(ctx context.Context, q EmailQuery) (string, bool, error) {
	domain := q.domain()
	if r.apiKey == "" || domain == "" {
		return "", false, nil
	}

	var resp hunterDomainResponse
	err := r.deps.call(ctx, serviceHunter, func(ctx context.Context) error {
		resp = hunterDomainResponse{}
		return getJSON(ctx, r.client, hunterDomainSearchURL, map[string]string{
			"domain":  domain,
			"limit":   "25",
			"api_key": r.apiKey,
		}, nil, &resp, "hunter domain search for "+domain)
	})
	if err != nil {
		return "", false, err
	}

	email := pickDomainEmail(resp.Data.Emails)
	return email, email != "", nil
}

// pickDomainEmail prefers a generic HR mailbox, then any generic mailbox,
// then the most confident personal address in an HR-like department.
func pickDomainEmail(emails []hunterEmail) string {
	var generic, personal *hunterEmail
	for i := range emails {
		e := &emails[i]
		if e.Value == "" {
			continue
		}
		local, _, _ := strings.Cut(e.Value, "@")
		if e.Type == "generic" {
			if hrMailbox.MatchString(local) || hrDepartment.MatchString(e.Department) {
				return e.Value
			}
			if generic == nil || e.Confidence > generic.Confidence {
				generic = e
			}
			continue
		}
		if hrDepartment.MatchString(e.Department) && (personal == nil || e.Confidence > personal.Confidence) {
			personal = e
		}
	}
	if generic != nil {
		return generic.Value
	}
	if personal != nil {
		return personal.Value
	}
	return ""
}

func careersEmail(_ context.Context, q EmailQuery) (string, bool, error) {
	domain := q.domain()
	if domain == "" {
		domain = "example.com"
	}
	return "careers@" + domain, true, nil
}
