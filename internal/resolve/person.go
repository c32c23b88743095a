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
	proxycurlResolveURL = "https://nubela.co/proxycurl/api/linkedin/company/resolve"
	proxycurlSearchURL  = "https://nubela.co/proxycurl/api/linkedin/company/employees/search/"
)

// PersonKind selects which contact to look for.
type PersonKind string

const (
	KindManager PersonKind = "manager"
	KindHR      PersonKind = "hr"
)

// roleFamily groups job titles that share a hiring-manager title.
type roleFamily struct {
	match   *regexp.Regexp
	keyword string // keyword regex sent to people search
	title   string // placeholder manager title
	hrTitle string // placeholder recruiter title
}

var roleFamilies = []roleFamily{
	{
		match:   regexp.MustCompile(`(?i)data|machine learning|\bml\b|analytics|scientist`),
		keyword: `(?i)(data science manager|head of data|director.{0,12}data|analytics manager|ml manager)`,
		title:   "Data Science Manager",
		hrTitle: "Technical Recruiter",
	},
	{
		match:   regexp.MustCompile(`(?i)engineer|developer|devops|\bsre\b|software|backend|frontend|full.?stack|platform|infrastructure`),
		keyword: `(?i)(engineering manager|head of engineering|director.{0,12}engineering|vp.{0,6}engineering|\bcto\b)`,
		title:   "Engineering Manager",
		hrTitle: "Technical Recruiter",
	},
	{
		match:   regexp.MustCompile(`(?i)design|ux|ui\b`),
		keyword: `(?i)(design manager|head of design|design director)`,
		title:   "Design Manager",
		hrTitle: "Talent Acquisition Partner",
	},
	{
		match:   regexp.MustCompile(`(?i)product`),
		keyword: `(?i)(head of product|director.{0,12}product|vp.{0,6}product|group product manager)`,
		title:   "Head of Product",
		hrTitle: "Talent Acquisition Partner",
	},
	{
		match:   regexp.MustCompile(`(?i)sales|account executive|business development|marketing`),
		keyword: `(?i)(sales manager|head of sales|marketing manager|head of marketing|director.{0,12}(sales|marketing))`,
		title:   "Sales Manager",
		hrTitle: "Talent Acquisition Partner",
	},
}

var defaultFamily = roleFamily{
	keyword: `(?i)(hiring manager|head of|director|manager)`,
	title:   "Hiring Manager",
	hrTitle: "Talent Acquisition Partner",
}

const hrKeyword = `(?i)(recruit|talent acquisition|talent partner|people partner|hr business partner|human resources)`

func familyFor(role string) roleFamily {
	for _, f := range roleFamilies {
		if f.match.MatchString(role) {
			return f
		}
	}
	return defaultFamily
}

// PersonQuery describes which contact to find at which company.
type PersonQuery struct {
	Company string
	Domain  string
	Role    string // the job title being hired for
	Kind    PersonKind
}

// Person is a resolved contact identity.
type Person struct {
	FirstName string
	LastName  string
	Name      string
	Title     string
	Tagline   string
	PhotoURL  string
}

// PersonResolver finds a hiring manager or recruiter.
type PersonResolver struct {
	deps      Deps
	client    *resty.Client
	apiKey    string
	cache     *Cache[Resolved[Person]]
	companies *Cache[string]
	chain     *Chain[PersonQuery, Person]
}

// NewPersonResolver builds the person chain: Proxycurl employee search,
// then a placeholder identity. The search is skipped without apiKey.
func NewPersonResolver(deps Deps, apiKey string, cache *Cache[Resolved[Person]]) *PersonResolver {
	r := &PersonResolver{
		deps:      deps,
		client:    deps.client(),
		apiKey:    apiKey,
		cache:     cache,
		companies: NewCache[string](),
	}
	r.chain = NewChain("person",
		Step[PersonQuery, Person]{Source: model.SourcePlaceholder, Fn: placeholderPerson},
		deps.Logger,
		Step[PersonQuery, Person]{Source: model.SourceProxycurl, Fn: r.search},
	)
	return r
}

// Resolve returns a contact for q, cached per company, role family and kind.
func (r *PersonResolver) Resolve(ctx context.Context, q PersonQuery) Resolved[Person] {
	key := company.Normalize(q.Company) + "|" + string(q.Kind) + "|" + familyFor(q.Role).title
	return cached(ctx, r.cache, key, r.chain, q)
}

// Fallback returns the placeholder identity without any network call.
func (r *PersonResolver) Fallback(q PersonQuery) Resolved[Person] {
	p, _, _ := placeholderPerson(context.Background(), q)
	return Resolved[Person]{Value: p, Source: model.SourcePlaceholder}
}

type proxycurlCompany struct {
	URL string `json:"url"`
}

type proxycurlSearch struct {
	Employees []struct {
		ProfileURL string `json:"profile_url"`
		Profile    *struct {
			FirstName     string `json:"first_name"`
			LastName      string `json:"last_name"`
			FullName      string `json:"full_name"`
			Occupation    string `json:"occupation"`
			Headline      string `json:"headline"`
			ProfilePicURL string `json:"profile_pic_url"`
		} `json:"profile"`
	} `json:"employees"`
}

func (r *PersonResolver) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + r.apiKey}
}

// companyURL resolves the company's profile URL, once per company.
func (r *PersonResolver) companyURL(ctx context.Context, q PersonQuery) (string, error) {
	key := company.Normalize(q.Company)
	if u, ok := r.companies.Get(key); ok {
		return u, nil
	}

	params := map[string]string{"company_name": q.Company}
	if d := q.Domain; d != "" {
		params["company_domain"] = d
	} else if d := company.GuessDomain(q.Company); d != "" {
		params["company_domain"] = d
	}

	var resp proxycurlCompany
	err := r.deps.call(ctx, serviceProxycurl, func(ctx context.Context) error {
		resp = proxycurlCompany{}
		return getJSON(ctx, r.client, proxycurlResolveURL, params, r.authHeader(), &resp, "proxycurl company resolve for "+q.Company)
	})
	if err != nil {
		return "", err
	}
	r.companies.Set(key, resp.URL)
	return resp.URL, nil
}

func (r *PersonResolver) search(ctx context.Context, q PersonQuery) (Person, bool, error) {
	if r.apiKey == "" || strings.TrimSpace(q.Company) == "" {
		return Person{}, false, nil
	}
	companyURL, err := r.companyURL(ctx, q)
	if err != nil || companyURL == "" {
		return Person{}, false, err
	}

	keyword := familyFor(q.Role).keyword
	if q.Kind == KindHR {
		keyword = hrKeyword
	}

	var resp proxycurlSearch
	err = r.deps.call(ctx, serviceProxycurl, func(ctx context.Context) error {
		resp = proxycurlSearch{}
		return getJSON(ctx, r.client, proxycurlSearchURL, map[string]string{
			"linkedin_company_profile_url": companyURL,
			"keyword_regex":                keyword,
			"page_size":                    "3",
			"enrich_profiles":              "enrich",
		}, r.authHeader(), &resp, "proxycurl employee search for "+q.Company)
	})
	if err != nil {
		return Person{}, false, err
	}

	for _, e := range resp.Employees {
		if e.Profile == nil {
			continue
		}
		p := e.Profile
		name := strings.TrimSpace(p.FullName)
		if name == "" {
			name = strings.TrimSpace(p.FirstName + " " + p.LastName)
		}
		if name == "" {
			continue
		}
		title := p.Occupation
		if title == "" {
			title = p.Headline
		}
		return Person{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Name:      name,
			Title:     title,
			Tagline:   p.Headline,
			PhotoURL:  p.ProfilePicURL,
		}, true, nil
	}
	return Person{}, false, nil
}

func placeholderPerson(_ context.Context, q PersonQuery) (Person, bool, error) {
	name := strings.TrimSpace(q.Company)
	if name == "" {
		name = "The"
	}
	f := familyFor(q.Role)
	role := strings.TrimSpace(q.Role)
	if role == "" {
		role = "this role"
	}

	if q.Kind == KindHR {
		return Person{
			Name:    name + " Talent Team",
			Title:   f.hrTitle,
			Tagline: "Recruiting for " + role,
		}, true, nil
	}
	return Person{
		Name:    name + " Hiring Team",
		Title:   f.title,
		Tagline: "Hiring for " + role,
	}, true, nil
}
