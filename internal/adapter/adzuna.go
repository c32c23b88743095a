package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobdeck/internal/model"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

type adzunaJob struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Created     string  `json:"created"`
	RedirectURL string  `json:"redirect_url"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Category struct {
		Label string `json:"label"`
	} `json:"category"`
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

// AdzunaAdapter searches the Adzuna jobs API. It needs an app id and key.
type AdzunaAdapter struct {
	appID   string
	appKey  string
	country string
	query   string
	limit   int
	client  *http.Client
}

func NewAdzunaAdapter(appID, appKey, country, query string, limit int, client *http.Client) *AdzunaAdapter {
	return &AdzunaAdapter{
		appID:   appID,
		appKey:  appKey,
		country: country,
		query:   query,
		limit:   limit,
		client:  client,
	}
}

func (a *AdzunaAdapter) Name() string { return "adzuna" }

func (a *AdzunaAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	perPage := a.limit
	if perPage <= 0 || perPage > 50 {
		perPage = 50
	}
	q := url.Values{}
	q.Set("app_id", a.appID)
	q.Set("app_key", a.appKey)
	q.Set("results_per_page", strconv.Itoa(perPage))
	q.Set("content-type", "application/json")
	if a.query != "" {
		q.Set("what", a.query)
	}
	u := fmt.Sprintf("%s/%s/search/1?%s", adzunaBaseURL, a.country, q.Encode())

	var resp adzunaResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, u, nil, nil, &resp, "adzuna fetch"); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(resp.Results))
	for _, aj := range resp.Results {
		companyName := aj.Company.DisplayName
		jobs = append(jobs, model.NormalizedJob{
			Role:        aj.Title,
			Company:     companyName,
			Location:    normalizeLocation(aj.Location.DisplayName, "Unspecified"),
			Salary:      formatSalaryRange(aj.SalaryMin, aj.SalaryMax, adzunaCurrency(a.country), "year"),
			Description: aj.Description,
			Tags:        extractTags(nil, aj.Title, aj.Category.Label, aj.Description),
			CompanyLogo: companyLogo("", companyName),
			SourceName:  "adzuna",
			SourceID:    aj.ID,
			SourceURL:   aj.RedirectURL,
			ApplyURL:    aj.RedirectURL,
			CreatedAt:   parseTime(aj.Created),
		})
	}
	return limitJobs(jobs, a.limit), nil
}

func adzunaCurrency(country string) string {
	switch country {
	case "gb":
		return "GBP"
	case "de", "fr", "nl", "it", "es", "at":
		return "EUR"
	case "us":
		return "USD"
	}
	return ""
}
