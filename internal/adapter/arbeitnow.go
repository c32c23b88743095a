package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

const arbeitnowBaseURL = "https://www.arbeitnow.com/api/job-board-api"

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// ArbeitnowAdapter fetches jobs from the keyless Arbeitnow job board API.
type ArbeitnowAdapter struct {
	limit  int
	client *http.Client
}

func NewArbeitnowAdapter(limit int, client *http.Client) *ArbeitnowAdapter {
	return &ArbeitnowAdapter{limit: limit, client: client}
}

func (a *ArbeitnowAdapter) Name() string { return "arbeitnow" }

func (a *ArbeitnowAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	var resp arbeitnowResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, arbeitnowBaseURL, nil, nil, &resp, "arbeitnow fetch"); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(resp.Data))
	for _, aj := range resp.Data {
		location := aj.Location
		if aj.Remote && location == "" {
			location = "Remote"
		}
		var created time.Time
		if aj.CreatedAt > 0 {
			created = time.Unix(aj.CreatedAt, 0).UTC()
		}

		jobs = append(jobs, model.NormalizedJob{
			Role:        aj.Title,
			Company:     aj.CompanyName,
			Location:    normalizeLocation(location, "Unspecified"),
			Description: aj.Description,
			Tags:        extractTags(aj.Tags, aj.Title, extractText(aj.Description)),
			CompanyLogo: companyLogo("", aj.CompanyName),
			SourceName:  "arbeitnow",
			SourceID:    aj.Slug,
			SourceURL:   aj.URL,
			ApplyURL:    aj.URL,
			CreatedAt:   created,
		})
	}
	return limitJobs(jobs, a.limit), nil
}
