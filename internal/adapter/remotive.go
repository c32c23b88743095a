package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobdeck/internal/model"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

type remotiveJob struct {
	ID                        int64    `json:"id"`
	URL                       string   `json:"url"`
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	CompanyLogo               string   `json:"company_logo"`
	Category                  string   `json:"category"`
	Tags                      []string `json:"tags"`
	JobType                   string   `json:"job_type"`
	PublicationDate           string   `json:"publication_date"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	Salary                    string   `json:"salary"`
	Description               string   `json:"description"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches remote jobs from the keyless Remotive API.
type RemotiveAdapter struct {
	search string
	limit  int
	client *http.Client
}

func NewRemotiveAdapter(search string, limit int, client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{search: search, limit: limit, client: client}
}

func (a *RemotiveAdapter) Name() string { return "remotive" }

func (a *RemotiveAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	q := url.Values{}
	if a.search != "" {
		q.Set("search", a.search)
	}
	if a.limit > 0 {
		q.Set("limit", strconv.Itoa(a.limit))
	}
	u := remotiveBaseURL
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var resp remotiveResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, u, nil, nil, &resp, "remotive fetch"); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(resp.Jobs))
	for _, rj := range resp.Jobs {
		jobs = append(jobs, model.NormalizedJob{
			Role:        rj.Title,
			Company:     rj.CompanyName,
			Location:    normalizeLocation(rj.CandidateRequiredLocation, "Remote"),
			Salary:      rj.Salary,
			Description: rj.Description,
			Tags:        extractTags(rj.Tags, rj.Title, rj.Category, extractText(rj.Description)),
			CompanyLogo: companyLogo(rj.CompanyLogo, rj.CompanyName),
			SourceName:  "remotive",
			SourceID:    fmt.Sprintf("%d", rj.ID),
			SourceURL:   rj.URL,
			ApplyURL:    rj.URL,
			CreatedAt:   parseTime(rj.PublicationDate),
		})
	}
	return limitJobs(jobs, a.limit), nil
}

// limitJobs truncates jobs to limit when limit is positive.
func limitJobs(jobs []model.NormalizedJob, limit int) []model.NormalizedJob {
	if limit > 0 && len(jobs) > limit {
		return jobs[:limit]
	}
	return jobs
}
