package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobdeck/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Location        string `json:"location"`
	Department      string `json:"department"`
	IsRemote        bool   `json:"isRemote"`
	JobUrl          string `json:"jobUrl"`
	ApplyUrl        string `json:"applyUrl"`
	PublishedAt     string `json:"publishedAt"`
	IsListed        bool   `json:"isListed"`
	DescriptionHtml string `json:"descriptionHtml"`
	Compensation    *struct {
		Summary string `json:"compensationTierSummary"`
	} `json:"compensation"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewAshbyAdapter creates a new adapter for an Ashby job board.
func NewAshbyAdapter(boardToken string, companyName string, client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *AshbyAdapter) Name() string { return "ashby/" + a.boardToken }

// FetchJobs retrieves listed jobs from the Ashby job board and normalizes them.
func (a *AshbyAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, a.boardToken)

	var ashbyResp ashbyResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, nil, &ashbyResp, "ashby fetch for "+a.boardToken); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}

		fallback := "Unspecified"
		if aj.IsRemote {
			fallback = "Remote"
		}
		id := aj.ID
		if id == "" {
			id = aj.JobUrl
		}
		applyURL := aj.ApplyUrl
		if applyURL == "" {
			applyURL = aj.JobUrl
		}

		job := model.NormalizedJob{
			Role:        aj.Title,
			Company:     a.companyName,
			Location:    normalizeLocation(aj.Location, fallback),
			Description: aj.DescriptionHtml,
			Tags:        extractTags(nil, aj.Title, aj.Department, extractText(aj.DescriptionHtml)),
			CompanyLogo: companyLogo("", a.companyName),
			SourceName:  "ashby",
			SourceID:    id,
			SourceURL:   aj.JobUrl,
			ApplyURL:    applyURL,
			CreatedAt:   parseTime(aj.PublishedAt),
		}
		if aj.Compensation != nil {
			job.Salary = aj.Compensation.Summary
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
