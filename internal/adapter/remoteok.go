package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

const remoteOKBaseURL = "https://remoteok.com/api"

type remoteOKJob struct {
	ID          json.Number `json:"id"`
	Slug        string      `json:"slug"`
	Epoch       int64       `json:"epoch"`
	Date        string      `json:"date"`
	Company     string      `json:"company"`
	CompanyLogo string      `json:"company_logo"`
	Logo        string      `json:"logo"`
	Position    string      `json:"position"`
	Tags        []string    `json:"tags"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	SalaryMin   float64     `json:"salary_min"`
	SalaryMax   float64     `json:"salary_max"`
	ApplyURL    string      `json:"apply_url"`
	URL         string      `json:"url"`
	Legal       string      `json:"legal"`
}

// RemoteOKAdapter fetches jobs from the keyless RemoteOK feed.
type RemoteOKAdapter struct {
	limit  int
	client *http.Client
}

func NewRemoteOKAdapter(limit int, client *http.Client) *RemoteOKAdapter {
	return &RemoteOKAdapter{limit: limit, client: client}
}

func (a *RemoteOKAdapter) Name() string { return "remoteok" }

func (a *RemoteOKAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	var items []remoteOKJob
	if err := fetchJSON(ctx, a.client, http.MethodGet, remoteOKBaseURL, nil, nil, &items, "remoteok fetch"); err != nil {
		return nil, err
	}

	// The first element is a legal notice, not a job.
	if len(items) > 0 && (items[0].Legal != "" || items[0].Position == "") {
		items = items[1:]
	}

	jobs := make([]model.NormalizedJob, 0, len(items))
	for _, rj := range items {
		if rj.Position == "" || rj.Company == "" {
			continue
		}

		created := parseTime(rj.Date)
		if created.IsZero() && rj.Epoch > 0 {
			created = time.Unix(rj.Epoch, 0).UTC()
		}
		logo := rj.CompanyLogo
		if logo == "" {
			logo = rj.Logo
		}
		apply := rj.ApplyURL
		if apply == "" {
			apply = rj.URL
		}

		var tags []string
		for _, t := range rj.Tags {
			tags = append(tags, strings.ToLower(t))
		}

		jobs = append(jobs, model.NormalizedJob{
			Role:        rj.Position,
			Company:     rj.Company,
			Location:    normalizeLocation(rj.Location, "Remote"),
			Salary:      formatSalaryRange(rj.SalaryMin, rj.SalaryMax, "USD", "year"),
			Description: rj.Description,
			Tags:        extractTags(tags, rj.Position, extractText(rj.Description)),
			CompanyLogo: companyLogo(logo, rj.Company),
			SourceName:  "remoteok",
			SourceID:    rj.ID.String(),
			SourceURL:   rj.URL,
			ApplyURL:    apply,
			CreatedAt:   created,
		})
	}
	return limitJobs(jobs, a.limit), nil
}
