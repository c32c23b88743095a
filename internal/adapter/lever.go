package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverList is one titled section of a Lever posting ("Requirements", "Benefits").
type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

// leverSalary is the optional structured compensation on a posting.
type leverSalary struct {
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Lists            []leverList     `json:"lists"`
	Additional       string          `json:"additional"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
	SalaryRange      *leverSalary    `json:"salaryRange"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(companySlug string, companyName string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

func (a *LeverAdapter) Name() string { return "lever/" + a.companySlug }

// FetchJobs retrieves all jobs from the Lever board and normalizes them.
func (a *LeverAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, nil, &leverJobs, "lever fetch for "+a.companySlug); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Determine location: prefer allLocations if available, fallback to location
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}
		if location == "" && strings.EqualFold(lj.WorkplaceType, "remote") {
			location = "Remote"
		}

		// createdAt is Unix milliseconds.
		var createdAt time.Time
		if lj.CreatedAt > 0 {
			createdAt = time.UnixMilli(lj.CreatedAt).UTC()
		}

		// Rebuild the description with the titled lists so the parser sees
		// their headers.
		var b strings.Builder
		b.WriteString(lj.Description)
		for _, l := range lj.Lists {
			fmt.Fprintf(&b, "<h3>%s</h3><ul>%s</ul>", l.Text, l.Content)
		}
		b.WriteString(lj.Additional)
		description := b.String()
		if strings.TrimSpace(description) == "" {
			description = lj.DescriptionPlain
		}

		applyURL := lj.ApplyURL
		if applyURL == "" {
			applyURL = lj.HostedURL
		}

		job := model.NormalizedJob{
			Role:        lj.Text,
			Company:     a.companyName,
			Location:    normalizeLocation(location, "Unspecified"),
			Description: description,
			Tags:        extractTags(nil, lj.Text, lj.Categories.Team, lj.DescriptionPlain),
			CompanyLogo: companyLogo("", a.companyName),
			SourceName:  "lever",
			SourceID:    lj.ID,
			SourceURL:   lj.HostedURL,
			ApplyURL:    applyURL,
			CreatedAt:   createdAt,
		}
		if s := lj.SalaryRange; s != nil {
			job.Salary = formatSalaryRange(s.Min, s.Max, s.Currency, leverInterval(s.Interval))
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// leverInterval maps "per-year-salary" style intervals to a period word.
func leverInterval(interval string) string {
	switch {
	case strings.Contains(interval, "year"):
		return "year"
	case strings.Contains(interval, "month"):
		return "month"
	case strings.Contains(interval, "hour"):
		return "hour"
	}
	return ""
}
