package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

const (
	microsoftBaseURL      = "https://apply.careers.microsoft.com"
	microsoftPageSize     = 10
	microsoftMaxPages     = 20
	microsoftDefaultQuery = "software engineer"
	microsoftLocation     = "United States"
)

type microsoftPosition struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Locations   []string `json:"locations"`
	PostedTs    int64    `json:"postedTs"`
	PositionURL string   `json:"positionUrl"`
}

// microsoftSearchResponse is the careers search API response.
type microsoftSearchResponse struct {
	Data struct {
		Positions []microsoftPosition `json:"positions"`
		Count     int                 `json:"count"`
	} `json:"data"`
}

// microsoftDetailResponse is the position detail API response.
type microsoftDetailResponse struct {
	Data struct {
		JobDescription string `json:"jobDescription"`
		PublicURL      string `json:"publicUrl"`
	} `json:"data"`
}

// MicrosoftAdapter fetches jobs from the Microsoft careers API.
type MicrosoftAdapter struct {
	companyName string
	query       string
	client      *http.Client
	maxAgeDays  int
	now         func() time.Time
}

// NewMicrosoftAdapter creates an adapter that searches Microsoft careers for
// query. Positions posted more than maxAgeDays ago are skipped; zero means
// one day.
func NewMicrosoftAdapter(companyName, query string, client *http.Client, maxAgeDays int) *MicrosoftAdapter {
	if strings.TrimSpace(query) == "" {
		query = microsoftDefaultQuery
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 1
	}
	return &MicrosoftAdapter{
		companyName: companyName,
		query:       query,
		client:      client,
		maxAgeDays:  maxAgeDays,
		now:         time.Now,
	}
}

func (a *MicrosoftAdapter) Name() string { return "microsoft/" + strings.ToLower(a.companyName) }

// FetchJobs pages through the search results newest first, then fetches
// the description of every fresh position.
func (a *MicrosoftAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	cutoff := a.now().UTC().AddDate(0, 0, -a.maxAgeDays)

	positions, err := a.fetchFreshPositions(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(positions))
	for _, p := range positions {
		job, err := a.fetchDetail(ctx, p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (a *MicrosoftAdapter) fetchFreshPositions(ctx context.Context, cutoff time.Time) ([]microsoftPosition, error) {
	var fresh []microsoftPosition
	for page := 0; page < microsoftMaxPages; page++ {
		start := page * microsoftPageSize
		var resp microsoftSearchResponse
		if err := fetchJSON(ctx, a.client, http.MethodGet, a.searchURL(start), nil, nil, &resp, "microsoft search"); err != nil {
			return nil, err
		}

		anyFresh := false
		for _, p := range resp.Data.Positions {
			if p.PostedTs > 0 && time.Unix(p.PostedTs, 0).After(cutoff) {
				fresh = append(fresh, p)
				anyFresh = true
			}
		}
		// Sorted by timestamp, so a page with nothing fresh ends the search.
		if !anyFresh || start+microsoftPageSize >= resp.Data.Count {
			break
		}
	}
	return fresh, nil
}

func (a *MicrosoftAdapter) searchURL(start int) string {
	q := url.Values{}
	q.Set("domain", "microsoft.com")
	q.Set("query", a.query)
	q.Set("location", microsoftLocation)
	q.Set("start", strconv.Itoa(start))
	q.Set("sort_by", "timestamp")
	q.Set("filter_include_remote", "1")
	return microsoftBaseURL + "/api/pcsx/search?" + q.Encode()
}

func (a *MicrosoftAdapter) fetchDetail(ctx context.Context, p microsoftPosition) (model.NormalizedJob, error) {
	id := strconv.FormatInt(p.ID, 10)
	q := url.Values{}
	q.Set("position_id", id)
	q.Set("domain", "microsoft.com")
	q.Set("hl", "en")
	q.Set("queried_location", microsoftLocation)

	var detail microsoftDetailResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, microsoftBaseURL+"/api/pcsx/position_details?"+q.Encode(), nil, nil, &detail, "microsoft detail fetch for "+id); err != nil {
		return model.NormalizedJob{}, err
	}

	location := ""
	if len(p.Locations) > 0 {
		location = p.Locations[0]
	}
	jobURL := microsoftBaseURL + p.PositionURL
	if detail.Data.PublicURL != "" {
		jobURL = detail.Data.PublicURL
	}
	description := detail.Data.JobDescription

	return model.NormalizedJob{
		Role:        p.Name,
		Company:     a.companyName,
		Location:    normalizeLocation(location, "Unspecified"),
		Description: description,
		Tags:        extractTags(nil, p.Name, extractText(description)),
		CompanyLogo: companyLogo("", a.companyName),
		SourceName:  "microsoft",
		SourceID:    id,
		SourceURL:   microsoftBaseURL + p.PositionURL,
		ApplyURL:    jobURL,
		CreatedAt:   time.Unix(p.PostedTs, 0).UTC(),
	}, nil
}
