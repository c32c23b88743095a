package adapter

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"

	"github.com/amishk599/jobdeck/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken string, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *GreenhouseAdapter) Name() string { return "greenhouse/" + a.boardToken }

// FetchJobs retrieves all jobs from the Greenhouse board and normalizes them.
func (a *GreenhouseAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, nil, &ghResp, "greenhouse fetch for "+a.boardToken); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		// Greenhouse double-encodes the HTML body.
		description := html.UnescapeString(gj.Content)
		jobs = append(jobs, model.NormalizedJob{
			Role:        gj.Title,
			Company:     a.companyName,
			Location:    normalizeLocation(gj.Location.Name, "Unspecified"),
			Description: description,
			Tags:        extractTags(nil, gj.Title, extractText(description)),
			CompanyLogo: companyLogo("", a.companyName),
			SourceName:  "greenhouse",
			SourceID:    strconv.FormatInt(gj.ID, 10),
			SourceURL:   gj.AbsoluteURL,
			ApplyURL:    gj.AbsoluteURL,
			CreatedAt:   parseTime(gj.UpdatedAt),
		})
	}

	return jobs, nil
}
