package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobdeck/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

type gemJob struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Location       gemLocation `json:"location"`
	AbsoluteURL    string      `json:"absolute_url"`
	FirstPublished string      `json:"first_published_at"`
	UpdatedAt      string      `json:"updated_at"`
	Content        string      `json:"content"`
	ContentPlain   string      `json:"content_plain"`
}

type gemLocation struct {
	Name string `json:"name"`
}

// GemAdapter fetches jobs from the Gem public job board API.
type GemAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGemAdapter creates a new adapter for a Gem job board.
func NewGemAdapter(boardToken string, companyName string, client *http.Client) *GemAdapter {
	return &GemAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *GemAdapter) Name() string { return "gem/" + a.boardToken }

// FetchJobs retrieves all jobs from the Gem board and normalizes them.
func (a *GemAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	url := fmt.Sprintf("%s/%s/job_posts/", gemBaseURL, a.boardToken)

	var gemJobs []gemJob
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, nil, &gemJobs, "gem fetch for "+a.boardToken); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(gemJobs))
	for _, gj := range gemJobs {
		description := gj.Content
		if description == "" {
			description = gj.ContentPlain
		}
		plain := gj.ContentPlain
		if plain == "" {
			plain = extractText(gj.Content)
		}

		created := parseTime(gj.FirstPublished)
		if created.IsZero() {
			created = parseTime(gj.UpdatedAt)
		}

		jobs = append(jobs, model.NormalizedJob{
			Role:        gj.Title,
			Company:     a.companyName,
			Location:    normalizeLocation(gj.Location.Name, "Unspecified"),
			Description: description,
			Tags:        extractTags(nil, gj.Title, plain),
			CompanyLogo: companyLogo("", a.companyName),
			SourceName:  "gem",
			SourceID:    gj.ID,
			SourceURL:   gj.AbsoluteURL,
			ApplyURL:    gj.AbsoluteURL,
			CreatedAt:   created,
		})
	}

	return jobs, nil
}
