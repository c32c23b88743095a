package model

import (
	"context"
	"strings"
	"time"
)

// NormalizedJob is the source-agnostic representation of a posting.
// Adapters produce it by value; nothing downstream mutates it.
type NormalizedJob struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Location string `json:"location"`

	Salary       string   `json:"salary,omitempty"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Benefits     []string `json:"benefits,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CompanyLogo  string   `json:"companyLogo,omitempty"`
	TeamSize     string   `json:"teamSize,omitempty"`
	Culture      []string `json:"culture,omitempty"`

	SourceName string    `json:"sourceName"`
	SourceID   string    `json:"sourceId"`
	SourceURL  string    `json:"sourceUrl,omitempty"`
	ApplyURL   string    `json:"applyUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DedupKey is the lowercased company|role|location identity of a job.
func (j NormalizedJob) DedupKey() string {
	return keyPart(j.Company) + "|" + keyPart(j.Role) + "|" + keyPart(j.Location)
}

func keyPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Valid reports whether the required identity fields are present.
func (j NormalizedJob) Valid() bool {
	return strings.TrimSpace(j.Role) != "" &&
		strings.TrimSpace(j.Company) != "" &&
		strings.TrimSpace(j.Location) != ""
}

// JobFetcher fetches job postings from one source.
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]NormalizedJob, error)
}

// JobFilter decides whether a job is worth ingesting.
type JobFilter interface {
	Match(job NormalizedJob) bool
}
