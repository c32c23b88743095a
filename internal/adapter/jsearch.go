package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/jobdeck/internal/model"
)

const (
	jsearchHost    = "jsearch.p.rapidapi.com"
	jsearchBaseURL = "https://" + jsearchHost + "/search"
)

type jsearchJob struct {
	JobID             string  `json:"job_id"`
	EmployerName      string  `json:"employer_name"`
	EmployerLogo      string  `json:"employer_logo"`
	JobTitle          string  `json:"job_title"`
	JobDescription    string  `json:"job_description"`
	JobCity           string  `json:"job_city"`
	JobState          string  `json:"job_state"`
	JobCountry        string  `json:"job_country"`
	JobIsRemote       bool    `json:"job_is_remote"`
	JobApplyLink      string  `json:"job_apply_link"`
	JobGoogleLink     string  `json:"job_google_link"`
	JobPostedAtUTC    string  `json:"job_posted_at_datetime_utc"`
	JobMinSalary      float64 `json:"job_min_salary"`
	JobMaxSalary      float64 `json:"job_max_salary"`
	JobSalaryCurrency string  `json:"job_salary_currency"`
	JobSalaryPeriod   string  `json:"job_salary_period"`
	JobHighlights     struct {
		Qualifications []string `json:"Qualifications"`
		Benefits       []string `json:"Benefits"`
	} `json:"job_highlights"`
}

type jsearchResponse struct {
	Data []jsearchJob `json:"data"`
}

// JSearchAdapter queries the JSearch aggregator on RapidAPI. Its postings
// carry structured qualification and benefit highlights.
type JSearchAdapter struct {
	apiKey string
	query  string
	limit  int
	client *http.Client
}

func NewJSearchAdapter(apiKey, query string, limit int, client *http.Client) *JSearchAdapter {
	return &JSearchAdapter{apiKey: apiKey, query: query, limit: limit, client: client}
}

func (a *JSearchAdapter) Name() string { return "jsearch" }

func (a *JSearchAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	q := url.Values{}
	q.Set("query", a.query)
	q.Set("page", "1")
	q.Set("num_pages", "1")
	headers := map[string]string{
		"X-RapidAPI-Key":  a.apiKey,
		"X-RapidAPI-Host": jsearchHost,
	}

	var resp jsearchResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, jsearchBaseURL+"?"+q.Encode(), nil, headers, &resp, "jsearch fetch"); err != nil {
		return nil, err
	}

	jobs := make([]model.NormalizedJob, 0, len(resp.Data))
	for _, jj := range resp.Data {
		var parts []string
		for _, p := range []string{jj.JobCity, jj.JobState, jj.JobCountry} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		location := strings.Join(parts, ", ")
		if jj.JobIsRemote {
			if location == "" {
				location = "Remote"
			} else {
				location = "Remote, " + location
			}
		}

		apply := jj.JobApplyLink
		if apply == "" {
			apply = jj.JobGoogleLink
		}

		jobs = append(jobs, model.NormalizedJob{
			Role:         jj.JobTitle,
			Company:      jj.EmployerName,
			Location:     normalizeLocation(location, "Unspecified"),
			Salary:       formatSalaryRange(jj.JobMinSalary, jj.JobMaxSalary, jj.JobSalaryCurrency, jsearchPeriod(jj.JobSalaryPeriod)),
			Description:  jj.JobDescription,
			Requirements: jj.JobHighlights.Qualifications,
			Benefits:     jj.JobHighlights.Benefits,
			Tags:         extractTags(nil, jj.JobTitle, jj.JobDescription),
			CompanyLogo:  companyLogo(jj.EmployerLogo, jj.EmployerName),
			SourceName:   "jsearch",
			SourceID:     jj.JobID,
			SourceURL:    jj.JobGoogleLink,
			ApplyURL:     apply,
			CreatedAt:    parseTime(jj.JobPostedAtUTC),
		})
	}
	return limitJobs(jobs, a.limit), nil
}

func jsearchPeriod(p string) string {
	switch strings.ToUpper(p) {
	case "YEAR":
		return "year"
	case "MONTH":
		return "month"
	case "HOUR":
		return "hour"
	}
	return ""
}
