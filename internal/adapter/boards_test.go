package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobdeck/internal/filter"
	"github.com/amishk599/jobdeck/internal/model"
)

func TestGreenhouseFetchJobs_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer",
				"location": {"name": "San Francisco, CA"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"updated_at": "2026-02-13T10:00:00Z",
				"content": "&lt;h3&gt;Requirements&lt;/h3&gt;&lt;ul&gt;&lt;li&gt;5+ years of Go and Kubernetes&lt;/li&gt;&lt;/ul&gt;"
			},
			{
				"id": 67890,
				"title": "Backend Engineer",
				"location": {"name": ""},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"updated_at": "2026-02-13T11:30:00Z"
			}
		]
	}`
	srv := jsonServer(http.StatusOK, payload)
	defer srv.Close()

	var last *http.Request
	a := NewGreenhouseAdapter("acme", "Acme Corp", rewriteClient(srv, &last))

	jobs, err := a.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if last.URL.Path != "/v1/boards/acme/jobs" || last.URL.Query().Get("content") != "true" {
		t.Errorf("unexpected request URL %s", last.URL)
	}

	j := jobs[0]
	if j.SourceID != "12345" || j.SourceName != "greenhouse" {
		t.Errorf("source = %s/%s", j.SourceName, j.SourceID)
	}
	if j.Company != "Acme Corp" || j.Role != "Software Engineer" || j.Location != "San Francisco, CA" {
		t.Errorf("unexpected identity: %+v", j)
	}
	if !strings.HasPrefix(j.Description, "<h3>Requirements</h3>") {
		t.Errorf("description not unescaped: %q", j.Description)
	}
	if !containsTag(j.Tags, "Go") || !containsTag(j.Tags, "Kubernetes") {
		t.Errorf("tags = %v", j.Tags)
	}
	if j.CompanyLogo != "https://logo.clearbit.com/acme.com" {
		t.Errorf("CompanyLogo = %q", j.CompanyLogo)
	}
	if !j.CreatedAt.Equal(time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", j.CreatedAt)
	}
	if jobs[1].Location != "Unspecified" {
		t.Errorf("empty location = %q, want Unspecified", jobs[1].Location)
	}
}

func TestGreenhouseFetchJobs_RateLimited(t *testing.T) {
	srv := jsonServer(http.StatusTooManyRequests, `{}`)
	defer srv.Close()

	a := NewGreenhouseAdapter("acme", "Acme", rewriteClient(srv, nil))
	_, err := a.FetchJobs(context.Background())

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != 429 || httpErr.RetryAfter != 30*time.Second {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestLeverFetchJobs_ListsAndSalary(t *testing.T) {
	payload := `[
		{
			"id": "abc-123",
			"text": "Platform Engineer",
			"description": "<p>Join the platform team.</p>",
			"descriptionPlain": "Join the platform team.",
			"lists": [{"text": "Requirements", "content": "<li>Terraform experience</li>"}],
			"categories": {"team": "Infra", "location": "", "allLocations": ["Berlin", "Remote"]},
			"createdAt": 1739440800000,
			"hostedUrl": "https://jobs.lever.co/acme/abc-123",
			"applyUrl": "https://jobs.lever.co/acme/abc-123/apply",
			"salaryRange": {"currency": "USD", "interval": "per-year-salary", "min": 120000, "max": 180000}
		}
	]`
	srv := jsonServer(http.StatusOK, payload)
	defer srv.Close()

	jobs, err := NewLeverAdapter("acme", "Acme", rewriteClient(srv, nil)).FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	j := jobs[0]
	if j.Location != "Berlin, Remote" {
		t.Errorf("Location = %q", j.Location)
	}
	if !strings.Contains(j.Description, "<h3>Requirements</h3><ul><li>Terraform experience</li></ul>") {
		t.Errorf("lists not folded into description: %q", j.Description)
	}
	if j.Salary != "$120,000 - $180,000 per year" {
		t.Errorf("Salary = %q", j.Salary)
	}
	if j.ApplyURL != "https://jobs.lever.co/acme/abc-123/apply" {
		t.Errorf("ApplyURL = %q", j.ApplyURL)
	}
	if j.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestAshbyFetchJobs_SkipsUnlisted(t *testing.T) {
	payload := `{"jobs": [
		{"id": "1", "title": "Designer", "location": "", "isRemote": true, "jobUrl": "https://jobs.ashbyhq.com/acme/1", "isListed": true,
		 "compensation": {"compensationTierSummary": "$100K – $140K"}},
		{"id": "2", "title": "Hidden", "location": "NYC", "jobUrl": "https://jobs.ashbyhq.com/acme/2", "isListed": false}
	]}`
	srv := jsonServer(http.StatusOK, payload)
	defer srv.Close()

	jobs, err := NewAshbyAdapter("acme", "Acme", rewriteClient(srv, nil)).FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 listed job, got %d", len(jobs))
	}
	if jobs[0].Location != "Remote" || jobs[0].Salary != "$100K – $140K" {
		t.Errorf("unexpected job: %+v", jobs[0])
	}
}

func TestGemFetchJobs_PrefersHTMLContent(t *testing.T) {
	payload := `[{"id": "g1", "title": "Data Engineer", "location": {"name": "Austin, TX"},
		"absolute_url": "https://jobs.gem.com/acme/g1", "first_published_at": "2026-02-10T09:00:00Z",
		"content": "<p>We use Python and Kafka.</p>", "content_plain": ""}]`
	srv := jsonServer(http.StatusOK, payload)
	defer srv.Close()

	jobs, err := NewGemAdapter("acme", "Acme", rewriteClient(srv, nil)).FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Description != "<p>We use Python and Kafka.</p>" {
		t.Errorf("Description = %q", jobs[0].Description)
	}
	if !containsTag(jobs[0].Tags, "Python") || !containsTag(jobs[0].Tags, "Kafka") {
		t.Errorf("tags = %v", jobs[0].Tags)
	}
}

func TestWorkdayFetchJobs_FreshOnlyWithDetail(t *testing.T) {
	listingResp := `{
		"total": 3,
		"jobPostings": [
			{"title": "Software Engineer", "externalPath": "/job/SF/Software-Engineer_JR1", "locationsText": "San Francisco, CA", "postedOn": "Posted Today"},
			{"title": "Sales Lead", "externalPath": "/job/SF/Sales-Lead_JR2", "locationsText": "2 Locations", "postedOn": "Posted 3 Days Ago"},
			{"title": "Backend Engineer", "externalPath": "/job/SF/Backend_JR3", "locationsText": "Remote", "postedOn": "Posted 30+ Days Ago"}
		]
	}`
	detailResp := `{
		"jobPostingInfo": {
			"jobReqId": "JR1",
			"title": "Software Engineer",
			"jobDescription": "<p>Build scalable systems in Go.</p>",
			"location": "San Francisco, CA",
			"postedOn": "Posted Today",
			"startDate": "2026-02-17",
			"externalUrl": "https://acme.wd1.myworkdayjobs.com/Careers/job/SF/Software-Engineer_JR1",
			"additionalLocations": ["New York, NY"]
		}
	}`

	var detailCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.Write([]byte(listingResp))
			return
		}
		detailCalls++
		w.Write([]byte(detailResp))
	}))
	defer srv.Close()

	pre := filter.NewTitleAndLocationFilter([]string{"engineer"}, nil, nil, nil)
	a := NewWorkdayAdapter(srv.URL+"/wday/cxs/acme/Careers/", "Acme", srv.Client(), pre, 7)

	jobs, err := a.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sales Lead fails the pre-filter, Backend Engineer is stale.
	if len(jobs) != 1 || detailCalls != 1 {
		t.Fatalf("jobs = %d, detail calls = %d; want 1 and 1", len(jobs), detailCalls)
	}
	j := jobs[0]
	if j.SourceID != "JR1" || j.Location != "San Francisco, CA; New York, NY" {
		t.Errorf("unexpected job: %+v", j)
	}
	if !j.CreatedAt.Equal(time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", j.CreatedAt)
	}
	if !containsTag(j.Tags, "Go") {
		t.Errorf("tags = %v", j.Tags)
	}
}

func TestWorkdayIsFresh(t *testing.T) {
	a := NewWorkdayAdapter("https://x", "Acme", http.DefaultClient, nil, 2)
	tests := map[string]bool{
		"Posted Today":        true,
		"Posted Yesterday":    true,
		"Posted 2 Days Ago":   true,
		"Posted 3 Days Ago":   false,
		"Posted 30+ Days Ago": false,
		"":                    false,
	}
	for in, want := range tests {
		if got := a.isFresh(in); got != want {
			t.Errorf("isFresh(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMicrosoftFetchJobs_FreshWithDetail(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-2 * time.Hour).Unix()
	stale := now.Add(-72 * time.Hour).Unix()
	searchResp := fmt.Sprintf(`{
		"status": 200,
		"data": {
			"positions": [
				{"id": 1970393556619327, "name": "Senior Software Engineer", "locations": ["United States, Washington, Redmond"], "postedTs": %d, "positionUrl": "/careers/job/1970393556619327"},
				{"id": 9999999999999999, "name": "Old Role", "locations": [], "postedTs": %d, "positionUrl": "/careers/job/9999999999999999"}
			],
			"count": 2
		}
	}`, fresh, stale)
	detailResp := `{"data": {"jobDescription": "<p>Distributed systems in C# and Azure.</p>", "publicUrl": "https://jobs.careers.microsoft.com/global/en/job/1970393556619327"}}`

	var searchQuery, detailID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/pcsx/search":
			searchQuery = r.URL.Query().Get("query")
			w.Write([]byte(searchResp))
		case "/api/pcsx/position_details":
			detailID = r.URL.Query().Get("position_id")
			w.Write([]byte(detailResp))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewMicrosoftAdapter("Microsoft", "", rewriteClient(srv, nil), 1)
	a.now = func() time.Time { return now }

	jobs, err := a.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 fresh job, got %d", len(jobs))
	}
	if searchQuery != microsoftDefaultQuery || detailID != "1970393556619327" {
		t.Errorf("query = %q, detail id = %q", searchQuery, detailID)
	}

	j := jobs[0]
	if j.SourceName != "microsoft" || j.SourceID != "1970393556619327" {
		t.Errorf("source = %s/%s", j.SourceName, j.SourceID)
	}
	if j.Role != "Senior Software Engineer" || j.Location != "United States, Washington, Redmond" {
		t.Errorf("unexpected identity: %+v", j)
	}
	if j.ApplyURL != "https://jobs.careers.microsoft.com/global/en/job/1970393556619327" {
		t.Errorf("ApplyURL = %q", j.ApplyURL)
	}
	if j.SourceURL != microsoftBaseURL+"/careers/job/1970393556619327" {
		t.Errorf("SourceURL = %q", j.SourceURL)
	}
	if !j.CreatedAt.Equal(time.Unix(fresh, 0)) {
		t.Errorf("CreatedAt = %v", j.CreatedAt)
	}
	if !containsTag(j.Tags, "C#") || !containsTag(j.Tags, "Azure") {
		t.Errorf("tags = %v", j.Tags)
	}
}

func TestMicrosoftFetchJobs_RateLimited(t *testing.T) {
	srv := jsonServer(http.StatusTooManyRequests, `{}`)
	defer srv.Close()

	a := NewMicrosoftAdapter("Microsoft", "golang", rewriteClient(srv, nil), 1)
	_, err := a.FetchJobs(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("error = %v, want 429 HTTPError", err)
	}
	if httpErr.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", httpErr.RetryAfter)
	}
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestFetchJSON_LeavesSharedClientAlone(t *testing.T) {
	srv := jsonServer(http.StatusOK, `{"jobs": []}`)
	defer srv.Close()

	shared := &http.Client{Timeout: 2 * time.Second}
	var out greenhouseResponse
	if err := fetchJSON(context.Background(), shared, http.MethodGet, srv.URL, nil, nil, &out, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shared.Transport != nil {
		t.Error("shared client transport was set")
	}
}
