package adapter

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

const workdayPageSize = 20

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdayDetailResponse is the response from the Workday job detail endpoint.
type workdayDetailResponse struct {
	JobPostingInfo workdayJobDetail `json:"jobPostingInfo"`
}

type workdayJobDetail struct {
	JobReqID            string   `json:"jobReqId"`
	Title               string   `json:"title"`
	JobDescription      string   `json:"jobDescription"`
	Location            string   `json:"location"`
	PostedOn            string   `json:"postedOn"`
	StartDate           string   `json:"startDate"`
	ExternalURL         string   `json:"externalUrl"`
	AdditionalLocations []string `json:"additionalLocations"`
}

// WorkdayAdapter fetches jobs from a Workday career site.
type WorkdayAdapter struct {
	baseURL     string
	companyName string
	client      *http.Client
	preFilter   model.JobFilter // optional: used to skip detail fetches for listings that clearly won't match
	maxAgeDays  int
	now         func() time.Time
}

// NewWorkdayAdapter creates a new adapter for a Workday career site.
// Listings older than maxAgeDays are skipped without a detail fetch.
// An optional preFilter skips detail calls for listings that clearly won't
// match; pass nil to disable pre-filtering.
func NewWorkdayAdapter(baseURL string, companyName string, client *http.Client, preFilter model.JobFilter, maxAgeDays int) *WorkdayAdapter {
	return &WorkdayAdapter{
		baseURL:     strings.TrimRight(baseURL, "/"),
		companyName: companyName,
		client:      client,
		preFilter:   preFilter,
		maxAgeDays:  maxAgeDays,
		now:         time.Now,
	}
}

func (a *WorkdayAdapter) Name() string { return "workday/" + a.companyName }

// FetchJobs retrieves jobs from the Workday career site using a two-phase approach:
// 1. Paginate through POST /jobs to get all listings, pre-filtering by freshness.
// 2. GET /job/{externalPath} for each fresh listing to get full details.
func (a *WorkdayAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	listings, err := a.fetchAllListings(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []model.NormalizedJob
	for _, l := range listings {
		if !a.isFresh(l.PostedOn) || !a.listingPassesPreFilter(l) {
			continue
		}

		job, err := a.fetchDetail(ctx, l)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (a *WorkdayAdapter) fetchAllListings(ctx context.Context) ([]workdayListing, error) {
	var all []workdayListing
	offset := 0

	for {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
		}

		var listResp workdayListingResponse
		if err := fetchJSON(ctx, a.client, http.MethodPost, a.baseURL+"/jobs", body, nil, &listResp, "workday listing fetch for "+a.companyName); err != nil {
			return nil, err
		}

		all = append(all, listResp.JobPostings...)

		// Workday returns jobs newest first, so once the last listing on a
		// page is stale every later page is too.
		if len(listResp.JobPostings) > 0 {
			last := listResp.JobPostings[len(listResp.JobPostings)-1]
			if !a.isFresh(last.PostedOn) {
				break
			}
		}

		offset += workdayPageSize
		if offset >= listResp.Total || len(listResp.JobPostings) == 0 {
			break
		}
	}

	return all, nil
}

func (a *WorkdayAdapter) fetchDetail(ctx context.Context, listing workdayListing) (model.NormalizedJob, error) {
	var detail workdayDetailResponse
	url := a.baseURL + "/" + strings.TrimLeft(listing.ExternalPath, "/")
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, nil, &detail, "workday detail fetch for "+a.companyName); err != nil {
		return model.NormalizedJob{}, err
	}

	info := detail.JobPostingInfo

	location := info.Location
	if len(info.AdditionalLocations) > 0 {
		location = location + "; " + strings.Join(info.AdditionalLocations, "; ")
	}
	if location == "" {
		location = listing.LocationsText
	}

	// Prefer startDate (format "2006-01-02"), fall back to postedOn parsing
	var created time.Time
	if info.StartDate != "" {
		if t, err := time.Parse("2006-01-02", info.StartDate); err == nil {
			created = t
		}
	}
	if created.IsZero() {
		if t := a.parsePostedOn(info.PostedOn); t != nil {
			created = *t
		}
	}

	id := info.JobReqID
	if id == "" {
		id = listing.ExternalPath
	}

	return model.NormalizedJob{
		Role:        info.Title,
		Company:     a.companyName,
		Location:    normalizeLocation(location, "Unspecified"),
		Description: info.JobDescription,
		Tags:        extractTags(nil, info.Title, extractText(info.JobDescription)),
		CompanyLogo: companyLogo("", a.companyName),
		SourceName:  "workday",
		SourceID:    id,
		SourceURL:   info.ExternalURL,
		ApplyURL:    info.ExternalURL,
		CreatedAt:   created,
	}, nil
}

var ambiguousLocationRegex = regexp.MustCompile(`^\d+ Locations?$`)

// listingPassesPreFilter checks whether a listing is worth fetching details for.
// Title is always checked. Location is checked only when locationsText names
// a place; values like "2 Locations" are let through because the real
// location is unknown until the detail fetch.
func (a *WorkdayAdapter) listingPassesPreFilter(l workdayListing) bool {
	if a.preFilter == nil {
		return true
	}

	candidate := model.NormalizedJob{Role: l.Title, Location: l.LocationsText}
	if isAmbiguousLocation(l.LocationsText) {
		candidate.Location = ""
	}
	return a.preFilter.Match(candidate)
}

// isAmbiguousLocation returns true for Workday location strings like
// "2 Locations" or "5 Locations" where the actual location is unknown.
func isAmbiguousLocation(loc string) bool {
	return ambiguousLocationRegex.MatchString(loc)
}

// isFresh reports whether postedOn is within the adapter's age window.
// "Posted 30+ Days Ago" and unknown strings are never fresh.
func (a *WorkdayAdapter) isFresh(postedOn string) bool {
	switch postedOn {
	case "Posted Today", "Posted Yesterday":
		return true
	}
	n, ok := parseDaysAgo(postedOn)
	return ok && n <= a.maxAgeDays
}

var daysAgoRegex = regexp.MustCompile(`^Posted (\d+) Days? Ago$`)

// parsePostedOn converts a Workday relative date string to an approximate timestamp.
func (a *WorkdayAdapter) parsePostedOn(postedOn string) *time.Time {
	now := a.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch postedOn {
	case "Posted Today":
		return &today
	case "Posted Yesterday":
		t := today.AddDate(0, 0, -1)
		return &t
	}

	if n, ok := parseDaysAgo(postedOn); ok {
		t := today.AddDate(0, 0, -n)
		return &t
	}

	return nil
}

func parseDaysAgo(s string) (int, bool) {
	matches := daysAgoRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
