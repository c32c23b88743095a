package filter

import (
	"testing"

	"github.com/amishk599/jobdeck/internal/model"
)

func job(role, location string) model.NormalizedJob {
	return model.NormalizedJob{Role: role, Company: "Acme", Location: location}
}

func TestTitleAndLocationFilter_Match(t *testing.T) {
	tests := []struct {
		name             string
		titleKeywords    []string
		titleExcludes    []string
		locations        []string
		locationExcludes []string
		job              model.NormalizedJob
		wantMatch        bool
	}{
		{
			name:          "matches both title and location",
			titleKeywords: []string{"software engineer", "backend"},
			locations:     []string{"United States", "Remote"},
			job:           job("Software Engineer", "Remote - US"),
			wantMatch:     true,
		},
		{
			name:          "title match but location miss",
			titleKeywords: []string{"software engineer"},
			locations:     []string{"United States", "Remote"},
			job:           job("Software Engineer", "London, UK"),
			wantMatch:     false,
		},
		{
			name:          "case insensitive matching",
			titleKeywords: []string{"FULLSTACK"},
			locations:     []string{"us"},
			job:           job("Fullstack Developer", "US Remote"),
			wantMatch:     true,
		},
		{
			name:          "no keywords match",
			titleKeywords: []string{"devops", "sre"},
			locations:     []string{"Remote"},
			job:           job("Frontend Engineer", "New York, NY"),
			wantMatch:     false,
		},
		{
			name:          "title exclude wins",
			titleKeywords: []string{"engineer"},
			titleExcludes: []string{"senior staff"},
			job:           job("Senior Staff Engineer", "Remote"),
			wantMatch:     false,
		},
		{
			name:             "location exclude wins",
			locations:        []string{"remote"},
			locationExcludes: []string{"india"},
			job:              job("Engineer", "Remote, India"),
			wantMatch:        false,
		},
		{
			name:      "unknown location skips location rules",
			locations: []string{"Remote"},
			job:       job("Engineer", ""),
			wantMatch: true,
		},
		{
			name:          "empty keyword lists pass all",
			titleKeywords: []string{},
			locations:     []string{},
			job:           job("Any Role", "Anywhere"),
			wantMatch:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTitleAndLocationFilter(tt.titleKeywords, tt.titleExcludes, tt.locations, tt.locationExcludes)
			got := f.Match(tt.job)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestTitleAndLocationFilter_Empty(t *testing.T) {
	if !NewTitleAndLocationFilter(nil, nil, []string{"  "}, nil).Empty() {
		t.Error("blank keywords should leave the filter empty")
	}
	if NewTitleAndLocationFilter([]string{"go"}, nil, nil, nil).Empty() {
		t.Error("filter with a title keyword is not empty")
	}
}
