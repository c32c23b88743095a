package model

import "time"

// Source names the strategy that supplied an enriched value.
type Source string

const (
	SourceProxycurl              Source = "proxycurl"
	SourceHunter                 Source = "hunter"
	SourceClearbit               Source = "clearbit"
	SourceGeneratedPhotos        Source = "generated_photos"
	SourceThisPersonDoesNotExist Source = "thispersondoesnotexist"
	SourceUIAvatars              Source = "ui_avatars"
	SourceParsed                 Source = "parsed"
	SourcePlaceholder            Source = "placeholder"
	SourceAdapter                Source = "adapter"
	SourceGravatar               Source = "gravatar"
)

// Manager is the resolved hiring manager shown on a card.
type Manager struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Tagline string `json:"tagline"`
	Photo   string `json:"photo"`
}

// HRContact is the resolved recruiting contact shown on a card.
type HRContact struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Photo string `json:"photo"`
	Email string `json:"email"`
}

// EnrichmentMeta records which strategy produced each enriched field.
type EnrichmentMeta struct {
	Logo         Source `json:"logo"`
	Manager      Source `json:"manager"`
	ManagerPhoto Source `json:"managerPhoto"`
	HR           Source `json:"hr"`
	HRPhoto      Source `json:"hrPhoto"`
	HREmail      Source `json:"hrEmail"`
	Requirements Source `json:"requirements"`
	Benefits     Source `json:"benefits"`
	TeamSize     Source `json:"teamSize"`
	Culture      Source `json:"culture"`
	Salary       Source `json:"salary,omitempty"`
	TechStack    Source `json:"techStack"`
}

// EnrichedJobCard is the display-ready result of enriching one job.
// It is written once per enrichment and never edited in place.
type EnrichedJobCard struct {
	NormalizedJob

	Manager   Manager   `json:"manager"`
	HR        HRContact `json:"hr"`
	TechStack []string  `json:"techStack"`

	Meta       EnrichmentMeta `json:"meta"`
	EnrichedAt time.Time      `json:"enrichedAt"`
	Minimal    bool           `json:"minimal,omitempty"`
}
