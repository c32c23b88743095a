// Package enrich turns a normalized job into a display-ready card.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobdeck/internal/config"
	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/parser"
	"github.com/amishk599/jobdeck/internal/resolve"
)

// Enricher resolves everything a card needs for one job. Resolver caches
// live as long as the Enricher, so build one per run.
type Enricher struct {
	logos  *resolve.LogoResolver
	people *resolve.PersonResolver
	emails *resolve.EmailResolver
	photos *resolve.PhotoResolver
	now    func() time.Time
	logger *slog.Logger
}

// New builds an Enricher with fresh caches. Strategies whose key is missing
// from keys are skipped.
func New(deps resolve.Deps, keys config.Keys, cfg config.ResolveConfig) *Enricher {
	return &Enricher{
		logos:  resolve.NewLogoResolver(deps, resolve.NewCache[resolve.Resolved[string]]()),
		people: resolve.NewPersonResolver(deps, keys.Get(config.KeyProxycurl), resolve.NewCache[resolve.Resolved[resolve.Person]]()),
		emails: resolve.NewEmailResolver(deps, keys.Get(config.KeyHunter), cfg.HunterMinConfidence, resolve.NewCache[resolve.Resolved[string]]()),
		photos: resolve.NewPhotoResolver(deps, resolve.NewGuard(cfg.PhotoAllowedHosts), keys.Get(config.KeyGeneratedPhotos),
			cfg.HeadshotPoolSize, resolve.NewCache[resolve.Resolved[string]]()),
		now:    time.Now,
		logger: deps.Logger,
	}
}

type contact struct {
	person resolve.Resolved[resolve.Person]
	photo  resolve.Resolved[string]
	email  resolve.Resolved[string]
}

// Enrich resolves the logo, parses the description and looks up the hiring
// manager and recruiter concurrently. Values supplied by the source adapter
// take precedence over parsed ones. It fails only when ctx ends first.
func (e *Enricher) Enrich(ctx context.Context, job model.NormalizedJob) (model.EnrichedJobCard, error) {
	logo := e.logos.Resolve(ctx, resolve.LogoQuery{Company: job.Company, Existing: job.CompanyLogo})
	parsed := parser.Parse(job.Description)

	var manager, hr contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		manager = e.contact(gctx, job, resolve.KindManager)
		return nil
	})
	g.Go(func() error {
		hr = e.contact(gctx, job, resolve.KindHR)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return model.EnrichedJobCard{}, fmt.Errorf("enrich %s at %s: %w", job.Role, job.Company, err)
	}

	card := e.assemble(job, parsed, logo, manager, hr)
	e.logger.Debug("job enriched",
		"company", job.Company,
		"role", job.Role,
		"logo", logo.Source,
		"manager", manager.person.Source,
		"hr", hr.person.Source,
	)
	return card, nil
}

func (e *Enricher) contact(ctx context.Context, job model.NormalizedJob, kind resolve.PersonKind) contact {
	var c contact
	c.person = e.people.Resolve(ctx, resolve.PersonQuery{Company: job.Company, Role: job.Role, Kind: kind})
	p := c.person.Value
	if kind == resolve.KindHR {
		c.email = e.emails.Resolve(ctx, resolve.EmailQuery{FirstName: p.FirstName, LastName: p.LastName, Company: job.Company})
	}
	c.photo = e.photos.Resolve(ctx, resolve.PhotoQuery{Name: p.Name, Email: c.email.Value, PhotoURL: p.PhotoURL})
	return c
}

// Fallback builds a minimal card from the strategies that cannot fail. It
// makes no network calls.
func (e *Enricher) Fallback(job model.NormalizedJob) model.EnrichedJobCard {
	logo := e.logos.Fallback(resolve.LogoQuery{Company: job.Company})

	fallbackContact := func(kind resolve.PersonKind) contact {
		var c contact
		c.person = e.people.Fallback(resolve.PersonQuery{Company: job.Company, Role: job.Role, Kind: kind})
		if kind == resolve.KindHR {
			c.email = e.emails.Fallback(resolve.EmailQuery{Company: job.Company})
		}
		c.photo = e.photos.Fallback(resolve.PhotoQuery{Name: c.person.Value.Name})
		return c
	}

	card := e.assemble(job, parser.Parse(job.Description), logo,
		fallbackContact(resolve.KindManager), fallbackContact(resolve.KindHR))
	card.Minimal = true
	return card
}

func (e *Enricher) assemble(job model.NormalizedJob, parsed parser.Result, logo resolve.Resolved[string], manager, hr contact) model.EnrichedJobCard {
	card := model.EnrichedJobCard{
		NormalizedJob: job,
		Manager: model.Manager{
			Name:    manager.person.Value.Name,
			Title:   manager.person.Value.Title,
			Tagline: manager.person.Value.Tagline,
			Photo:   manager.photo.Value,
		},
		HR: model.HRContact{
			Name:  hr.person.Value.Name,
			Title: hr.person.Value.Title,
			Photo: hr.photo.Value,
			Email: hr.email.Value,
		},
		TechStack:  parsed.TechStack,
		EnrichedAt: e.now().UTC(),
	}
	card.CompanyLogo = logo.Value
	card.Meta = model.EnrichmentMeta{
		Logo:         logo.Source,
		Manager:      manager.person.Source,
		ManagerPhoto: manager.photo.Source,
		HR:           hr.person.Source,
		HRPhoto:      hr.photo.Source,
		HREmail:      hr.email.Source,
		TechStack:    model.SourceParsed,
	}

	card.Requirements, card.Meta.Requirements = preferList(job.Requirements, parsed.Requirements)
	card.Benefits, card.Meta.Benefits = preferList(job.Benefits, parsed.Benefits)
	card.Culture, card.Meta.Culture = preferList(job.Culture, parsed.Culture)
	card.TeamSize, card.Meta.TeamSize = preferString(job.TeamSize, parsed.TeamSize)
	card.Salary, card.Meta.Salary = preferString(job.Salary, parsed.Salary)
	if card.Salary == "" {
		card.Meta.Salary = ""
	}
	return card
}

func preferList(fromAdapter, parsed []string) ([]string, model.Source) {
	if len(fromAdapter) > 0 {
		return fromAdapter, model.SourceAdapter
	}
	if parsed == nil {
		parsed = []string{}
	}
	return parsed, model.SourceParsed
}

func preferString(fromAdapter, parsed string) (string, model.Source) {
	if fromAdapter != "" {
		return fromAdapter, model.SourceAdapter
	}
	return parsed, model.SourceParsed
}
