package adapter

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/config"
	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/ratelimit"
	"github.com/amishk599/jobdeck/internal/retry"
)

// Adapter is a named job source.
type Adapter interface {
	Name() string
	model.JobFetcher
}

// Env is what the registry inspects to decide which sources are enabled.
type Env struct {
	Keys    config.Keys
	Sources config.SourcesConfig
	Boards  []config.BoardConfig
}

// Deps are handed to a registration when it builds its adapters.
type Deps struct {
	Env
	Client    *http.Client
	PreFilter model.JobFilter
}

// Registration describes one source kind. RequiredKeys lists the environment
// keys the source needs; empty means keyless. Check, when set, adds a
// further enablement condition. New returns one adapter per configured
// instance (board sources yield one per board).
type Registration struct {
	Name         string
	RequiredKeys []string
	Check        func(Env) bool
	New          func(Deps) []Adapter
}

// Registrations is the static, ordered list of supported sources. The order
// decides which duplicate survives when two sources return the same job.
func Registrations() []Registration {
	return []Registration{
		{
			Name: "remotive",
			New: func(d Deps) []Adapter {
				return []Adapter{NewRemotiveAdapter(d.Sources.Query, d.Sources.Limit, d.Client)}
			},
		},
		{
			Name: "remoteok",
			New: func(d Deps) []Adapter {
				return []Adapter{NewRemoteOKAdapter(d.Sources.Limit, d.Client)}
			},
		},
		{
			Name: "arbeitnow",
			New: func(d Deps) []Adapter {
				return []Adapter{NewArbeitnowAdapter(d.Sources.Limit, d.Client)}
			},
		},
		{
			Name:         "adzuna",
			RequiredKeys: []string{config.KeyAdzunaAppID, config.KeyAdzunaAppKey},
			New: func(d Deps) []Adapter {
				return []Adapter{NewAdzunaAdapter(
					d.Keys.Get(config.KeyAdzunaAppID), d.Keys.Get(config.KeyAdzunaAppKey),
					d.Sources.AdzunaCountry, d.Sources.Query, d.Sources.Limit, d.Client,
				)}
			},
		},
		{
			Name:         "jsearch",
			RequiredKeys: []string{config.KeyRapidAPI},
			New: func(d Deps) []Adapter {
				return []Adapter{NewJSearchAdapter(d.Keys.Get(config.KeyRapidAPI), d.Sources.Query, d.Sources.Limit, d.Client)}
			},
		},
		boardRegistration("greenhouse", func(b config.BoardConfig, d Deps) Adapter {
			return NewGreenhouseAdapter(b.BoardToken, b.Name, d.Client)
		}),
		boardRegistration("lever", func(b config.BoardConfig, d Deps) Adapter {
			return NewLeverAdapter(b.BoardToken, b.Name, d.Client)
		}),
		boardRegistration("ashby", func(b config.BoardConfig, d Deps) Adapter {
			return NewAshbyAdapter(b.BoardToken, b.Name, d.Client)
		}),
		boardRegistration("gem", func(b config.BoardConfig, d Deps) Adapter {
			return NewGemAdapter(b.BoardToken, b.Name, d.Client)
		}),
		boardRegistration("workday", func(b config.BoardConfig, d Deps) Adapter {
			return NewWorkdayAdapter(b.WorkdayURL, b.Name, d.Client, d.PreFilter, d.Sources.WorkdayMaxAge)
		}),
		boardRegistration("microsoft", func(b config.BoardConfig, d Deps) Adapter {
			return NewMicrosoftAdapter(b.Name, d.Sources.Query, d.Client, d.Sources.WorkdayMaxAge)
		}),
	}
}

// boardRegistration builds a registration that is enabled when at least one
// board of the given ATS is enabled in config.
func boardRegistration(ats string, build func(config.BoardConfig, Deps) Adapter) Registration {
	return Registration{
		Name: ats,
		Check: func(e Env) bool {
			return len(enabledBoards(e.Boards, ats)) > 0
		},
		New: func(d Deps) []Adapter {
			var out []Adapter
			for _, b := range enabledBoards(d.Boards, ats) {
				out = append(out, build(b, d))
			}
			return out
		},
	}
}

func enabledBoards(boards []config.BoardConfig, ats string) []config.BoardConfig {
	var out []config.BoardConfig
	for _, b := range boards {
		if b.Enabled && strings.EqualFold(b.ATS, ats) {
			out = append(out, b)
		}
	}
	return out
}

// SourceStatus explains whether a registration is enabled.
type SourceStatus struct {
	Name    string
	Enabled bool
	Reason  string
}

// Status reports, in registration order, whether each source is enabled.
func Status(regs []Registration, env Env) []SourceStatus {
	out := make([]SourceStatus, 0, len(regs))
	for _, r := range regs {
		out = append(out, status(r, env))
	}
	return out
}

func status(r Registration, env Env) SourceStatus {
	s := SourceStatus{Name: r.Name}
	if env.Sources.IsDisabled(r.Name) {
		s.Reason = "disabled in config"
		return s
	}
	var missing []string
	for _, k := range r.RequiredKeys {
		if env.Keys.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		s.Reason = "missing " + strings.Join(missing, ", ")
		return s
	}
	if r.Check != nil && !r.Check(env) {
		s.Reason = "no enabled boards"
		return s
	}
	s.Enabled = true
	if len(r.RequiredKeys) == 0 {
		s.Reason = "keyless"
	} else {
		s.Reason = "keys present"
	}
	return s
}

// Build instantiates every enabled registration and wraps each adapter with
// retry and rate limiting. limiters is keyed by registration name, so boards
// of the same ATS share one limiter.
func Build(regs []Registration, deps Deps, limiters *ratelimit.Registry, logger *slog.Logger) []Adapter {
	var out []Adapter
	for _, r := range regs {
		if !status(r, deps.Env).Enabled {
			logger.Debug("source disabled", "source", r.Name)
			continue
		}
		limiter := limiters.Get(r.Name)
		for _, a := range r.New(deps) {
			var f model.JobFetcher = ratelimit.NewRateLimitedAdapter(a, limiter)
			f = retry.NewRetryFetcher(f, 2, 5*time.Second, logger.With("source", a.Name()))
			out = append(out, Named(a.Name(), f))
			logger.Info("registered source", "source", a.Name())
		}
	}
	return out
}

type namedFetcher struct {
	name string
	model.JobFetcher
}

func (n namedFetcher) Name() string { return n.name }

// Named attaches a name to a bare JobFetcher.
func Named(name string, f model.JobFetcher) Adapter {
	return namedFetcher{name: name, JobFetcher: f}
}
