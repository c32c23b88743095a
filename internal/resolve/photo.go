package resolve

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/amishk599/jobdeck/internal/company"
	"github.com/amishk599/jobdeck/internal/model"
)

const (
	gravatarURL          = "https://www.gravatar.com/avatar/"
	generatedPhotosURL   = "https://api.generated.photos/api/v1/faces"
	randomFaceURL        = "https://thispersondoesnotexist.com/"
	photoAvatarSize      = 256
	defaultHeadshotBatch = 20

	headshotPoolTTL   = time.Hour
	headshotPoolRetry = time.Minute
)

// PhotoQuery describes the person whose photo is wanted.
type PhotoQuery struct {
	Name     string
	Email    string
	PhotoURL string // candidate from a people-search result
}

// PhotoResolver finds a contact photo.
type PhotoResolver struct {
	deps     Deps
	client   *resty.Client
	verify   *resty.Client // candidate URLs, behind the guard
	guard    *Guard
	apiKey   string
	poolSize int
	cache    *Cache[Resolved[string]]
	chain    *Chain[PhotoQuery, string]

	poolMu     sync.Mutex
	pool       []string
	poolLoaded time.Time
	poolFailed time.Time
	next       atomic.Uint64
	now        func() time.Time
}

// NewPhotoResolver builds the photo chain: verified real photo, gravatar,
// generated.photos pool, generated.photos single fetch, random face,
// initials avatar. The generated.photos steps are skipped without apiKey.
func NewPhotoResolver(deps Deps, guard *Guard, apiKey string, poolSize int, cache *Cache[Resolved[string]]) *PhotoResolver {
	if poolSize <= 0 {
		poolSize = defaultHeadshotBatch
	}
	r := &PhotoResolver{
		deps:     deps,
		client:   deps.client(),
		guard:    guard,
		apiKey:   apiKey,
		poolSize: poolSize,
		cache:    cache,
		now:      time.Now,
	}
	if guard != nil {
		r.verify = newRestyClient(guard.Client(deps.httpClient()))
	}
	r.chain = NewChain("photo",
		Step[PhotoQuery, string]{Source: model.SourceUIAvatars, Fn: avatarPhoto},
		deps.Logger,
		Step[PhotoQuery, string]{Source: model.SourceProxycurl, Fn: r.realPhoto},
		Step[PhotoQuery, string]{Source: model.SourceGravatar, Fn: r.gravatar},
		Step[PhotoQuery, string]{Source: model.SourceGeneratedPhotos, Fn: r.fromPool},
		Step[PhotoQuery, string]{Source: model.SourceGeneratedPhotos, Fn: r.singleHeadshot},
		Step[PhotoQuery, string]{Source: model.SourceThisPersonDoesNotExist, Fn: r.randomFace},
	)
	return r
}

// Resolve returns a photo for q, cached per name, email and candidate URL.
func (r *PhotoResolver) Resolve(ctx context.Context, q PhotoQuery) Resolved[string] {
	key := strings.ToLower(strings.TrimSpace(q.Name)) + "|" + strings.ToLower(strings.TrimSpace(q.Email)) + "|" + q.PhotoURL
	return cached(ctx, r.cache, key, r.chain, q)
}

// Fallback returns the initials avatar without any network call.
func (r *PhotoResolver) Fallback(q PhotoQuery) Resolved[string] {
	v, _, _ := avatarPhoto(context.Background(), q)
	return Resolved[string]{Value: v, Source: model.SourceUIAvatars}
}

func (r *PhotoResolver) realPhoto(ctx context.Context, q PhotoQuery) (string, bool, error) {
	if q.PhotoURL == "" {
		return "", false, nil
	}
	if r.guard == nil || r.verify == nil {
		return "", false, fmt.Errorf("no photo guard configured")
	}
	if err := r.guard.Check(ctx, q.PhotoURL); err != nil {
		return "", false, err
	}
	ok, err := imageExists(ctx, r.deps, r.verify, q.PhotoURL)
	return q.PhotoURL, ok && err == nil, err
}

// GravatarURL returns the gravatar image URL for email. d=404 makes
// gravatar answer 404 instead of a default image when none exists.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return gravatarURL + hex.EncodeToString(sum[:]) + "?d=404&s=" + strconv.Itoa(photoAvatarSize)
}

func (r *PhotoResolver) gravatar(ctx context.Context, q PhotoQuery) (string, bool, error) {
	if !strings.Contains(q.Email, "@") {
		return "", false, nil
	}
	u := GravatarURL(q.Email)
	ok, err := imageExists(ctx, r.deps, r.client, u)
	return u, ok && err == nil, err
}

type facesResponse struct {
	Faces []struct {
		URLs []map[string]string `json:"urls"`
	} `json:"faces"`
}

// largest returns the biggest rendition of each face.
func (f facesResponse) largest() []string {
	var out []string
	for _, face := range f.Faces {
		best, bestSize := "", -1
		for _, u := range face.URLs {
			for size, link := range u {
				n, err := strconv.Atoi(size)
				if err != nil || link == "" {
					continue
				}
				if n > bestSize {
					best, bestSize = link, n
				}
			}
		}
		if best != "" {
			out = append(out, best)
		}
	}
	return out
}

func (r *PhotoResolver) fetchFaces(ctx context.Context, n int) ([]string, error) {
	var resp facesResponse
	err := r.deps.call(ctx, serviceGeneratedPhotos, func(ctx context.Context) error {
		resp = facesResponse{}
		return getJSON(ctx, r.client, generatedPhotosURL,
			map[string]string{"per_page": strconv.Itoa(n), "order_by": "random"},
			map[string]string{"Authorization": "API-Key " + r.apiKey},
			&resp, "generated.photos faces")
	})
	if err != nil {
		return nil, err
	}
	return resp.largest(), nil
}

// fromPool hands out pre-fetched headshots round-robin. The pool is
// refreshed after headshotPoolTTL, and a failed load is retried after
// headshotPoolRetry.
func (r *PhotoResolver) fromPool(ctx context.Context, _ PhotoQuery) (string, bool, error) {
	if r.apiKey == "" {
		return "", false, nil
	}
	pool, err := r.headshots(ctx)
	if err != nil {
		return "", false, err
	}
	if len(pool) == 0 {
		return "", false, nil
	}
	i := r.next.Add(1) - 1
	return pool[i%uint64(len(pool))], true, nil
}

func (r *PhotoResolver) headshots(ctx context.Context) ([]string, error) {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()

	now := r.now()
	if !r.poolLoaded.IsZero() && now.Sub(r.poolLoaded) < headshotPoolTTL {
		return r.pool, nil
	}
	if !r.poolFailed.IsZero() && now.Sub(r.poolFailed) < headshotPoolRetry {
		return r.pool, nil
	}

	// The pool outlives the job that happens to load it.
	pool, err := r.fetchFaces(context.WithoutCancel(ctx), r.poolSize)
	if err != nil {
		r.poolFailed = now
		if len(r.pool) > 0 {
			r.deps.Logger.Warn("headshot pool refresh failed, keeping old pool", "error", err)
			return r.pool, nil
		}
		return nil, err
	}
	r.pool, r.poolLoaded, r.poolFailed = pool, now, time.Time{}
	r.deps.Logger.Debug("headshot pool loaded", "size", len(pool))
	return pool, nil
}

func (r *PhotoResolver) singleHeadshot(ctx context.Context, _ PhotoQuery) (string, bool, error) {
	if r.apiKey == "" {
		return "", false, nil
	}
	faces, err := r.fetchFaces(ctx, 1)
	if err != nil || len(faces) == 0 {
		return "", false, err
	}
	return faces[0], true, nil
}

func (r *PhotoResolver) randomFace(ctx context.Context, _ PhotoQuery) (string, bool, error) {
	ok, err := imageExists(ctx, r.deps, r.client, randomFaceURL)
	return randomFaceURL, ok && err == nil, err
}

func avatarPhoto(_ context.Context, q PhotoQuery) (string, bool, error) {
	return company.AvatarURL(q.Name, photoAvatarSize), true, nil
}
