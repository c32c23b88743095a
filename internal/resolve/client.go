package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/ratelimit"
)

const userAgent = "jobdeck/1.0 (+https://github.com/amishk599/jobdeck)"

// Limiter names used for outbound calls.
const (
	serviceClearbit        = "clearbit"
	serviceHunter          = "hunter"
	serviceProxycurl       = "proxycurl"
	serviceGeneratedPhotos = "generated_photos"
	serviceVerify          = "verify"
)

// Deps are the collaborators shared by every resolver.
type Deps struct {
	HTTP          *http.Client
	VerifyTimeout time.Duration
	Limiters      *ratelimit.Registry
	Logger        *slog.Logger
}

// httpClient returns d.HTTP with a transport of its own. resty installs a
// default transport on clients without one, which must not happen on a
// client other goroutines are using.
func (d Deps) httpClient() *http.Client {
	if d.HTTP == nil {
		return &http.Client{
			Timeout:   15 * time.Second,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	if d.HTTP.Transport != nil {
		return d.HTTP
	}
	hc := *d.HTTP
	hc.Transport = http.DefaultTransport.(*http.Transport).Clone()
	return &hc
}

func (d Deps) client() *resty.Client {
	return newRestyClient(d.httpClient())
}

func newRestyClient(hc *http.Client) *resty.Client {
	return resty.NewWithClient(hc).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
}

func (d Deps) verifyTimeout() time.Duration {
	if d.VerifyTimeout <= 0 {
		return 4 * time.Second
	}
	return d.VerifyTimeout
}

// call runs fn under the named service's limiter.
func (d Deps) call(ctx context.Context, service string, fn func(context.Context) error) error {
	if d.Limiters == nil {
		return fn(ctx)
	}
	return d.Limiters.WithRetry(ctx, service, fn)
}

// statusError converts a non-2xx response into *model.HTTPError.
func statusError(resp *resty.Response, what string) error {
	return &model.HTTPError{
		StatusCode: resp.StatusCode(),
		RetryAfter: model.ParseRetryAfter(resp.Header().Get("Retry-After")),
		Err:        fmt.Errorf("%s: unexpected status %d", what, resp.StatusCode()),
	}
}

// getJSON performs a GET and decodes a 200 response into out.
func getJSON(ctx context.Context, c *resty.Client, url string, query map[string]string, headers map[string]string, out any, what string) error {
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeaders(headers).
		SetResult(out).
		ForceContentType("application/json").
		Get(url)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return statusError(resp, what)
	}
	return nil
}

// imageExists sends a HEAD request and reports whether url serves an image.
func imageExists(ctx context.Context, d Deps, c *resty.Client, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.verifyTimeout())
	defer cancel()

	var ok bool
	err := d.call(ctx, serviceVerify, func(ctx context.Context) error {
		resp, err := c.R().
			SetContext(ctx).
			SetHeader("Accept", "image/*").
			Head(url)
		if err != nil {
			return fmt.Errorf("verify %s: %w", url, err)
		}
		if resp.StatusCode() == http.StatusTooManyRequests {
			return statusError(resp, "verify "+url)
		}
		ok = resp.StatusCode() == http.StatusOK && isImage(resp.Header().Get("Content-Type"))
		return nil
	})
	return ok, err
}

func isImage(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}
