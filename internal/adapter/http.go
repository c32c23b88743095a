package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/amishk599/jobdeck/internal/model"
)

const userAgent = "jobdeck/1.0 (+https://github.com/amishk599/jobdeck)"

// newRequest builds a resty request on client. resty sets a default
// transport on clients without one, so those are copied first.
func newRequest(ctx context.Context, client *http.Client) *resty.Request {
	if client == nil {
		client = http.DefaultClient
	}
	if client.Transport == nil {
		hc := *client
		hc.Transport = http.DefaultTransport.(*http.Transport).Clone()
		client = &hc
	}
	return resty.NewWithClient(client).R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
}

// fetchJSON performs one request and decodes a 200 JSON response into out.
// Non-200 responses become *model.HTTPError so the retry layer can inspect
// them. what prefixes every error, e.g. "greenhouse fetch for acme".
func fetchJSON(ctx context.Context, client *http.Client, method, url string, body any, headers map[string]string, out any, what string) error {
	req := newRequest(ctx, client)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	req.SetHeaders(headers)

	resp, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode(),
			RetryAfter: model.ParseRetryAfter(resp.Header().Get("Retry-After")),
			Err:        fmt.Errorf("%s: unexpected status %d", what, resp.StatusCode()),
		}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: decode: %w", what, err)
	}
	return nil
}
