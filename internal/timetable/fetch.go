package timetable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	appLog "socialtt/internal/log"
)

// ErrTransport marks failures fetching the export text: request errors and
// non-success statuses. These surface verbatim to the caller; the core
// never retries.
var ErrTransport = errors.New("timetable fetch failed")

// Fetcher performs the single-shot HTTP GET for a user-supplied export URL.
// Bodies are cached briefly so a refresh burst does not hammer the
// institution's endpoint.
type Fetcher struct {
	client *http.Client
	bodies *cache.Cache
}

// NewFetcher creates a Fetcher whose successful responses live in cache for
// ttl.
func NewFetcher(ttl time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		bodies: cache.New(ttl, 2*ttl),
	}
}

// Fetch returns the export text at url. Cancellation arrives through ctx;
// there is no retry and no caching of failures.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty URL", ErrTransport)
	}

	if body, ok := f.bodies.Get(url); ok {
		return body.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	appLog.Info("fetching timetable export", "url", redactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrTransport, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	text := string(body)
	f.bodies.SetDefault(url, text)
	return text, nil
}

// redactURL trims an export URL to its host for logging. Institutional
// links embed per-student tokens in the path.
func redactURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "...(redacted)"
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host + "/...(redacted)"
}
