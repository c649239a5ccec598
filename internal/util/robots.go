package util

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/cache"
)

// robotsTTL bounds how long a host's robots.txt is trusted
const robotsTTL = 6 * time.Hour

// RobotsChecker checks robots.txt before scraping a search page
type RobotsChecker struct {
	cache      cache.Cache[*robotstxt.RobotsData]
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker that fetches robots.txt with client
func NewRobotsChecker(userAgent string, client *http.Client) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		cache:      cache.NewMemoryCache[*robotstxt.RobotsData](robotsTTL, 30*time.Minute),
		httpClient: client,
		userAgent:  userAgent,
	}
}

// Allowed reports whether rawURL may be fetched. An unreachable or
// unparsable robots.txt allows the fetch.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, eris.Wrap(err, "robots: parse URL")
	}

	data, err := r.robotsFor(ctx, parsed)
	if err != nil {
		zap.L().Debug("robots.txt unavailable, allowing",
			zap.String("host", parsed.Host),
			zap.Error(err),
		)
		return true, nil
	}

	return data.TestAgent(parsed.Path, NormalizeUserAgent(r.userAgent)), nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	if data, ok := r.cache.Get(target.Host); ok {
		return data, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "robots: create request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "robots: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, eris.Wrap(err, "robots: parse")
	}

	_ = r.cache.Set(target.Host, data, 0)
	return data, nil
}

// NormalizeUserAgent reduces a user agent to its product token for matching
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
