package pipeline

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/util"
	"github.com/ppiankov/estlookup/internal/worker"
)

// Observer is notified after every upstream call; status is 0 on transport errors
type Observer func(host string, status int, elapsed time.Duration)

// Fetcher performs the single GET each candidate gets. It never retries and
// does not treat a non-2xx status as an error; callers decide.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	observer   Observer
}

// NewFetcher creates a Fetcher from the HTTP section of the configuration
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	transport := &http.Transport{
		Proxy:               util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return eris.New("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
}

// WithLimiter paces every call through l
func (f *Fetcher) WithLimiter(l *worker.Limiter) *Fetcher {
	f.limiter = l
	return f
}

// WithObserver registers a callback for upstream call metrics
func (f *Fetcher) WithObserver(o Observer) *Fetcher {
	f.observer = o
	return f
}

// Client exposes the underlying HTTP client for helpers that share its transport
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// Fetch issues one GET and reads the body up to the configured limit
func (f *Fetcher) Fetch(ctx context.Context, fr model.FetchRequest) (*model.FetchResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, fr.URL); err != nil {
			return nil, eris.Wrap(err, "fetch: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fr.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}

	ua := fr.UserAgent
	if ua == "" {
		ua = f.userAgent
	}
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if fr.Accept != "" {
		req.Header.Set("Accept", fr.Accept)
	}
	for k, v := range fr.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.observe(req.URL, 0, start)
		return nil, eris.Wrap(err, "fetch: do request")
	}
	defer func() { _ = resp.Body.Close() }()

	limit := f.maxBytes
	if fr.MaxBytes > 0 {
		limit = fr.MaxBytes
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	f.observe(req.URL, resp.StatusCode, start)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	zap.L().Debug("upstream response",
		zap.String("url", fr.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.FetchResponse{
		Body: body,
		Meta: model.FetchMeta{StatusCode: resp.StatusCode},
	}, nil
}

func (f *Fetcher) observe(u *url.URL, status int, start time.Time) {
	if f.observer != nil {
		f.observer(u.Host, status, time.Since(start))
	}
}
