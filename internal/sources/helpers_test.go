package sources

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/estlookup/internal/model"
)

type stubResponse struct {
	status int
	body   string
	err    error
}

// stubFetcher answers by exact URL and records every request in order
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	calls     []model.FetchRequest
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{responses: make(map[string]stubResponse)}
}

func (f *stubFetcher) on(url string, status int, body string) *stubFetcher {
	f.responses[url] = stubResponse{status: status, body: body}
	return f
}

func (f *stubFetcher) fail(url string, err error) *stubFetcher {
	f.responses[url] = stubResponse{err: err}
	return f
}

func (f *stubFetcher) Fetch(ctx context.Context, req model.FetchRequest) (*model.FetchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	r, ok := f.responses[req.URL]
	f.mu.Unlock()

	if !ok {
		r = stubResponse{status: 404, body: "not found"}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &model.FetchResponse{
		Body: []byte(r.body),
		Meta: model.FetchMeta{StatusCode: r.status},
	}, nil
}

func (f *stubFetcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.URL
	}
	return out
}

var errConnReset = eris.New("connection reset by peer")

func strPtr(s string) *string { return &s }
