package model

// FetchRequest describes one outbound GET
type FetchRequest struct {
	URL       string
	Accept    string
	UserAgent string            // overrides the fetcher default when set
	Headers   map[string]string // extra headers
	MaxBytes  int64             // overrides the fetcher body limit when > 0
}

// FetchMeta contains HTTP metadata from an upstream response
type FetchMeta struct {
	StatusCode int `json:"status_code"`
}

// FetchResponse is an upstream response with its body fully read
type FetchResponse struct {
	Body []byte
	Meta FetchMeta
}

// OK reports a 2xx status
func (r *FetchResponse) OK() bool {
	return r != nil && r.Meta.StatusCode >= 200 && r.Meta.StatusCode < 300
}

// Text returns the body as a string
func (r *FetchResponse) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}
