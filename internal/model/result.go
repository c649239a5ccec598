package model

import "encoding/json"

// Diagnostics carries strategy-specific context for not-found results.
// Keys are not a stable contract; they exist to spot upstream drift.
type Diagnostics map[string]interface{}

// PackagerMatch is the name/city pair returned by the packager-code source
type PackagerMatch struct {
	Name string
	City *string
}

// Result is the tagged outcome of one resolution. Use the constructors so
// that found=true always carries a payload.
type Result struct {
	Found       bool
	Data        interface{}    // *EstablishmentRecord or json.RawMessage
	URL         string         // winning candidate, structured-api only
	Packager    *PackagerMatch // packager-code only
	Diagnostics Diagnostics
	Error       string
}

// Found wraps a resolved payload
func Found(data interface{}) Result {
	return Result{Found: true, Data: data}
}

// FoundAt wraps a payload together with the candidate URL that produced it
func FoundAt(data interface{}, url string) Result {
	return Result{Found: true, Data: data, URL: url}
}

// FoundPackager wraps a packager-code match
func FoundPackager(name string, city *string) Result {
	return Result{Found: true, Packager: &PackagerMatch{Name: name, City: city}}
}

// NotFound builds a not-found result with optional diagnostics
func NotFound(diag Diagnostics) Result {
	return Result{Found: false, Diagnostics: diag}
}

// Failed converts an error into a not-found result carrying its message
func Failed(err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{Found: false, Error: msg}
}

// Valid reports whether the result honors the found/data pairing
func (r Result) Valid() bool {
	if !r.Found {
		return true
	}
	return r.Data != nil || r.Packager != nil
}

// MarshalJSON flattens the result into the wire shape callers expect:
// {found, data?, url?, name?, city?, <diagnostics>..., error?}
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 4+len(r.Diagnostics))

	if !r.Found {
		for k, v := range r.Diagnostics {
			out[k] = v
		}
	}

	out["found"] = r.Found
	if r.Found && r.Data != nil {
		out["data"] = r.Data
	}
	if r.Found && r.URL != "" {
		out["url"] = r.URL
	}
	if r.Found && r.Packager != nil {
		out["name"] = r.Packager.Name
		out["city"] = r.Packager.City
	}
	if r.Error != "" {
		out["error"] = r.Error
	}

	return json.Marshal(out)
}
