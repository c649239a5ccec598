package sources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/estlookup/internal/model"
)

var structuredTemplates = []string{
	"http://api.test/v1?establishment_number={id}",
	"http://api.test/v1?EstablishmentNumber={id}",
	"http://api.test/mpi?establishment_number={id}",
}

func TestStructuredAPISource_LastCandidateWins(t *testing.T) {
	f := newStubFetcher().
		on("http://api.test/v1?establishment_number=M969", 500, "oops").
		on("http://api.test/v1?EstablishmentNumber=M969", 200, "<html>maintenance</html>").
		on("http://api.test/mpi?establishment_number=M969", 200, `{"value":[{"name":"Acme"}]}`)
	src := NewStructuredAPISource(f, structuredTemplates, "ua")

	res, err := src.Resolve(context.Background(), model.LookupRequest{Prefix: "m", EstablishmentCode: "969"})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "http://api.test/mpi?establishment_number=M969", res.URL)
	assert.Len(t, f.calls, 3)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true,"data":{"value":[{"name":"Acme"}]},"url":"http://api.test/mpi?establishment_number=M969"}`, string(raw))
}

func TestStructuredAPISource_StopsAtFirstSuccess(t *testing.T) {
	f := newStubFetcher().on("http://api.test/v1?establishment_number=M969", 200, `{"value":[]}`)
	src := NewStructuredAPISource(f, structuredTemplates, "ua")

	res, err := src.Resolve(context.Background(), model.LookupRequest{Prefix: "M", EstablishmentCode: "969"})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Len(t, f.calls, 1)
	assert.Equal(t, "application/json", f.calls[0].Accept)
}

func TestStructuredAPISource_ErrorsAreSwallowed(t *testing.T) {
	f := newStubFetcher().
		fail("http://api.test/v1?establishment_number=M969", errConnReset).
		on("http://api.test/v1?EstablishmentNumber=M969", 200, `{"broken":`).
		on("http://api.test/mpi?establishment_number=M969", 200, `{"ok":true}`)
	src := NewStructuredAPISource(f, structuredTemplates, "ua")

	res, err := src.Resolve(context.Background(), model.LookupRequest{Prefix: "M", EstablishmentCode: "969"})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "http://api.test/mpi?establishment_number=M969", res.URL)
}

func TestStructuredAPISource_NotFoundListsTried(t *testing.T) {
	f := newStubFetcher()
	src := NewStructuredAPISource(f, structuredTemplates, "ua")

	res, err := src.Resolve(context.Background(), model.LookupRequest{Prefix: "M", EstablishmentCode: "969"})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, f.urls(), res.Diagnostics["tried"])
	assert.Len(t, f.calls, 3)
}

func TestStructuredAPISource_CancelledContext(t *testing.T) {
	f := newStubFetcher()
	src := NewStructuredAPISource(f, structuredTemplates, "ua")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := src.Resolve(ctx, model.LookupRequest{Prefix: "M", EstablishmentCode: "969"})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, f.calls)
}

func TestExpandTemplate(t *testing.T) {
	req := model.LookupRequest{Prefix: "m", EstablishmentCode: " 969 "}

	assert.Equal(t, "http://x/?id=M969&p=M&e=969", expandTemplate("http://x/?id={id}&p={prefix}&e={est}", req, ""))
	assert.Equal(t, "http://x/fr-35.360.003-ce.json", expandTemplate("http://x/{code}.json", req, "fr-35.360.003-ce"))
	assert.Equal(t, "http://x/a%2Fb.json", expandTemplate("http://x/{code}.json", req, "a/b"))
}
