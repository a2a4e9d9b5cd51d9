package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteErrorFormattingAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WrapRetryable(cause, CategoryNetwork, SeverityWarning, "backend request failed")

	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsRetryable(err))
}

func TestCodeClassification(t *testing.T) {
	err := UnresolvedHost("unknown.example.com")
	assert.True(t, IsCode(err, CodeUnresolvedHost))
	assert.True(t, IsCategory(err, CategoryTenant))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, "unknown.example.com", err.Context["host"])

	assert.Equal(t, ErrorCode(""), GetCode(stderrors.New("plain")))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestRetrySemanticsByCode(t *testing.T) {
	assert.True(t, IsRetryable(Upstream5xx("/profile", 503)))
	assert.True(t, IsRetryable(UpstreamTimeout("/profile", stderrors.New("deadline exceeded"))))
	assert.False(t, IsRetryable(Upstream4xx("/profile", 404)))
	assert.False(t, IsRetryable(MissingProfile("b-42")))
}

func TestHTTPAdapterStatusCodes(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unresolved host", UnresolvedHost("x.example.com"), http.StatusNotFound},
		{"missing profile", MissingProfile("b-42"), http.StatusBadGateway},
		{"upstream 5xx", Upstream5xx("/services", 502), http.StatusBadGateway},
		{"validation", ValidationFailed("limit", "negative"), http.StatusBadRequest},
		{"store", StoreError("put", stderrors.New("disk full")), http.StatusInternalServerError},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, a.StatusCodeFor(c.err), c.name)
	}
}

func TestHTTPAdapterWritesJSONPayload(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil)

	a.WriteErrorResponse(rec, req, UnresolvedHost("nowhere.example.com"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), string(CodeUnresolvedHost))
	assert.Contains(t, rec.Body.String(), "nowhere.example.com")
}

func TestFormatErrorResponseFallsBackToCategory(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	resp := a.FormatErrorResponse(ConfigRequired("backend.base_url"))
	assert.Equal(t, string(CategoryConfig), resp.Code)
	assert.Equal(t, "backend.base_url", resp.Details["field"])
}
