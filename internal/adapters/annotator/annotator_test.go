package annotator

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.RouteAnnotator = (*GeminiAnnotator)(nil)
	_ ports.RouteAnnotator = StaticAnnotator{}
)

var summary = domain.RouteSummary{
	VehicleID:       "v1",
	TotalDistanceKm: 12.345,
	StopAddresses:   []string{"Depot", "Rua A, 1", "Rua B, 2", "Depot"},
}

func newTestGemini(t *testing.T, h http.HandlerFunc) *GeminiAnnotator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGeminiAnnotator(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return g
}

// generateContentBody is the subset of the request body the tests inspect.
type generateContentBody struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(summary)
	assert.Contains(t, p, "Vehicle: v1")
	assert.Contains(t, p, "Total distance: 12.35 km")
	assert.Contains(t, p, "Depot -> Rua A, 1 -> Rua B, 2 -> Depot")
}

func TestGeminiAnnotator_Success(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1beta/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body generateContentBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		require.Len(t, body.Contents[0].Parts, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "Vehicle: v1")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Leave early. "},{"text":"Avoid the bridge."}]}}]}`))
	})

	text, err := g.Annotate(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "Leave early. Avoid the bridge.", text)
}

func TestGeminiAnnotator_HTTPError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := g.Annotate(context.Background(), summary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini annotate")
}

func TestGeminiAnnotator_CustomModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash-lite:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGeminiAnnotator(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		Model:      "gemini-2.0-flash-lite",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	text, err := g.Annotate(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestGeminiAnnotator_EmptyCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Annotate(context.Background(), summary)
	assert.Error(t, err)
}

func TestNewGeminiAnnotator_RequiresKey(t *testing.T) {
	_, err := NewGeminiAnnotator(context.Background(), GeminiConfig{APIKey: "  "})
	assert.Error(t, err)
}

func TestStaticAnnotator(t *testing.T) {
	text, err := StaticAnnotator{}.Annotate(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, DefaultStaticText, text)

	text, err = StaticAnnotator{Text: "fixed"}.Annotate(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "fixed", text)
}
