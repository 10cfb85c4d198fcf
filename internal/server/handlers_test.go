package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentiment-api/config"
	"github.com/spacesedan/sentiment-api/internal/analysis"
	"github.com/spacesedan/sentiment-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClassifier struct {
	classifyFn func(ctx context.Context, text string) ([]models.Prediction, error)
}

func (m *mockClassifier) Classify(ctx context.Context, text string) ([]models.Prediction, error) {
	return m.classifyFn(ctx, text)
}

// keywordClassifier mimics a two-label model: deterministic and safe for
// concurrent use.
func keywordClassifier() *mockClassifier {
	return &mockClassifier{classifyFn: func(_ context.Context, text string) ([]models.Prediction, error) {
		if strings.Contains(strings.ToLower(text), "terrible") {
			return []models.Prediction{{Label: "NEGATIVE", Score: 0.9995}, {Label: "POSITIVE", Score: 0.0005}}, nil
		}
		return []models.Prediction{{Label: "POSITIVE", Score: 0.9998}, {Label: "NEGATIVE", Score: 0.0002}}, nil
	}}
}

func newTestServer(t *testing.T, classifier *mockClassifier) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:             "0",
		CORSAllowOrigins: []string{"*"},
		ReadyTimeout:     time.Second,
	}
	registry := prometheus.NewRegistry()
	return NewServer(cfg, analysis.NewService(classifier, nil), classifier, registry)
}

func doRequest(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeAnalyzeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.AnalyzeResponse {
	t.Helper()
	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleAnalyze_Positive(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "I love this!"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAnalyzeResponse(t, rec)
	assert.Equal(t, "positive", resp.Sentiment)
	assert.InDelta(t, 1.0, resp.Confidence, 0.01)
}

func TestHandleAnalyze_Negative(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "This is terrible."}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAnalyzeResponse(t, rec)
	assert.Equal(t, "negative", resp.Sentiment)
	assert.InDelta(t, 1.0, resp.Confidence, 0.01)
}

func TestHandleAnalyze_NoText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty string", `{"text": ""}`},
		{"whitespace only", `{"text": "   "}`},
		{"tabs and newlines", `{"text": "\t\n "}`},
		{"missing key", `{}`},
		{"null text", `{"text": null}`},
		{"non-string text", `{"text": 123}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			srv := newTestServer(t, &mockClassifier{classifyFn: func(context.Context, string) ([]models.Prediction, error) {
				called = true
				return nil, nil
			}})

			rec := doRequest(t, srv, http.MethodPost, "/analyze", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error": "No text provided"}`, rec.Body.String())
			assert.False(t, called, "classifier must not be called for blank input")
		})
	}
}

func TestHandleAnalyze_MalformedJSON(t *testing.T) {
	bodies := []string{
		`{"text": `,
		``,
		`[1, 2]`,
		`not json`,
		`null`,
		`"I love this!"`,
		`{"text": "I love this!"} trailing`,
		`{"text": "I love this!"}}`,
		`{"text": "I love this!"} {"text": "again"}`,
	}
	for _, body := range bodies {
		srv := newTestServer(t, keywordClassifier())

		rec := doRequest(t, srv, http.MethodPost, "/analyze", body, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"error": "Invalid JSON body"}`, rec.Body.String())
	}
}

func TestHandleAnalyze_ClassifierError(t *testing.T) {
	calls := 0
	srv := newTestServer(t, &mockClassifier{classifyFn: func(context.Context, string) ([]models.Prediction, error) {
		calls++
		return nil, errors.New("onnx runtime exploded")
	}})

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "hello"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Sentiment analysis failed"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "onnx")
	assert.Equal(t, 1, calls, "a failed inference is not retried by the handler")
}

func TestHandleAnalyze_EmptyPredictions(t *testing.T) {
	srv := newTestServer(t, &mockClassifier{classifyFn: func(context.Context, string) ([]models.Prediction, error) {
		return nil, nil
	}})

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "hello"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Sentiment analysis failed"}`, rec.Body.String())
}

func TestHandleAnalyze_PanicRecovered(t *testing.T) {
	srv := newTestServer(t, &mockClassifier{classifyFn: func(context.Context, string) ([]models.Prediction, error) {
		panic("boom")
	}})

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "hello"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
}

func TestHandleAnalyze_PassesUntrimmedText(t *testing.T) {
	var got string
	srv := newTestServer(t, &mockClassifier{classifyFn: func(_ context.Context, text string) ([]models.Prediction, error) {
		got = text
		return []models.Prediction{{Label: "Neutral", Score: 0.6}}, nil
	}})

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "  fine  "}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "  fine  ", got)
	assert.JSONEq(t, `{"sentiment": "neutral", "confidence": 0.6}`, rec.Body.String())
}

func TestHandleAnalyze_Idempotent(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	first := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "I love this!"}`, nil)
	second := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "I love this!"}`, nil)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestHandleAnalyze_ConcurrentRequests(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	var wg sync.WaitGroup
	codes := make([]int, 32)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := `{"text": "I love this!"}`
			if i%2 == 1 {
				body = `{"text": "This is terrible."}`
			}
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
}

func TestHandleAnalyze_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodGet, "/analyze", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error": "Method Not Allowed"}`, rec.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodOptions, "/analyze", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Content-Type",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "I love this!"}`, map[string]string{
		"Origin": "https://some-other-site.example",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth_Liveness(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodGet, "/health/live", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestHealth_Readiness(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth_ReadinessUnavailable(t *testing.T) {
	srv := newTestServer(t, &mockClassifier{classifyFn: func(context.Context, string) ([]models.Prediction, error) {
		return nil, errors.New("model not loaded")
	}})

	rec := doRequest(t, srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestMetrics_Exposed(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	_ = doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "I love this!"}`, nil)
	rec := doRequest(t, srv, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sentiment_api_http_requests_total{method="POST",route="/analyze",status_code="200"} 1`)
}

func TestHandleAnalyze_TrailingWhitespaceAccepted(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodPost, "/analyze", "  {\"text\": \"I love this!\"}\n\t ", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDecodeAnalyzeRequest(t *testing.T) {
	req, err := decodeAnalyzeRequest(strings.NewReader(`{"text": "fine"}`))
	require.NoError(t, err)
	assert.Equal(t, models.RequestText("fine"), req.Text)

	_, err = decodeAnalyzeRequest(strings.NewReader(`{"text": "a"} {"text": "b"}`))
	assert.ErrorIs(t, err, errTrailingData)

	_, err = decodeAnalyzeRequest(strings.NewReader(`null`))
	assert.ErrorIs(t, err, errNotObject)
}

func TestHandleAnalyze_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	body := `{"text": "` + strings.Repeat("a", 2<<20) + `"}`
	rec := doRequest(t, srv, http.MethodPost, "/analyze", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetrics_RecordsErrorStatus(t *testing.T) {
	srv := newTestServer(t, &mockClassifier{classifyFn: func(context.Context, string) ([]models.Prediction, error) {
		return nil, errors.New("inference failed")
	}})

	failed := doRequest(t, srv, http.MethodPost, "/analyze", `{"text": "hello"}`, nil)
	require.Equal(t, http.StatusInternalServerError, failed.Code)
	invalid := doRequest(t, srv, http.MethodPost, "/analyze", `not json`, nil)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "", nil)
	body := rec.Body.String()

	assert.Contains(t, body, `sentiment_api_http_requests_total{method="POST",route="/analyze",status_code="500"} 1`)
	assert.Contains(t, body, `sentiment_api_http_requests_total{method="POST",route="/analyze",status_code="400"} 1`)
	assert.NotContains(t, body, `status_code="200"`)
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, keywordClassifier())

	rec := doRequest(t, srv, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Not Found"}`, rec.Body.String())
}
