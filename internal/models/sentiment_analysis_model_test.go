package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRequest_TextDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want RequestText
	}{
		{"string", `{"text": "I love this!"}`, "I love this!"},
		{"missing", `{}`, ""},
		{"null", `{"text": null}`, ""},
		{"number", `{"text": 42}`, ""},
		{"object", `{"text": {"nested": "x"}}`, ""},
		{"array", `{"text": ["a", "b"]}`, ""},
		{"escaped", `{"text": "café \"ok\""}`, `café "ok"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AnalyzeRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Text)
		})
	}
}

func TestAnalyzeResponse_JSONShape(t *testing.T) {
	b, err := json.Marshal(AnalyzeResponse{Sentiment: "positive", Confidence: 0.75})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sentiment":"positive","confidence":0.75}`, string(b))
}
