package models

import (
	"bytes"
	"encoding/json"
)

type AnalyzeRequest struct {
	Text RequestText `json:"text"`
}

// RequestText decodes any JSON value; anything other than a string becomes "".
type RequestText string

func (t *RequestText) UnmarshalJSON(data []byte) error {
	var s string
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	*t = RequestText(s)
	return nil
}

type AnalyzeResponse struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
