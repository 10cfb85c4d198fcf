package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spacesedan/sentiment-api/internal/models"
	"golang.org/x/oauth2"
)

var ErrUnexpectedResponse = errors.New("unexpected inference response")

type HuggingFaceOptions struct {
	Endpoint       string
	Token          string
	Timeout        time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
}

// HuggingFaceClient classifies text through a remote Hugging Face
// text-classification endpoint.
type HuggingFaceClient struct {
	Client         *http.Client
	endpoint       string
	maxRetries     uint64
	initialBackoff time.Duration
}

func NewHuggingFaceClient(ctx context.Context, opts HuggingFaceOptions) *HuggingFaceClient {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = INITIAL_BACKOFF
	}

	client := &http.Client{}
	if opts.Token != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	}
	client.Timeout = opts.Timeout

	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", opts.Endpoint),
		slog.Duration("timeout", opts.Timeout),
		slog.Bool("authenticated", opts.Token != ""))

	return &HuggingFaceClient{
		Client:         client,
		endpoint:       opts.Endpoint,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
	}
}

// newBackoff returns a fresh policy per request; go-retry backoffs count
// attempts internally and cannot be shared.
func (h *HuggingFaceClient) newBackoff() retry.Backoff {
	backoff := retry.NewExponential(h.initialBackoff)
	backoff = retry.WithCappedDuration(MAX_BACKOFF, backoff)
	return retry.WithMaxRetries(h.maxRetries, backoff)
}

func (h *HuggingFaceClient) Classify(ctx context.Context, text string) ([]models.Prediction, error) {
	start := time.Now()

	body, err := h.postJSON(ctx, models.InferenceRequest{Inputs: text})
	if err != nil {
		slog.ErrorContext(ctx, "[HuggingFaceClient] Sentiment Analysis request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, err
	}

	predictions, err := decodePredictions(body)
	if err != nil {
		slog.ErrorContext(ctx, "[HuggingFaceClient] Failed to unmarshal response",
			slog.String("error", err.Error()),
			getPreview(body),
			slog.Int("raw_response_length", len(body)))
		return nil, err
	}

	slog.DebugContext(ctx, "[HuggingFaceClient] Sentiment Analysis request successful",
		slog.Duration("elapsed", time.Since(start)))
	return predictions, nil
}

// decodePredictions accepts both the hosted API shape, one list per input,
// and a flat list of predictions.
func decodePredictions(body []byte) ([]models.Prediction, error) {
	var nested [][]models.Prediction
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return models.RankPredictions(nested[0]), nil
	}

	var flat []models.Prediction
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return models.RankPredictions(flat), nil
}

// helper function for posting data to the inference endpoint
func (h *HuggingFaceClient) postJSON(ctx context.Context, input interface{}) ([]byte, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	var respBody []byte
	attempt := 0
	err = retry.Do(ctx, h.newBackoff(), func(ctx context.Context) error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)

		resp, err := h.Client.Do(req)
		if err != nil {
			slog.WarnContext(ctx, "[HuggingFaceClient] Request failed, will retry",
				slog.Int("attempt", attempt),
				slog.String("error", errMsg(err, resp)))
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			slog.WarnContext(ctx, "[HuggingFaceClient] Request failed, will retry",
				slog.Int("attempt", attempt),
				slog.String("error", errMsg(nil, resp)))
			return retry.RetryableError(fmt.Errorf("inference endpoint returned status %d", resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode, preview(body))
		}

		respBody = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", h.endpoint, err)
	}

	return respBody, nil
}

func getPreview(respBody []byte) slog.Attr {
	return slog.String("raw_response", preview(respBody))
}

func preview(respBody []byte) string {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return raw
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
