// Package analysis turns raw request text into a sentiment response using
// the configured sentiment model.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/sentiment-api/internal/models"
	"github.com/spacesedan/sentiment-api/internal/monitoring"
)

var (
	ErrNoText        = errors.New("no text provided")
	ErrNoPredictions = errors.New("sentiment model returned no predictions")
)

type classifier interface {
	Classify(ctx context.Context, text string) ([]models.Prediction, error)
}

type Service struct {
	classifier classifier
	metrics    *monitoring.InferenceMetrics
}

// NewService returns a Service backed by c. metrics may be nil.
func NewService(c classifier, metrics *monitoring.InferenceMetrics) *Service {
	return &Service{classifier: c, metrics: metrics}
}

// Analyze classifies text and returns the top prediction with its label
// lower-cased. Any label the model produces is passed through.
func (s *Service) Analyze(ctx context.Context, text string) (models.AnalyzeResponse, error) {
	if strings.TrimSpace(text) == "" {
		return models.AnalyzeResponse{}, ErrNoText
	}

	start := time.Now()
	predictions, err := s.classifier.Classify(ctx, text)
	s.observeDuration(time.Since(start))
	if err != nil {
		s.recordFailure()
		return models.AnalyzeResponse{}, fmt.Errorf("sentiment classification failed: %w", err)
	}
	if len(predictions) == 0 {
		s.recordFailure()
		return models.AnalyzeResponse{}, ErrNoPredictions
	}

	top := predictions[0]
	resp := models.AnalyzeResponse{
		Sentiment:  strings.ToLower(top.Label),
		Confidence: top.Score,
	}

	if s.metrics != nil {
		s.metrics.Predictions.WithLabelValues(resp.Sentiment).Inc()
	}
	slog.DebugContext(ctx, "[Analysis] Text classified",
		slog.String("sentiment", resp.Sentiment),
		slog.Float64("confidence", resp.Confidence),
		slog.Int("text_length", len(text)),
		slog.Duration("elapsed", time.Since(start)))

	return resp, nil
}

func (s *Service) observeDuration(d time.Duration) {
	if s.metrics != nil {
		s.metrics.Duration.Observe(d.Seconds())
	}
}

func (s *Service) recordFailure() {
	if s.metrics != nil {
		s.metrics.Failures.Inc()
	}
}
