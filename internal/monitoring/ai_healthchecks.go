package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/sentiment-api/internal/models"
)

const probeText = "health check"

var ErrEmptyProbe = errors.New("classifier returned no predictions")

// ClassifierProbe is satisfied by every sentiment backend.
type ClassifierProbe interface {
	Classify(ctx context.Context, text string) ([]models.Prediction, error)
}

// CheckClassifierHealth runs one probe classification bounded by timeout.
func CheckClassifierHealth(ctx context.Context, classifier ClassifierProbe, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	predictions, err := classifier.Classify(ctx, probeText)
	if err != nil {
		slog.WarnContext(ctx, "[HealthCheck] Classifier is unhealthy",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return fmt.Errorf("classifier probe failed: %w", err)
	}
	if len(predictions) == 0 {
		slog.WarnContext(ctx, "[HealthCheck] Classifier returned no predictions")
		return ErrEmptyProbe
	}

	return nil
}
