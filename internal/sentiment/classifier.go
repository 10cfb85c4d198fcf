package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spacesedan/sentiment-api/config"
	"github.com/spacesedan/sentiment-api/internal/clients"
	"github.com/spacesedan/sentiment-api/internal/models"
)

var ErrUnknownBackend = errors.New("unknown classifier backend")

// Classifier maps text to predictions ordered by descending score.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]models.Prediction, error)
}

// Closer is implemented by classifiers holding resources such as an
// inference session.
type Closer interface {
	Close() error
}

// New builds the classifier selected by cfg. It is meant to be called once
// at startup; the result is shared by all requests.
func New(ctx context.Context, cfg *config.Config) (Classifier, error) {
	var (
		c   Classifier
		err error
	)

	switch cfg.ClassifierBackend {
	case config.BackendHugot:
		c, err = NewHugotClassifier(ctx, cfg.ModelName, cfg.ModelDir)
	case config.BackendVader:
		c = NewVaderClassifier()
	case config.BackendHuggingFace:
		c = clients.NewHuggingFaceClient(ctx, clients.HuggingFaceOptions{
			Endpoint:   cfg.HFInferenceURL,
			Token:      cfg.HFAPIToken,
			Timeout:    cfg.HFTimeout,
			MaxRetries: cfg.HFMaxRetries,
		})
	case config.BackendOpenAI:
		c = clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.ClassifierBackend)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("[Sentiment] Classifier ready",
		slog.String("backend", cfg.ClassifierBackend),
		slog.Bool("serialized", cfg.SerializeInference))

	if cfg.SerializeInference {
		return Serialize(c), nil
	}
	return c, nil
}

// Close releases c's resources if it holds any.
func Close(c Classifier) error {
	if closer, ok := c.(Closer); ok {
		return closer.Close()
	}
	return nil
}

// Serialize wraps c so that at most one Classify call runs at a time.
func Serialize(c Classifier) Classifier {
	return &serialized{inner: c}
}

type serialized struct {
	mu    sync.Mutex
	inner Classifier
}

func (s *serialized) Classify(ctx context.Context, text string) ([]models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Classify(ctx, text)
}

func (s *serialized) Close() error {
	return Close(s.inner)
}
