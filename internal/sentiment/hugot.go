package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/sentiment-api/internal/models"
)

const hugotPipelineName = "sentimentAnalysisPipeline"

// HugotClassifier runs a Hugging Face text-classification model in process
// through onnxruntime. The onnxruntime shared library must be installed
// (hugot looks for /usr/lib/onnxruntime.so). Hugot pipelines can be run
// from multiple goroutines at once.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// NewHugotClassifier loads modelName from modelDir, downloading it from the
// Hugging Face hub first when it is not there yet.
func NewHugotClassifier(ctx context.Context, modelName, modelDir string) (*HugotClassifier, error) {
	modelPath, err := ensureModel(ctx, modelName, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      hugotPipelineName,
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("[HugotClassifier] Failed to destroy session",
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("failed to initialize sentiment pipeline: %w", err)
	}

	slog.Info("[HugotClassifier] Pipeline ready",
		slog.String("model", modelName),
		slog.String("path", modelPath))

	return &HugotClassifier{session: session, pipeline: pipeline}, nil
}

func ensureModel(ctx context.Context, modelName, modelDir string) (string, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		slog.Info("[HugotClassifier] Using existing model", slog.String("path", modelPath))
		return modelPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat model path: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	slog.Info("[HugotClassifier] Model not found, downloading...", slog.String("model", modelName))
	start := time.Now()
	downloaded, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", modelName, err)
	}
	slog.Info("[HugotClassifier] Model downloaded successfully",
		slog.String("path", downloaded),
		slog.Duration("elapsed", time.Since(start)))

	return downloaded, nil
}

func (h *HugotClassifier) Classify(ctx context.Context, text string) ([]models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := h.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("pipeline run failed: %w", err)
	}

	return toPredictions(output), nil
}

// toPredictions ranks the results for the single input text.
func toPredictions(output *pipelines.TextClassificationOutput) []models.Prediction {
	if output == nil || len(output.ClassificationOutputs) == 0 {
		return nil
	}

	results := output.ClassificationOutputs[0]
	predictions := make([]models.Prediction, 0, len(results))
	for _, r := range results {
		predictions = append(predictions, models.Prediction{
			Label: r.Label,
			Score: float64(r.Score),
		})
	}

	return models.RankPredictions(predictions)
}

func (h *HugotClassifier) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}
