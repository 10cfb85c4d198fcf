package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiment-api/internal/analysis"
	"github.com/spacesedan/sentiment-api/internal/models"
	"github.com/spacesedan/sentiment-api/internal/monitoring"
)

var (
	errTrailingData = errors.New("unexpected data after JSON body")
	errNotObject    = errors.New("JSON body is not an object")
)

const (
	msgNoText         = "No text provided"
	msgInvalidJSON    = "Invalid JSON body"
	msgAnalysisFailed = "Sentiment analysis failed"
	msgInternal       = "Internal server error"
)

func (s *Server) handleAnalyze(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := decodeAnalyzeRequest(c.Request().Body)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he // body limit exceeded
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidJSON).SetInternal(err)
	}

	resp, err := s.analyzer.Analyze(ctx, string(req.Text))
	if errors.Is(err, analysis.ErrNoText) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgNoText})
	}
	if err != nil {
		slog.ErrorContext(ctx, "[Server] Sentiment analysis failed",
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, msgAnalysisFailed).SetInternal(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// decodeAnalyzeRequest requires the body to be exactly one JSON object.
func decodeAnalyzeRequest(body io.Reader) (models.AnalyzeRequest, error) {
	var req models.AnalyzeRequest

	dec := json.NewDecoder(body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return req, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return req, err
	}
	if !bytes.HasPrefix(raw, []byte("{")) {
		return req, errNotObject
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	if err := monitoring.CheckClassifierHealth(c.Request().Context(), s.classifier, s.config.ReadyTimeout); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError renders every error as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := msgInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "[Server] Request failed",
			slog.Int("status", status),
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, models.ErrorResponse{Error: message})
	}
	if writeErr != nil {
		slog.ErrorContext(c.Request().Context(), "[Server] Failed to write error response",
			slog.String("error", writeErr.Error()))
	}
}
