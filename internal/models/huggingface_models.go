package models

import "sort"

// Prediction is one ranked entry of a sentiment model's output.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RankPredictions sorts predictions in place by descending score, keeping
// the input order for ties.
func RankPredictions(predictions []Prediction) []Prediction {
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	return predictions
}

type InferenceRequest struct {
	Inputs string `json:"inputs"`
}
