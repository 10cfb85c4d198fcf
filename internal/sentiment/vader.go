package sentiment

import (
	"context"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/sentiment-api/internal/models"
)

const (
	vaderPositiveThreshold = 0.20
	vaderNegativeThreshold = -0.20
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// VaderClassifier scores text with the VADER lexicon. It keeps no
// per-call state and is safe for concurrent use.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and strips the markup, leaving
// plain words for the lexicon. Smartypants stays off so contractions keep
// their ASCII apostrophes.
func ConvertMarkdownToText(input string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{})
	output := blackfriday.Run([]byte(input),
		blackfriday.WithNoExtensions(),
		blackfriday.WithRenderer(renderer))
	plainText := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))
	plainText = RemoveLinks(plainText)

	return strings.Join(strings.Fields(plainText), " ")
}

func (v *VaderClassifier) Classify(ctx context.Context, text string) ([]models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	score := v.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound
	magnitude := math.Abs(score)

	var prediction models.Prediction
	switch {
	case score >= vaderPositiveThreshold:
		prediction = models.Prediction{Label: "positive", Score: magnitude}
	case score <= vaderNegativeThreshold:
		prediction = models.Prediction{Label: "negative", Score: magnitude}
	default:
		prediction = models.Prediction{Label: "neutral", Score: 1 - magnitude}
	}

	return []models.Prediction{prediction}, nil
}
