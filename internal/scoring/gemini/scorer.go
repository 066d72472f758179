package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/pkordes/nightspot/internal/domain"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const maxLogLength = 200

// Scorer asks a language model to rate one questionnaire answer.
type Scorer struct {
	generator contentGenerator
	log       *slog.Logger
}

// NewScorer returns a Scorer backed by generator.
func NewScorer(generator contentGenerator, log *slog.Logger) *Scorer {
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{generator: generator, log: log}
}

// Score returns the model's trait ratings for the answer. Traits the model
// omits or garbles score 0; values outside [0, 5] are clamped.
func (s *Scorer) Score(ctx context.Context, question, answer string) (domain.Traits, error) {
	prompt := buildPrompt(question, answer)

	s.log.DebugContext(ctx, "gemini score request", "prompt_length", utf8.RuneCountInString(prompt))

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return domain.Traits{}, fmt.Errorf("gemini.Scorer.Score: %w: %w", domain.ErrProviderUnavailable, err)
	}

	s.log.DebugContext(ctx, "gemini score response",
		"response_length", utf8.RuneCountInString(raw),
		"response_preview", truncate(raw, maxLogLength),
	)

	traits, err := parseResponse(raw)
	if err != nil {
		return domain.Traits{}, fmt.Errorf("gemini.Scorer.Score: %w", err)
	}
	return traits, nil
}

func buildPrompt(question, answer string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{QUESTION}}", strings.TrimSpace(question))
	return strings.ReplaceAll(prompt, "{{ANSWER}}", strings.TrimSpace(answer))
}

func parseResponse(raw string) (domain.Traits, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return domain.Traits{}, fmt.Errorf("parse gemini response: %w", err)
	}

	scores := make(map[string]float64, len(domain.TraitNames))
	for _, name := range domain.TraitNames {
		if v := coerceFloat(data[name]); !math.IsNaN(v) {
			scores[name] = v
		}
	}
	return domain.TraitsFromMap(scores), nil
}

// extractJSON strips Markdown code fences and any prose around the first
// JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
