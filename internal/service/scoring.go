package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/metrics"
)

// Answer is one questionnaire response.
type Answer struct {
	Question string
	Answer   string
}

// Scorer turns a single questionnaire answer into trait scores.
// Implementations should return values in [domain.TraitMin, domain.TraitMax].
type Scorer interface {
	Score(ctx context.Context, question, answer string) (domain.Traits, error)
}

// NeutralScorer scores every answer as all zeros. It stands in when no
// language-model backend is configured.
type NeutralScorer struct{}

// Score returns zero traits.
func (NeutralScorer) Score(context.Context, string, string) (domain.Traits, error) {
	return domain.Traits{}, nil
}

// ScoringService averages per-answer scores into one trait profile.
type ScoringService struct {
	scorer  Scorer
	log     *slog.Logger
	metrics *metrics.Matching
}

// NewScoringService constructs a ScoringService around the given Scorer.
func NewScoringService(scorer Scorer, log *slog.Logger, m *metrics.Matching) *ScoringService {
	if log == nil {
		log = slog.Default()
	}
	return &ScoringService{scorer: scorer, log: log, metrics: m}
}

// ScoreAnswers scores each answer and returns the per-trait mean.
// An answer the scorer fails on counts as all zeros rather than failing the
// whole questionnaire. Returns domain.ErrValidation if answers is empty or
// any answer is blank.
func (s *ScoringService) ScoreAnswers(ctx context.Context, answers []Answer) (domain.Traits, error) {
	if len(answers) == 0 {
		return domain.Traits{}, fmt.Errorf("%w: at least one answer is required", domain.ErrValidation)
	}
	for i, a := range answers {
		if strings.TrimSpace(a.Answer) == "" {
			return domain.Traits{}, fmt.Errorf("%w: answer %d is empty", domain.ErrValidation, i+1)
		}
	}

	var sum [4]float64
	for _, a := range answers {
		t, err := s.scorer.Score(ctx, strings.TrimSpace(a.Question), strings.TrimSpace(a.Answer))
		if err != nil {
			if ctx.Err() != nil {
				return domain.Traits{}, fmt.Errorf("service.ScoringService.ScoreAnswers: %w", ctx.Err())
			}
			s.log.WarnContext(ctx, "scoring answer failed, counting as zero", "error", err)
			s.metrics.ScorerError()
			continue
		}
		for i, v := range t.Vector() {
			sum[i] += domain.ClampTrait(v)
		}
	}

	n := float64(len(answers))
	return domain.Traits{
		Extroversion: sum[0] / n,
		Openness:     sum[1] / n,
		Spontaneity:  sum[2] / n,
		EnergyLevel:  sum[3] / n,
	}, nil
}
