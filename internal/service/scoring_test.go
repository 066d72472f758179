package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/service"
)

func TestScoringService_ScoreAnswers_Averages(t *testing.T) {
	scores := map[string]domain.Traits{
		"a1": {Extroversion: 4, Openness: 2, Spontaneity: 5, EnergyLevel: 1},
		"a2": {Extroversion: 2, Openness: 4, Spontaneity: 3, EnergyLevel: 3},
	}
	svc := service.NewScoringService(&mockScorer{
		score: func(_ context.Context, _, answer string) (domain.Traits, error) {
			return scores[answer], nil
		},
	}, discardLogger(), nil)

	got, err := svc.ScoreAnswers(context.Background(), []service.Answer{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: " a2 "},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Traits{Extroversion: 3, Openness: 3, Spontaneity: 4, EnergyLevel: 2}, got)
}

func TestScoringService_ScoreAnswers_FailedAnswerCountsAsZero(t *testing.T) {
	svc := service.NewScoringService(&mockScorer{
		score: func(_ context.Context, _, answer string) (domain.Traits, error) {
			if answer == "bad" {
				return domain.Traits{}, errors.New("model unavailable")
			}
			return domain.Traits{Extroversion: 4, Openness: 4, Spontaneity: 4, EnergyLevel: 4}, nil
		},
	}, discardLogger(), nil)

	got, err := svc.ScoreAnswers(context.Background(), []service.Answer{
		{Question: "q1", Answer: "good"},
		{Question: "q2", Answer: "bad"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Traits{Extroversion: 2, Openness: 2, Spontaneity: 2, EnergyLevel: 2}, got)
}

func TestScoringService_ScoreAnswers_ClampsOutOfRange(t *testing.T) {
	svc := service.NewScoringService(&mockScorer{
		score: func(context.Context, string, string) (domain.Traits, error) {
			return domain.Traits{Extroversion: 9, Openness: -3}, nil
		},
	}, discardLogger(), nil)

	got, err := svc.ScoreAnswers(context.Background(), []service.Answer{{Answer: "x"}})

	require.NoError(t, err)
	assert.Equal(t, domain.Traits{Extroversion: 5}, got)
}

func TestScoringService_ScoreAnswers_Validation(t *testing.T) {
	svc := service.NewScoringService(service.NeutralScorer{}, discardLogger(), nil)

	_, err := svc.ScoreAnswers(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ScoreAnswers(context.Background(), []service.Answer{{Question: "q", Answer: "  "}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestScoringService_ScoreAnswers_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := service.NewScoringService(&mockScorer{
		score: func(ctx context.Context, _, _ string) (domain.Traits, error) {
			return domain.Traits{}, ctx.Err()
		},
	}, discardLogger(), nil)

	_, err := svc.ScoreAnswers(ctx, []service.Answer{{Answer: "x"}})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNeutralScorer(t *testing.T) {
	got, err := service.NeutralScorer{}.Score(context.Background(), "q", "a")

	require.NoError(t, err)
	assert.Equal(t, domain.Traits{}, got)
}
