package service

import (
	"context"
	"strings"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/models"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/service/integration"
	"github.com/rs/zerolog"
)

const (
	feedbackKeywordsMatched = "Keywords matched"
	feedbackNoKeywords      = "No keywords matched"
)

// ReviewService grades one submission event end to end: model scoring when
// available, keyword fallback otherwise, then best-effort delivery of the
// review to the gateway.
type ReviewService interface {
	HandleSubmissionCreated(ctx context.Context, body []byte)
}

type reviewService struct {
	scorer   integration.OllamaClient
	gateway  integration.GatewayClient
	keywords []string
	logger   zerolog.Logger
}

func NewReviewService(scorer integration.OllamaClient, gateway integration.GatewayClient, keywords []string, logger zerolog.Logger) ReviewService {
	return &reviewService{
		scorer:   scorer,
		gateway:  gateway,
		keywords: keywords,
		logger:   logger,
	}
}

// HandleSubmissionCreated never propagates an error: any failure here would
// stall the consumer, which is strictly worse than delivering a degraded
// score. Undecodable messages are dropped; scoring failures degrade to the
// keyword heuristic; delivery failures are logged and swallowed.
func (s *reviewService) HandleSubmissionCreated(ctx context.Context, body []byte) {
	event, err := models.DecodeSubmissionEvent(body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Invalid submission event, dropping message")
		return
	}

	result, err := s.scorer.Score(ctx, event.Question, event.AnswerText)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("submission_id", event.ID).
			Msg("Model scoring failed, falling back to keyword scoring")
		result = s.keywordScore(event.AnswerText)
	}

	s.logger.Info().
		Str("submission_id", event.ID).
		Str("student_id", event.StudentID).
		Int("score", result.Score).
		Msg("Submission reviewed")

	if event.ID == "" {
		s.logger.Debug().Msg("Submission carries no id, skipping review delivery")
		return
	}

	if err := s.gateway.SubmitReview(ctx, event.ID, result); err != nil {
		s.logger.Warn().
			Err(err).
			Str("submission_id", event.ID).
			Msg("Failed to push review via gateway")
	}
}

func (s *reviewService) keywordScore(answerText string) models.ScoreResult {
	text := strings.ToLower(answerText)
	for _, keyword := range s.keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return models.ScoreResult{Score: 100, Feedback: feedbackKeywordsMatched}
		}
	}
	return models.ScoreResult{Score: 0, Feedback: feedbackNoKeywords}
}
