package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

const (
	FeedbackHelpful    = 5
	FeedbackNotHelpful = 1
)

// FeedbackService validates and records interaction ratings.
type FeedbackService struct {
	store repositories.AnalyticsStore
	now   func() time.Time
	newID func() string
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store repositories.AnalyticsStore) *FeedbackService {
	return &FeedbackService{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Submit rates an interaction on a 1-5 scale.
func (s *FeedbackService) Submit(ctx context.Context, interactionID string, score int) error {
	if score < 1 || score > 5 {
		return apperrors.NewValidationError("score must be between 1 and 5")
	}
	return RecordFeedback(ctx, s.store, s.now, s.newID, interactionID, score)
}
