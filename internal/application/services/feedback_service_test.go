package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

func TestFeedbackService_Submit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	chat := services.NewChatService(&stubChatProvider{}, "prompt")
	cs := openClient(t, store, chat)
	reply, err := chat.Ask(ctx, cs, "When did Central High integrate?")
	require.NoError(t, err)

	feedback := services.NewFeedbackService(store)
	require.NoError(t, feedback.Submit(ctx, reply.InteractionID, services.FeedbackHelpful))

	in := repositories.InteractionFromRecord(readAll(t, store, repositories.TableInteractions)[0])
	require.NotNil(t, in.FeedbackScore)
	assert.Equal(t, 5, *in.FeedbackScore)
	assert.Len(t, readAll(t, store, repositories.TableFeedback), 1)
}

func TestFeedbackService_Submit_InvalidScore(t *testing.T) {
	feedback := services.NewFeedbackService(newStore(t))
	for _, score := range []int{0, 6, -1} {
		err := feedback.Submit(context.Background(), "any", score)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "score %d", score)
	}
}

func TestFeedbackService_Submit_StorageFailure(t *testing.T) {
	store := &flakyStore{AnalyticsStore: newStore(t), failRead: true}
	err := services.NewFeedbackService(store).Submit(context.Background(), "any", 3)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}
