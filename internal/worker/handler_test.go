package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pixel-place/internal/domain"
	"pixel-place/internal/repository/mocks"
	"pixel-place/internal/tasks"
)

func auditTask(t *testing.T, action domain.TileAction) *asynq.Task {
	t.Helper()
	task, err := tasks.NewTileAuditTask(action)
	require.NoError(t, err)
	return task
}

func TestTileAuditHandler_SavesAction(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewTileAuditHandler(repo)

	committedAt := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	action := domain.NewTileAction(domain.Tile{X: 4, Y: 2, Color: "#112233"}, "session-1", committedAt)
	action.ID = 99

	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *domain.TileAction) bool {
		return a.ID == 0 && a.X == 4 && a.Y == 2 && a.Color == "#112233" &&
			a.SessionID == "session-1" && a.CommittedAt.Equal(committedAt)
	})).Return(nil).Once()

	assert.NoError(t, h.ProcessTask(context.Background(), auditTask(t, action)))
}

func TestTileAuditHandler_BadPayloadSkipsRetry(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewTileAuditHandler(repo)

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeTileAudit, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, ErrInvalidAuditPayload)

	err = h.ProcessTask(context.Background(), auditTask(t, domain.TileAction{X: 1, Y: 1}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTileAuditHandler_SaveErrorIsRetried(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewTileAuditHandler(repo)
	dbErr := errors.New("database is locked")
	repo.On("Save", mock.Anything, mock.Anything).Return(dbErr).Once()

	action := domain.NewTileAction(domain.Tile{X: 0, Y: 0, Color: "#000000"}, "s", time.Now())
	err := h.ProcessTask(context.Background(), auditTask(t, action))
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestAuditPruneHandler_DeletesExpired(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewAuditPruneHandler(repo, 24*time.Hour)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	repo.On("DeleteBefore", mock.Anything, now.Add(-24*time.Hour)).Return(int64(3), nil).Once()

	assert.NoError(t, h.ProcessTask(context.Background(), tasks.NewTileAuditPruneTask()))
}

func TestAuditPruneHandler_Errors(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewAuditPruneHandler(repo, time.Hour)
	repo.On("DeleteBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("timeout")).Once()

	assert.Error(t, h.ProcessTask(context.Background(), tasks.NewTileAuditPruneTask()))
}

func TestAuditPruneHandler_DisabledRetention(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewAuditPruneHandler(repo, 0)

	assert.NoError(t, h.ProcessTask(context.Background(), tasks.NewTileAuditPruneTask()))
	repo.AssertNotCalled(t, "DeleteBefore", mock.Anything, mock.Anything)
}
