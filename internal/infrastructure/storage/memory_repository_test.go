package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, 1, repo.Len())

	// изменения без Save не видны
	user.SetState(entity.StateProcessing)
	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, again.State)

	require.NoError(t, repo.Save(ctx, user))
	again, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, again.State)
}

func TestMemoryUserRepository_UpdateState(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateState(ctx, 2, entity.StateAwaitingPhoto))

	user, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	require.NoError(t, repo.UpdateState(ctx, 99, entity.StateAwaitingPhoto))
	require.Equal(t, 1, repo.Len())
}

func TestMemoryMeasurementRepository(t *testing.T) {
	repo := NewMemoryMeasurementRepository()
	ctx := context.Background()
	now := time.Now()

	newer := entity.MeasurementRecord{ID: uuid.New(), UserID: 1, Date: now, LengthUnits: 5}
	older := entity.MeasurementRecord{ID: uuid.New(), UserID: 1, Date: now.Add(-time.Hour), LengthUnits: 4}
	other := entity.MeasurementRecord{ID: uuid.New(), UserID: 2, Date: now}
	for _, r := range []entity.MeasurementRecord{newer, older, other} {
		require.NoError(t, repo.Save(ctx, r))
	}

	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, older.ID, list[0].ID)
	require.Equal(t, newer.ID, list[1].ID)

	newer.Notes = "edited"
	require.NoError(t, repo.Save(ctx, newer))
	list, err = repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "edited", list[1].Notes)

	require.Error(t, repo.Save(ctx, entity.MeasurementRecord{UserID: 1}))

	empty, err := repo.List(ctx, 42)
	require.NoError(t, err)
	require.Empty(t, empty)
}
