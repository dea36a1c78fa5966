package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/infrastructure/storage"
)

func TestUserService_BeginMeasureAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginMeasure(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_BeginCalibration(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCalibration(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingCalibrationPhoto, user.State)
}

func TestUserService_SetUnit(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.SetUnit(ctx, 3, 30, entity.UnitCentimeter)
	require.NoError(t, err)

	user, err := svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, entity.UnitCentimeter, user.Unit)
	require.Equal(t, entity.StateMainMenu, user.State)
}
